package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshintel/sourcepull/internal/project"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		names, err := project.List(cfg.Project.ProjectsDir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No projects.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project and its pulled artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := project.Delete(cfg.Project.ProjectsDir, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

func init() {
	projectsCmd.AddCommand(projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}
