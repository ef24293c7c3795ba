package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshintel/sourcepull/internal/project"
	"github.com/meshintel/sourcepull/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <project>",
	Short: "Show the worklist and its retrieval outcomes",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	proj, err := project.Open(cfg.Project.ProjectsDir, args[0])
	if err != nil {
		return err
	}
	defer proj.Close()

	cits, err := proj.Sources()
	if err != nil {
		return err
	}

	counts := make(map[types.RetrievalStatus]int)
	for _, c := range cits {
		counts[c.Status]++
		statusColor(c.Status).Printf("%-12s", c.Status)
		fmt.Printf(" %-6s %-16s %s\n", c.Seq, c.Category, c.LongCite)
	}

	fmt.Printf("\n%d citations", len(cits))
	for _, s := range []types.RetrievalStatus{types.StatusSuccess, types.StatusNotFound, types.StatusFailure, types.StatusNoAttempt, types.StatusNotStarted} {
		if counts[s] > 0 {
			fmt.Printf(", %d %s", counts[s], s)
		}
	}
	fmt.Println()
	return nil
}
