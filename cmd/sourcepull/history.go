package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/sourcepull/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "List past retrieval attempts for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer hist.Close()

	attempts, err := hist.ByProject(args[0])
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println("No recorded attempts.")
		return nil
	}

	for _, a := range attempts {
		line := fmt.Sprintf("%s  %-6s %-16s %-10s %s",
			a.StartedAt.Local().Format(time.DateTime),
			a.Seq, a.Category, a.Status,
			a.FinishedAt.Sub(a.StartedAt).Round(time.Second))
		fmt.Println(line)
		if a.Detail != "" {
			fmt.Printf("    %s\n", a.Detail)
		}
	}
	return nil
}
