package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/sourcepull/internal/footnote"
	"github.com/meshintel/sourcepull/internal/project"
)

var extractCmd = &cobra.Command{
	Use:   "extract <project> <footnotes-file>",
	Short: "Build a classified source worklist from article footnotes",
	Long: `Extract reads an article's footnotes (one footnote per line), splits
each into its individual citations, classifies every citation by source
type, predicts a search key for it, and writes the result into a new
project worklist (Sources.xlsx). Review and correct the worklist before
running pull.`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening footnotes file: %w", err)
	}
	defer f.Close()

	var footnotes []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		footnotes = append(footnotes, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading footnotes file: %w", err)
	}

	cits, err := footnote.Extract(footnotes)
	if err != nil {
		return fmt.Errorf("extracting citations: %w", err)
	}

	p, err := project.Create(cfg.Project.ProjectsDir, name)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.SaveSources(cits); err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, c := range cits {
		counts[string(c.Category)]++
	}
	fmt.Printf("Extracted %d citations from %d footnotes into %s\n", len(cits), len(footnotes), p.Name)
	for cat, n := range counts {
		fmt.Printf("  %-16s %d\n", cat, n)
	}
	return nil
}
