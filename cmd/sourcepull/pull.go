package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/history"
	"github.com/meshintel/sourcepull/internal/project"
	"github.com/meshintel/sourcepull/pkg/types"
)

var pullCmd = &cobra.Command{
	Use:   "pull <project>",
	Short: "Retrieve the project's sources as PDFs",
	Long: `Pull walks the project worklist and retrieves each citation from the
database that holds its source type, saving the artifact under the
project's pull/ directory and the outcome back to the worklist. Citations
already pulled successfully are skipped unless --all is set. Sessions must
be authenticated first (see login); pull re-checks and signs in when
credentials are available.`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().String("seq", "", "pull only the citation with this sequence key (e.g. 3.04)")
	pullCmd.Flags().Bool("all", false, "re-pull citations that already succeeded")

	rootCmd.AddCommand(pullCmd)
}

func statusColor(s types.RetrievalStatus) *color.Color {
	switch s {
	case types.StatusSuccess:
		return color.New(color.FgGreen)
	case types.StatusNotFound:
		return color.New(color.FgYellow)
	case types.StatusFailure:
		return color.New(color.FgRed)
	case types.StatusNoAttempt:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}

func runPull(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	only, _ := cmd.Flags().GetString("seq")
	all, _ := cmd.Flags().GetBool("all")

	var onlySeq types.SeqKey
	if only != "" {
		v, err := strconv.ParseFloat(only, 64)
		if err != nil {
			return fmt.Errorf("bad --seq %q: %w", only, err)
		}
		onlySeq = types.ParseSeqKey(v)
	}

	proj, err := project.Open(cfg.Project.ProjectsDir, args[0])
	if err != nil {
		return err
	}
	defer proj.Close()

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer hist.Close()

	p, cleanup := newPuller(cfg)
	defer cleanup()

	ctx := cmd.Context()
	if !p.AllAuthenticated(ctx) {
		fmt.Println("Some databases are not authenticated, signing in...")
		if err := p.Login(ctx, databaseCreds()); err != nil {
			return fmt.Errorf("not authenticated and automatic login failed (run `sourcepull login`): %w", err)
		}
	}

	cits, err := proj.Sources()
	if err != nil {
		return err
	}

	counts := make(map[types.RetrievalStatus]int)
	for _, c := range cits {
		if only != "" && c.Seq != onlySeq {
			continue
		}
		if !all && only == "" && c.Status == types.StatusSuccess {
			continue
		}

		c.Status = types.StatusInProgress
		if err := proj.SaveSource(c); err != nil {
			return err
		}

		started := time.Now()
		status, pullErr := p.Pull(ctx, c, proj)
		c.Status = status
		if err := proj.SaveSource(c); err != nil {
			return err
		}

		detail := ""
		if pullErr != nil {
			detail = pullErr.Error()
		}
		if err := hist.Record(history.Attempt{
			Project:    proj.Name,
			Seq:        c.Seq.String(),
			Category:   string(c.Category),
			Status:     string(status),
			Detail:     detail,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}); err != nil {
			logger.Warn("attempt not recorded", zap.Error(err))
		}

		counts[status]++
		statusColor(status).Printf("%-10s", status)
		fmt.Printf(" %-6s %s\n", c.Seq, c.LongCite)

		if pullErr != nil {
			return fmt.Errorf("pull aborted at %s: %w", c.Seq, pullErr)
		}
	}

	fmt.Println()
	for _, s := range []types.RetrievalStatus{types.StatusSuccess, types.StatusNotFound, types.StatusFailure, types.StatusNoAttempt} {
		if counts[s] > 0 {
			statusColor(s).Printf("%-10s", s)
			fmt.Printf(" %d\n", counts[s])
		}
	}
	return nil
}
