package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/datacampus/certgen/internal/db"
)

var runsCommand = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded runs, or show one run's row results",
	Long: `Reads the run history from PostgreSQL. Without arguments the most recent
runs are listed; with a run id the run's per-row results are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: showRuns,
}

var (
	runsDatabaseURL string
	runsLimit       int
)

func init() {
	runsCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runsCommand.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")

	rootCmd.AddCommand(runsCommand)
}

func showRuns(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	databaseURL := runsDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if len(args) == 1 {
		return showRunDetail(ctx, database, args[0])
	}
	return listRuns(ctx, database)
}

func listRuns(ctx context.Context, database *db.DB) error {
	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-9s  %9s  %7s  %6s  %s\n", "ID", "STATUS", "GENERATED", "SKIPPED", "FAILED", "STARTED")
	for _, run := range runs {
		fmt.Printf("%-36s  %-9s  %9d  %7d  %6d  %s\n",
			run.ID, run.Status, run.Generated, run.Skipped, run.Failed,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func showRunDetail(ctx context.Context, database *db.DB, rawID string) error {
	runID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", rawID, err)
	}

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	fmt.Printf("Run %s (%s)\n", run.ID, run.Status)
	fmt.Printf("  roster:    %s\n", run.RosterFileID)
	fmt.Printf("  started:   %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Printf("  completed: %s\n", run.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("  generated %d, skipped %d, failed %d\n", run.Generated, run.Skipped, run.Failed)

	results, err := database.ListRowResults(ctx, runID)
	if err != nil {
		return err
	}
	for _, r := range results {
		line := fmt.Sprintf("  row %-4d %-10s %s", r.RowIndex, r.Outcome, r.Company)
		if r.ArtifactName != "" {
			line += "  " + r.ArtifactName
		}
		if r.ErrorKind != "" {
			line += fmt.Sprintf("  [%s] %s", r.ErrorKind, r.ErrorDetail)
		}
		if r.NeedsReconciliation {
			line += "  (needs reconciliation)"
		}
		fmt.Println(line)
	}
	return nil
}
