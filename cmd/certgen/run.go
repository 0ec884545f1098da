package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datacampus/certgen/internal/config"
	"github.com/datacampus/certgen/internal/db"
	"github.com/datacampus/certgen/internal/observability"
	"github.com/datacampus/certgen/internal/pipeline"
	"github.com/datacampus/certgen/internal/rendering"
	"github.com/datacampus/certgen/internal/schemas"
	"github.com/datacampus/certgen/internal/store"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full certificate generation pipeline end-to-end",
	Long: `Downloads the roster, selects the rows not yet marked done, and drives each
one through render -> upload -> status write-back. Row failures are reported
and skipped over; the run itself only aborts when the roster is unusable.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values; unset credentials fall back to the
environment.`,
	RunE: runGenerate,
}

var (
	runConfigPath  string
	runRosterID    string
	runParentID    string
	runWorksheet   string
	runTemplate    string
	runDoneValue   string
	runParallel    int
	runTimeout     int
	runVerbose     bool
	runSummaryOut  string
	runDatabaseURL string
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVar(&runRosterID, "roster-id", "", "Drive item id of the roster spreadsheet")
	runCommand.Flags().StringVar(&runParentID, "parent-id", "", "Drive item id of the folder holding the per-company folders")
	runCommand.Flags().StringVar(&runWorksheet, "sheet", "", "Worksheet name (defaults to the first sheet)")
	runCommand.Flags().StringVarP(&runTemplate, "template", "t", "", "Path to the .docx or .html certificate template")
	runCommand.Flags().StringVar(&runDoneValue, "done-value", "", "Value written into the status cell after upload (default \"done\")")
	runCommand.Flags().IntVar(&runParallel, "parallel", 0, "Number of rows processed concurrently (default 1)")
	runCommand.Flags().IntVar(&runTimeout, "timeout", 0, "Per-document PDF conversion timeout in seconds (default 60)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print per-row progress")
	runCommand.Flags().StringVarP(&runSummaryOut, "summary-out", "o", "", "Write the run summary JSON to this path")

	// Database URL for run history persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// loadRunConfig builds the effective configuration: config file values,
// overridden by explicitly set flags, backfilled from the environment, then
// from built-in defaults.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("roster-id") {
		cfg.RosterFileID = runRosterID
	}
	if cmd.Flags().Changed("parent-id") {
		cfg.ParentFolderID = runParentID
	}
	if cmd.Flags().Changed("sheet") {
		cfg.Worksheet = runWorksheet
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = runTemplate
	}
	if cmd.Flags().Changed("done-value") {
		cfg.DoneValue = runDoneValue
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Parallel = runParallel
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = runTimeout
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("summary-out") {
		cfg.SummaryOut = runSummaryOut
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// requireRunFields checks the fields without which a run cannot start.
func requireRunFields(cfg config.Config) error {
	switch {
	case cfg.RosterFileID == "":
		return fmt.Errorf("--roster-id is required (via flag, config or ROSTER_FILE_ID)")
	case cfg.ParentFolderID == "":
		return fmt.Errorf("--parent-id is required (via flag, config or CERTIFICATES_FOLDER_ID)")
	case cfg.Template == "":
		return fmt.Errorf("--template is required (via flag, config or TEMPLATE_PATH)")
	case cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "":
		return fmt.Errorf("Graph credentials are required (GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET)")
	}
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	// Ctrl-C stops dispatching new rows; rows in flight finish first.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireRunFields(cfg); err != nil {
		return err
	}

	client := store.NewClient(&store.ClientCredentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, nil)

	renderer, err := rendering.NewRenderer(cfg.Template, time.Duration(cfg.TimeoutSeconds)*time.Second)
	if err != nil {
		return err
	}

	// Run history persistence is optional; a broken database never blocks
	// certificate generation.
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: failed to connect to database (continuing without run history): %v\n", err)
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				fmt.Printf("Warning: failed to migrate database (continuing without run history): %v\n", err)
				database = nil
			}
		}
	}

	opts := pipeline.RunOptions{
		Store:          client,
		Workbook:       client,
		Renderer:       renderer,
		Database:       database,
		RosterFileID:   cfg.RosterFileID,
		ParentFolderID: cfg.ParentFolderID,
		Worksheet:      cfg.Worksheet,
		Columns:        cfg.Columns,
		DoneValue:      cfg.DoneValue,
		Parallel:       cfg.Parallel,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			if event.Message != "" {
				fmt.Printf("  row %d (%s): %s %s\n", event.RowIndex, event.Company, event.State, event.Message)
			} else {
				fmt.Printf("  row %d (%s): %s\n", event.RowIndex, event.Company, event.State)
			}
		}
	}

	summary, err := pipeline.RunPipeline(ctx, opts)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		for _, r := range summary.Results {
			printer.PrintRow(r)
		}
	}
	printer.PrintSummary(summary)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := schemas.ValidateRunSummary(data); err != nil {
		fmt.Printf("Warning: summary failed schema validation: %v\n", err)
	}
	if cfg.SummaryOut != "" {
		if err := os.WriteFile(cfg.SummaryOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
		fmt.Printf("Summary written to %s\n", cfg.SummaryOut)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d row(s) failed; see summary for details", summary.Failed)
	}
	return nil
}
