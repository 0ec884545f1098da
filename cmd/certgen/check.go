package main

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/datacampus/certgen/internal/config"
	"github.com/datacampus/certgen/internal/db"
	"github.com/datacampus/certgen/internal/rendering"
	"github.com/datacampus/certgen/internal/roster"
	"github.com/datacampus/certgen/internal/store"
)

var checkCommand = &cobra.Command{
	Use:   "check",
	Short: "Verify the configuration without generating anything",
	Long: `Runs the preflight checks a real run depends on: the template loads, the
PDF converter binary is on PATH, the Graph credentials yield a token, the
roster downloads and has the required columns, and the database (if
configured) answers. Nothing is rendered, uploaded or written back.`,
	RunE: runCheck,
}

func init() {
	// check shares the run command's flags through the config file and
	// environment; only --config is needed here.
	checkCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file")

	rootCmd.AddCommand(checkCommand)
}

// chromeCandidates are the binaries the HTML renderer's headless browser can
// run as, in preference order.
var chromeCandidates = []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	failures := 0
	report := func(name string, err error) {
		if err != nil {
			failures++
			fmt.Printf("✗ %s: %v\n", name, err)
			return
		}
		fmt.Printf("✓ %s\n", name)
	}

	report("template", checkTemplate(cfg))
	report("converter", checkConverter(cfg))

	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		report("credentials", fmt.Errorf("GRAPH_TENANT_ID, GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET must be set"))
	} else {
		tokens := &store.ClientCredentials{
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		}
		_, err := tokens.Token(ctx)
		report("credentials", err)

		if err == nil {
			report("roster", checkRoster(ctx, store.NewClient(tokens, nil), cfg))
		}
	}

	if cfg.DatabaseURL != "" {
		report("database", checkDatabase(ctx, cfg.DatabaseURL))
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	fmt.Println("All checks passed.")
	return nil
}

func checkTemplate(cfg config.Config) error {
	if cfg.Template == "" {
		return fmt.Errorf("no template configured")
	}
	_, err := rendering.NewRenderer(cfg.Template, 0)
	return err
}

// checkConverter verifies the external binary the configured template format
// converts through.
func checkConverter(cfg config.Config) error {
	switch strings.ToLower(filepath.Ext(cfg.Template)) {
	case ".docx":
		if _, err := exec.LookPath("soffice"); err != nil {
			return fmt.Errorf("soffice not found on PATH (install LibreOffice)")
		}
	case ".html", ".htm", ".tmpl":
		for _, candidate := range chromeCandidates {
			if _, err := exec.LookPath(candidate); err == nil {
				return nil
			}
		}
		return fmt.Errorf("no Chrome binary found on PATH (tried %s)", strings.Join(chromeCandidates, ", "))
	}
	return nil
}

// checkRoster downloads the roster and parses it, which exercises both the
// store read path and the column mapping.
func checkRoster(ctx context.Context, client *store.Client, cfg config.Config) error {
	if cfg.RosterFileID == "" {
		return fmt.Errorf("no roster file id configured")
	}
	data, err := client.GetFile(ctx, cfg.RosterFileID)
	if err != nil {
		return err
	}
	parsed, err := roster.NewReader(cfg.Worksheet, cfg.Columns).Parse(data)
	if err != nil {
		return err
	}
	pending := roster.SelectPending(parsed.Rows)
	fmt.Printf("  roster has %d row(s), %d pending\n", len(parsed.Rows), len(pending))
	return nil
}

func checkDatabase(ctx context.Context, databaseURL string) error {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	database.Close()
	return nil
}
