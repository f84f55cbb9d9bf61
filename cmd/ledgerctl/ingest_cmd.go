package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindburn-labs/ledgerly/internal/adapters"
	"github.com/mindburn-labs/ledgerly/internal/config"
	"github.com/mindburn-labs/ledgerly/internal/ingest"
	"github.com/mindburn-labs/ledgerly/internal/obs"
	"github.com/mindburn-labs/ledgerly/internal/parser"
	"github.com/mindburn-labs/ledgerly/internal/rules"
)

// runIngestCmd implements `ledgerctl ingest`.
//
// Exit codes:
//
//	0 = batch completed (per-record/per-file anomalies still reported)
//	1 = fatal error (unreadable rules file, event-store I/O failure)
//	2 = usage error
func runIngestCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("ingest", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		path       string
		rulesPath  string
		jsonOutput bool
	)
	cmd.StringVar(&path, "path", "", "File or directory to ingest (REQUIRED)")
	cmd.StringVar(&rulesPath, "rules", "", "Path to rules.json (defaults to config)")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the batch report as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if path == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --path is required")
		return 2
	}

	cfg := config.Load()
	if rulesPath == "" {
		rulesPath = cfg.RulesPath
	}

	ctx := context.Background()

	rulesEngine, err := rules.LoadFile(rulesPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: invalid rules file: %v\n", err)
		return 1
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	obsProvider, err := obs.New(ctx, obs.Config{Enabled: cfg.ObsEnabled})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: initializing observability: %v\n", err)
		return 1
	}
	defer func() { _ = obsProvider.Shutdown(ctx) }()

	policy := config.DefaultPolicy()

	files, err := adapters.Walk(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// With an archive bucket configured, every raw statement is stored
	// content-addressed before it is interpreted, so the exact bytes a
	// batch was derived from can always be retrieved later.
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if archive != nil {
		for _, f := range files {
			data, err := os.ReadFile(f.Name)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "Error: reading %q for archival: %v\n", f.Name, err)
				return 1
			}
			ref, err := archive.Archive(ctx, data)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "Error: archiving %q: %v\n", f.Name, err)
				return 1
			}
			if !jsonOutput {
				_, _ = fmt.Fprintf(stdout, "archived %s as %s\n", f.Name, ref)
			}
		}
	}

	engine := ingest.New(parser.NewRegistry(), rulesEngine, store, policy.Tolerances(), obsProvider)
	report, err := engine.Ingest(ctx, files)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		_, _ = fmt.Fprintf(stdout, "files_processed=%d transactions_imported=%d duplicates_suppressed=%d rules_file_version=%s\n",
			report.FilesProcessed, report.TransactionsImported, report.DuplicatesSuppressed, report.RulesFileVersion)
		for _, e := range report.Errors {
			_, _ = fmt.Fprintf(stdout, "  error: %s\n", e)
		}
	}

	return 0
}
