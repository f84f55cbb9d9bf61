package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mindburn-labs/ledgerly/internal/canon"
	"github.com/mindburn-labs/ledgerly/internal/config"
)

// runExportCmd implements `ledgerctl export`: writes the full event log
// as a JSON array to --out, or to stdout if --out is omitted. With an
// archive bucket configured, a canonical (JCS) snapshot of the log is
// additionally stored content-addressed, so two exports of the same log
// archive as the same object.
func runExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var out string
	cmd.StringVar(&out, "out", "", "Output file (defaults to stdout)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	cfg := config.Load()

	store, err := openStore(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	events, err := store.All(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: reading event log: %v\n", err)
		return 1
	}

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if archive != nil {
		snapshot, err := canon.JCS(events)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: canonicalizing event log: %v\n", err)
			return 1
		}
		ref, err := archive.Archive(ctx, snapshot)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: archiving event log snapshot: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stderr, "event log snapshot archived as %s\n", ref)
	}

	w := stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: creating %q: %v\n", out, err)
			return 1
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: encoding event log: %v\n", err)
		return 1
	}

	return 0
}
