package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/mindburn-labs/ledgerly/internal/config"
	"github.com/mindburn-labs/ledgerly/internal/rules"
)

// runRulesCmd implements `ledgerctl rules`: loads and validates a rules
// file, printing its version tag and rule count, or a fatal error if the
// file is invalid — a broken rule set must never be applied, so this
// checks one independently of a full ingest run.
func runRulesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("rules", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var rulesPath string
	cmd.StringVar(&rulesPath, "rules", "", "Path to rules.json (defaults to config)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if rulesPath == "" {
		rulesPath = config.Load().RulesPath
	}

	engine, err := rules.LoadFile(rulesPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: invalid rules file: %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "version=%s rules=%d\n", engine.Version(), len(engine.Rules()))
	return 0
}
