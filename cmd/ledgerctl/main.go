// Command ledgerctl is the ledger's CLI: ingest statements, inspect and
// reload the rules file, verify the event log's hash chain, rebuild the
// index projection, and export the event log.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, factored out of main so it is callable
// directly from tests without spawning a process.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		_, _ = fmt.Fprintln(stderr, "Usage: ledgerctl <ingest|rules|verify|rebuild-index|export>")
		return 2
	}

	switch args[1] {
	case "ingest":
		return runIngestCmd(args[2:], stdout, stderr)
	case "rules":
		return runRulesCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "rebuild-index":
		return runRebuildIndexCmd(args[2:], stdout, stderr)
	case "export":
		return runExportCmd(args[2:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command %q\nUsage: ledgerctl <ingest|rules|verify|rebuild-index|export>\n", args[1])
		return 2
	}
}
