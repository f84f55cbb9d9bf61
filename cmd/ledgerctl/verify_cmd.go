package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mindburn-labs/ledgerly/internal/canon"
	"github.com/mindburn-labs/ledgerly/internal/config"
	"github.com/mindburn-labs/ledgerly/internal/eventstore"
	"github.com/mindburn-labs/ledgerly/internal/model"
)

// runVerifyCmd implements `ledgerctl verify`: replays the event log's hash
// chain, then recomputes every imported transaction's content identity
// from the attributes its import event recorded, reporting any mismatch.
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)
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

	ok, diagnostic := eventstore.Verify(ctx, store)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "chain verification failed: %s\n", diagnostic)
		return 1
	}

	events, err := store.All(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: reading event log: %v\n", err)
		return 1
	}

	checked, mismatches := 0, 0
	for _, e := range events {
		if e.Kind != model.EventTransactionImported {
			continue
		}
		checked++
		date, _ := e.Payload["date"].(string)
		amount, _ := e.Payload["amount"].(float64)
		merchant, _ := e.Payload["merchant"].(string)
		bank, _ := e.Payload["bank"].(string)
		if canon.Identity(date, amount, merchant, bank) != e.EntityID {
			mismatches++
			_, _ = fmt.Fprintf(stderr, "identity mismatch: event %s claims transaction %s\n", e.ID, e.EntityID)
		}
	}
	if mismatches > 0 {
		_, _ = fmt.Fprintf(stderr, "identity verification failed: %d of %d transactions mismatched\n", mismatches, checked)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "chain verification passed; %d transaction identities verified\n", checked)
	return 0
}
