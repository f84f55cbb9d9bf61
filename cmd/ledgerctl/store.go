package main

import (
	"context"
	"fmt"

	"github.com/mindburn-labs/ledgerly/internal/adapters"
	"github.com/mindburn-labs/ledgerly/internal/config"
	"github.com/mindburn-labs/ledgerly/internal/eventstore"
)

// openStore opens the event store named by cfg, wrapped in a hash chain.
func openStore(ctx context.Context, cfg *config.Config) (*eventstore.Chain, error) {
	var inner eventstore.EventStore
	var err error

	switch cfg.EventStoreDriver {
	case "postgres":
		inner, err = eventstore.OpenPostgres(ctx, cfg.EventStoreDSN)
	case "sqlite":
		inner, err = eventstore.OpenSQLite(ctx, cfg.EventStoreDSN)
	case "memory":
		inner = eventstore.NewMemEventStore()
	default:
		return nil, fmt.Errorf("ledgerctl: unknown event store driver %q", cfg.EventStoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("ledgerctl: opening event store: %w", err)
	}

	head, err := chainHead(ctx, inner)
	if err != nil {
		return nil, err
	}
	return eventstore.NewChain(inner, head), nil
}

// openArchive returns the S3 archival sink named by cfg, or nil when no
// bucket is configured.
func openArchive(ctx context.Context, cfg *config.Config) (*adapters.ArchiveStore, error) {
	if cfg.ArchiveBucket == "" {
		return nil, nil
	}
	store, err := adapters.NewArchiveStore(ctx, adapters.ArchiveStoreConfig{
		Bucket:   cfg.ArchiveBucket,
		Region:   cfg.ArchiveRegion,
		Endpoint: cfg.ArchiveEndpoint,
		Prefix:   cfg.ArchivePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("ledgerctl: opening archive store: %w", err)
	}
	return store, nil
}

// chainHead recovers the last known chain hash by replaying the log, so a
// freshly reopened store resumes the chain instead of restarting it.
func chainHead(ctx context.Context, store eventstore.EventStore) (string, error) {
	events, err := store.All(ctx)
	if err != nil {
		return "", fmt.Errorf("ledgerctl: reading event log: %w", err)
	}
	if len(events) == 0 {
		return "", nil
	}
	hash, _ := events[len(events)-1].Payload["_chain_hash"].(string)
	return hash, nil
}
