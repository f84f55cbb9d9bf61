// Package eventstore implements the append-only event log: the single
// substrate every projection (internal/projection) is derived from.
package eventstore

import (
	"context"
	"errors"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// ErrDuplicateEvent signals that an event with the same ID already exists
// — an idempotent no-op at the storage boundary, not a hard failure.
var ErrDuplicateEvent = errors.New("eventstore: duplicate event id")

// EventStore is the append-only log contract. Append must be safe to call
// concurrently; All must return events in the log's total order: event
// timestamp, tie-broken by event ID.
type EventStore interface {
	Append(ctx context.Context, event model.Event) error
	All(ctx context.Context) ([]model.Event, error)
	ForEntity(ctx context.Context, entityKind, entityID string) ([]model.Event, error)
}
