package eventstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/mindburn-labs/ledgerly/internal/canon"
	"github.com/mindburn-labs/ledgerly/internal/model"
)

const genesisHash = "genesis"

const (
	chainHashKey = "_chain_hash"
	chainPrevKey = "_chain_prev"
)

// Chain wraps an EventStore with a hash chain over appended events, the
// way pkg/ledger.Ledger chains entries: each event's content hash folds in
// the previous head hash, so any reordering or tampering breaks Verify.
// The chain metadata rides in the event's own payload rather than a
// separate column, keeping Chain storage-agnostic.
type Chain struct {
	inner EventStore

	mu   sync.Mutex
	head string
}

// NewChain wraps inner. head should be the last known chain head (use
// genesisHash for an empty store, or recover it by replaying inner.All and
// taking the final event's chain hash).
func NewChain(inner EventStore, head string) *Chain {
	if head == "" {
		head = genesisHash
	}
	return &Chain{inner: inner, head: head}
}

// Append computes the event's chain hash from the current head and the
// event's own content, then appends the event (with chain metadata
// embedded in its payload) to the wrapped store.
func (c *Chain) Append(ctx context.Context, event model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.head
	hash, err := contentHash(event, prev)
	if err != nil {
		return fmt.Errorf("eventstore: chain hash: %w", err)
	}

	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	event.Payload[chainPrevKey] = prev
	event.Payload[chainHashKey] = hash

	if err := c.inner.Append(ctx, event); err != nil {
		return err
	}
	c.head = hash
	return nil
}

func (c *Chain) All(ctx context.Context) ([]model.Event, error) {
	return c.inner.All(ctx)
}

func (c *Chain) ForEntity(ctx context.Context, entityKind, entityID string) ([]model.Event, error) {
	return c.inner.ForEntity(ctx, entityKind, entityID)
}

// Head returns the current chain head hash.
func (c *Chain) Head() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// Verify replays the wrapped store's full event log and confirms the hash
// chain is unbroken. It returns false and a diagnostic at the first break.
func Verify(ctx context.Context, store EventStore) (bool, string) {
	events, err := store.All(ctx)
	if err != nil {
		return false, fmt.Sprintf("eventstore: verify: read all: %v", err)
	}

	prev := genesisHash
	for i, e := range events {
		wantPrev, _ := e.Payload[chainPrevKey].(string)
		wantHash, _ := e.Payload[chainHashKey].(string)

		if wantPrev != prev {
			return false, fmt.Sprintf("chain broken at event %d (%s): expected prev %s, got %s", i, e.ID, prev, wantPrev)
		}

		stripped := stripChainMetadata(e)
		recomputed, err := contentHash(stripped, prev)
		if err != nil {
			return false, fmt.Sprintf("chain broken at event %d (%s): %v", i, e.ID, err)
		}
		if recomputed != wantHash {
			return false, fmt.Sprintf("chain broken at event %d (%s): content hash mismatch", i, e.ID)
		}

		prev = wantHash
	}
	return true, ""
}

func stripChainMetadata(e model.Event) model.Event {
	payload := make(map[string]any, len(e.Payload))
	for k, v := range e.Payload {
		if k == chainHashKey || k == chainPrevKey {
			continue
		}
		payload[k] = v
	}
	e.Payload = payload
	return e
}

func contentHash(event model.Event, prevHash string) (string, error) {
	input := map[string]any{
		"id":          event.ID,
		"timestamp":   event.Timestamp,
		"kind":        event.Kind,
		"entity_kind": event.EntityKind,
		"entity_id":   event.EntityID,
		"payload":     event.Payload,
		"actor":       event.Actor,
		"prev":        prevHash,
	}
	return canon.CanonicalHash(input)
}
