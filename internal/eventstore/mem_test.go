package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

func TestMemEventStoreAppendAndAll(t *testing.T) {
	s := NewMemEventStore()
	ctx := context.Background()

	e1 := model.Event{ID: "e1", Timestamp: time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), Kind: model.EventTransactionImported}
	e2 := model.Event{ID: "e2", Timestamp: time.Date(2024, 1, 1, 0, 0, 2, 0, time.UTC), Kind: model.EventTransactionImported}

	require.NoError(t, s.Append(ctx, e2))
	require.NoError(t, s.Append(ctx, e1))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e1", all[0].ID) // sorted by timestamp, not insertion order
	assert.Equal(t, "e2", all[1].ID)
}

func TestMemEventStoreDuplicateID(t *testing.T) {
	s := NewMemEventStore()
	ctx := context.Background()
	e := model.Event{ID: "dup", Timestamp: time.Now()}

	require.NoError(t, s.Append(ctx, e))
	err := s.Append(ctx, e)
	assert.ErrorIs(t, err, ErrDuplicateEvent)
}

func TestMemEventStoreForEntity(t *testing.T) {
	s := NewMemEventStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, model.Event{ID: "a", EntityKind: "transaction", EntityID: "id-1", Timestamp: time.Now()}))
	require.NoError(t, s.Append(ctx, model.Event{ID: "b", EntityKind: "transaction", EntityID: "id-2", Timestamp: time.Now()}))

	got, err := s.ForEntity(ctx, "transaction", "id-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
