package eventstore

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

func TestSQLEventStoreAppendPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLEventStore(db, DialectPostgres)

	mock.ExpectExec("INSERT INTO ledgerly_events").
		WithArgs("e1", sqlmock.AnyArg(), "transaction-imported", "transaction", "t1", sqlmock.AnyArg(), "system", "ingest").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Append(context.Background(), model.Event{
		ID:         "e1",
		Timestamp:  time.Now(),
		Kind:       model.EventTransactionImported,
		EntityKind: "transaction",
		EntityID:   "t1",
		Payload:    map[string]any{"x": 1},
		Actor:      model.Actor{Kind: model.ActorSystem, ID: "ingest"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLEventStoreAppendDuplicateIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLEventStore(db, DialectSQLite)

	mock.ExpectExec("INSERT INTO ledgerly_events").
		WillReturnError(&mockUniqueViolation{})

	err = store.Append(context.Background(), model.Event{ID: "dup", Timestamp: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateEvent)
}

type mockUniqueViolation struct{}

func (m *mockUniqueViolation) Error() string { return "UNIQUE constraint failed: ledgerly_events.id" }

func TestSQLEventStoreAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLEventStore(db, DialectSQLite)

	rows := sqlmock.NewRows([]string{"id", "timestamp", "kind", "entity_kind", "entity_id", "payload", "actor_kind", "actor_id"}).
		AddRow("e1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "transaction-imported", "transaction", "t1", `{"x":1}`, "system", "ingest")

	mock.ExpectQuery("SELECT id, timestamp, kind, entity_kind, entity_id, payload, actor_kind, actor_id").
		WillReturnRows(rows)

	events, err := store.All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, model.EventTransactionImported, events[0].Kind)
	assert.Equal(t, float64(1), events[0].Payload["x"])
}
