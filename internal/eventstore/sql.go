package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// Dialect names the placeholder convention of the underlying driver:
// Postgres uses "$n", SQLite uses "?".
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS ledgerly_events (
	id TEXT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	kind TEXT NOT NULL,
	entity_kind TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	payload JSONB NOT NULL,
	actor_kind TEXT NOT NULL,
	actor_id TEXT NOT NULL
);
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS ledgerly_events (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	kind TEXT NOT NULL,
	entity_kind TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	actor_kind TEXT NOT NULL,
	actor_id TEXT NOT NULL
);
`

// SQLEventStore implements EventStore over database/sql, backed by either
// Postgres (lib/pq) or pure-Go SQLite (modernc.org/sqlite).
type SQLEventStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenPostgres opens a Postgres-backed SQLEventStore and ensures its
// schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*SQLEventStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open postgres: %w", err)
	}
	s := &SQLEventStore{db: db, dialect: DialectPostgres}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens a SQLite-backed SQLEventStore and ensures its schema
// exists. path may be a file path or ":memory:".
func OpenSQLite(ctx context.Context, path string) (*SQLEventStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open sqlite: %w", err)
	}
	s := &SQLEventStore{db: db, dialect: DialectSQLite}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQLEventStore wraps an already-open *sql.DB (used by tests against
// go-sqlmock, where Open* would try to reach a real driver).
func NewSQLEventStore(db *sql.DB, dialect Dialect) *SQLEventStore {
	return &SQLEventStore{db: db, dialect: dialect}
}

func (s *SQLEventStore) init(ctx context.Context) error {
	schema := schemaPostgres
	if s.dialect == DialectSQLite {
		schema = schemaSQLite
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("eventstore: init schema: %w", err)
	}
	return nil
}

func (s *SQLEventStore) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLEventStore) Append(ctx context.Context, event model.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("eventstore: marshal payload: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO ledgerly_events (id, timestamp, kind, entity_kind, entity_id, payload, actor_kind, actor_id)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
		s.placeholder(5), s.placeholder(6), s.placeholder(7), s.placeholder(8),
	)

	_, err = s.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, string(event.Kind), event.EntityKind, event.EntityID,
		string(payload), string(event.Actor.Kind), event.Actor.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("eventstore: append: %w", err)
	}
	return nil
}

func (s *SQLEventStore) All(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, kind, entity_kind, entity_id, payload, actor_kind, actor_id
		 FROM ledgerly_events ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("eventstore: query all: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLEventStore) ForEntity(ctx context.Context, entityKind, entityID string) ([]model.Event, error) {
	query := fmt.Sprintf(
		`SELECT id, timestamp, kind, entity_kind, entity_id, payload, actor_kind, actor_id
		 FROM ledgerly_events WHERE entity_kind = %s AND entity_id = %s
		 ORDER BY timestamp ASC, id ASC`,
		s.placeholder(1), s.placeholder(2))

	rows, err := s.db.QueryContext(ctx, query, entityKind, entityID)
	if err != nil {
		return nil, fmt.Errorf("eventstore: query for entity: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var out []model.Event
	for rows.Next() {
		var (
			e          model.Event
			kind       string
			payload    string
			actorKind  string
			actorID    string
			timestamp  time.Time
		)
		if err := rows.Scan(&e.ID, &timestamp, &kind, &e.EntityKind, &e.EntityID, &payload, &actorKind, &actorID); err != nil {
			return nil, fmt.Errorf("eventstore: scan: %w", err)
		}
		e.Timestamp = timestamp
		e.Kind = model.EventKind(kind)
		e.Actor = model.Actor{Kind: model.ActorKind(actorKind), ID: actorID}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("eventstore: unmarshal payload: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isUniqueViolation recognizes a primary-key conflict across both
// supported drivers without importing their error types directly: an
// identity collision at the storage boundary is an idempotent duplicate,
// not an error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
