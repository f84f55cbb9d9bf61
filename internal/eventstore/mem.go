package eventstore

import (
	"context"
	"sort"
	"sync"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// MemEventStore is an in-process EventStore backed by a mutex-guarded
// slice and id set, used by tests and by callers that do not need
// cross-process durability.
type MemEventStore struct {
	mu     sync.RWMutex
	events []model.Event
	ids    map[string]bool
}

// NewMemEventStore creates an empty MemEventStore.
func NewMemEventStore() *MemEventStore {
	return &MemEventStore{ids: make(map[string]bool)}
}

func (s *MemEventStore) Append(ctx context.Context, event model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[event.ID] {
		return ErrDuplicateEvent
	}
	s.ids[event.ID] = true
	s.events = append(s.events, event)
	return nil
}

func (s *MemEventStore) All(ctx context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	sortByTimestampThenID(out)
	return out, nil
}

func (s *MemEventStore) ForEntity(ctx context.Context, entityKind, entityID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Event
	for _, e := range s.events {
		if e.EntityKind == entityKind && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sortByTimestampThenID(out)
	return out, nil
}

// sortByTimestampThenID imposes the log's total order: wall-clock event
// timestamp, tie-broken by event identity.
func sortByTimestampThenID(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].ID < events[j].ID
	})
}
