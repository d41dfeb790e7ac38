package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ports "budge/internal/sheets"
)

// Store keeps exported snapshots in process. It backs local runs and tests.
type Store struct {
	mu    sync.Mutex
	items []ports.Snapshot
}

var _ ports.SummaryExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Export records the snapshot and returns a synthetic reference.
func (s *Store) Export(_ context.Context, snap ports.Snapshot) (string, error) {
	if snap.UserID == "" {
		return "", errors.New("snapshot without user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Categories = append(snap.Categories[:0:0], snap.Categories...)
	s.items = append(s.items, snap)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Snapshots returns a copy of every exported snapshot, oldest first.
func (s *Store) Snapshots() []ports.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Snapshot(nil), s.items...)
}

// Latest returns the most recent snapshot exported for userID.
func (s *Store) Latest(userID string) (ports.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserID == userID {
			return s.items[i], true
		}
	}
	return ports.Snapshot{}, false
}
