package playlist

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps the playlist in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore returns a store seeded with a copy of entries.
func NewMemoryStore(entries ...Entry) *MemoryStore {
	return &MemoryStore{entries: append([]Entry(nil), entries...)}
}

func (m *MemoryStore) All(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...), nil
}

func (m *MemoryStore) ReplaceAll(_ context.Context, entries []Entry) error {
	if err := checkUniqueIDs(entries); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]Entry(nil), entries...)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := Find(m.entries, id); idx >= 0 {
		return m.entries[idx], nil
	}
	return Entry{}, ErrNotFound
}

func (m *MemoryStore) Append(_ context.Context, entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("append entry: missing id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if Find(m.entries, entry.ID) >= 0 {
		return fmt.Errorf("append entry: duplicate id %s", entry.ID)
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := Find(m.entries, id)
	if idx < 0 {
		return false, nil
	}
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	return true, nil
}

func (m *MemoryStore) RemoveWhere(_ context.Context, match func(Entry) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0:0]
	for _, entry := range m.entries {
		if !match(entry) {
			kept = append(kept, entry)
		}
	}
	removed := len(m.entries) - len(kept)
	m.entries = kept
	return removed, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Entry) error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := Find(m.entries, id)
	if idx < 0 {
		return false, nil
	}
	working := m.entries[idx]
	if err := fn(&working); err != nil {
		return true, err
	}
	working.ID = id
	working.UpdatedAt = time.Now().UTC()
	m.entries[idx] = working
	return true, nil
}

func checkUniqueIDs(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			return fmt.Errorf("replace playlist: entry %q has no id", entry.Name)
		}
		if _, ok := seen[entry.ID]; ok {
			return fmt.Errorf("replace playlist: duplicate id %s", entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}
	return nil
}
