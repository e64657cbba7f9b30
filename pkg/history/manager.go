package history

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
)

// Manager holds the in-memory history and writes it through to a Store.
type Manager struct {
	store Store
	key   string
	max   int

	mu      sync.Mutex
	entries History
}

// NewManager creates a manager with an empty history. Call Load to read the stored list.
func NewManager(store Store, key string, max int) *Manager {
	if key == "" {
		key = DefaultKey
	}
	if max <= 0 {
		max = DefaultMax
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		store:   store,
		key:     key,
		max:     max,
		entries: History{},
	}
}

// Load replaces the in-memory history with the stored one. A missing or
// malformed value leaves the history empty; only store failures are returned.
func (m *Manager) Load(ctx context.Context) error {
	data, err := m.store.Get(ctx, m.key)
	if errors.Is(err, ErrNotFound) {
		m.set(History{})
		return nil
	}
	if err != nil {
		m.set(History{})
		return errors.Wrap(err, "load history")
	}

	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warnf("Ignoring malformed search history under %q: %v", m.key, err)
		m.set(History{})
		return nil
	}

	// re-apply the list rules in case the stored value was edited by hand
	h := History{}
	for i := len(stored) - 1; i >= 0; i-- {
		h = Add(h, stored[i], m.max)
	}
	m.set(h)
	log.Debugf("Loaded %d search history entries", len(h))
	return nil
}

// Add records term and persists the list. The in-memory list is updated
// even when the write fails. Writes are serialized so the stored list never
// lags behind a newer one.
func (m *Manager) Add(ctx context.Context, term string) (History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := Add(m.entries, term, m.max)
	m.entries = next

	data, err := json.Marshal([]string(next))
	if err != nil {
		return next.clone(), errors.Wrap(err, "encode history")
	}
	if err := m.store.Put(ctx, m.key, data); err != nil {
		return next.clone(), errors.Wrap(err, "save history")
	}
	return next.clone(), nil
}

// Clear empties the history and removes the stored value
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = Clear()
	if err := m.store.Delete(ctx, m.key); err != nil {
		return errors.Wrap(err, "clear history")
	}
	return nil
}

// Entries returns a copy of the current history
func (m *Manager) Entries() History {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.clone()
}

func (m *Manager) set(h History) {
	m.mu.Lock()
	m.entries = h
	m.mu.Unlock()
}
