package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pedrignacio/tu-kiosko/statestore"
)

var ErrInvalidSession = errors.New("invalid session id")

type entry struct {
	store    *Store
	lastUsed time.Time
}

// Manager hands out one Store per session, opening it from the backend on first use.
type Manager struct {
	mu      sync.Mutex
	backend statestore.Backend
	carts   map[string]*entry
	now     func() time.Time
}

func NewManager(backend statestore.Backend) *Manager {
	return &Manager{
		backend: backend,
		carts:   make(map[string]*entry),
		now:     time.Now,
	}
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.carts[sessionID]; ok {
		e.lastUsed = m.now()
		return e.store, nil
	}
	s, err := Open(ctx, m.backend, KeyPrefix+":"+sessionID)
	if err != nil {
		return nil, err
	}
	m.carts[sessionID] = &entry{store: s, lastUsed: m.now()}
	return s, nil
}

// Sweep drops carts not used for longer than idle and returns how many were dropped.
// Their state stays in the backend and is reloaded on the next Get.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	dropped := 0
	for id, e := range m.carts {
		if e.lastUsed.Before(cutoff) {
			delete(m.carts, id)
			dropped++
		}
	}
	return dropped
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}
