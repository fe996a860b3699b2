// Package favorites keeps the per-session set of liked products.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/statestore"
)

const KeyPrefix = "favorites-storage"

var (
	ErrAlreadyFavorite = errors.New("product is already in favorites")
	ErrInvalidSession  = errors.New("invalid session id")
)

type persistedFavorites struct {
	Favorites []models.Product `json:"favorites"`
}

type Store struct {
	mu        sync.Mutex
	key       string
	backend   statestore.Backend
	favorites []models.Product
}

func Open(ctx context.Context, backend statestore.Backend, key string) (*Store, error) {
	s := &Store{
		key:       key,
		backend:   backend,
		favorites: []models.Product{},
	}

	data, err := backend.Load(ctx, key)
	if errors.Is(err, statestore.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites %s: %w", key, err)
	}

	var p persistedFavorites
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode favorites %s: %w", key, err)
	}
	seen := make(map[string]struct{}, len(p.Favorites))
	for _, fav := range p.Favorites {
		if _, dup := seen[fav.ID]; dup {
			continue
		}
		seen[fav.ID] = struct{}{}
		s.favorites = append(s.favorites, fav)
	}
	return s, nil
}

// Add inserts p, or returns ErrAlreadyFavorite if its id is already present.
func (s *Store) Add(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return ErrAlreadyFavorite
	}
	next := make([]models.Product, 0, len(s.favorites)+1)
	next = append(next, s.favorites...)
	next = append(next, p)
	return s.commit(ctx, next)
}

// Remove reports whether a favorite was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := make([]models.Product, 0, len(s.favorites)-1)
	next = append(next, s.favorites[:idx]...)
	next = append(next, s.favorites[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []models.Product{})
}

func (s *Store) List() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, len(s.favorites))
	copy(out, s.favorites)
	return out
}

func (s *Store) indexOf(id string) int {
	for i, fav := range s.favorites {
		if fav.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) commit(ctx context.Context, next []models.Product) error {
	data, err := json.Marshal(persistedFavorites{Favorites: next})
	if err != nil {
		return fmt.Errorf("encode favorites %s: %w", s.key, err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist favorites %s: %w", s.key, err)
	}
	s.favorites = next
	return nil
}

type entry struct {
	store    *Store
	lastUsed time.Time
}

type Manager struct {
	mu      sync.Mutex
	backend statestore.Backend
	sets    map[string]*entry
	now     func() time.Time
}

func NewManager(backend statestore.Backend) *Manager {
	return &Manager{
		backend: backend,
		sets:    make(map[string]*entry),
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

	if e, ok := m.sets[sessionID]; ok {
		e.lastUsed = m.now()
		return e.store, nil
	}
	s, err := Open(ctx, m.backend, KeyPrefix+":"+sessionID)
	if err != nil {
		return nil, err
	}
	m.sets[sessionID] = &entry{store: s, lastUsed: m.now()}
	return s, nil
}

// Sweep drops favorites sets idle for longer than idle; they reload from the backend on demand.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	dropped := 0
	for id, e := range m.sets {
		if e.lastUsed.Before(cutoff) {
			delete(m.sets, id)
			dropped++
		}
	}
	return dropped
}
