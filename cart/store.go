// Package cart implements the per-session shopping cart: distinct line items
// in insertion order, written through to a statestore.Backend on every change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/statestore"
	"github.com/shopspring/decimal"
)

const KeyPrefix = "cart-storage"

type persistedCart struct {
	Items []models.CartItem `json:"items"`
}

// Store is one cart. All mutations build the next item list, persist it, and only
// then swap it in, so a failed write leaves the previous state intact.
type Store struct {
	mu      sync.Mutex
	key     string
	backend statestore.Backend
	items   []models.CartItem
}

// Open loads the cart stored under key, or starts an empty one.
func Open(ctx context.Context, backend statestore.Backend, key string) (*Store, error) {
	s := &Store{
		key:     key,
		backend: backend,
		items:   []models.CartItem{},
	}

	data, err := backend.Load(ctx, key)
	if errors.Is(err, statestore.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}

	var p persistedCart
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", key, err)
	}
	for _, item := range p.Items {
		if item.Quantity > 0 {
			s.items = append(s.items, item)
		}
	}
	return s, nil
}

func (s *Store) Key() string {
	return s.key
}

// AddItem appends the product with quantity 1, or bumps an existing line by 1.
func (s *Store) AddItem(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneItems()
	if idx := indexOf(next, p.ID); idx >= 0 {
		next[idx].Quantity++
	} else {
		next = append(next, models.NewCartItem(p, 1))
	}
	return s.commit(ctx, next)
}

// RemoveItem drops the line for id. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(ctx, id)
}

// UpdateQuantity sets the line's quantity to exactly quantity; quantity <= 0 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, id)
	}

	idx := indexOf(s.items, id)
	if idx < 0 {
		return nil
	}
	if s.items[idx].Quantity == quantity {
		return nil
	}
	next := s.cloneItems()
	next[idx].Quantity = quantity
	return s.commit(ctx, next)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, []models.CartItem{})
}

// RemoveLines subtracts the given lines' quantities from the cart, dropping lines
// that reach zero. Items added after the lines were captured stay in the cart.
func (s *Store) RemoveLines(ctx context.Context, lines []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneItems()
	for _, line := range lines {
		if idx := indexOf(next, line.ID); idx >= 0 {
			next[idx].Quantity -= line.Quantity
		}
	}
	kept := next[:0]
	for _, item := range next {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return s.commit(ctx, kept)
}

// Snapshot returns a copy of the items with totals derived from them.
func (s *Store) Snapshot() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.items)
}

func (s *Store) Total() decimal.Decimal {
	return s.Snapshot().Subtotal
}

func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

func (s *Store) removeLocked(ctx context.Context, id string) error {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return nil
	}
	next := make([]models.CartItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	return s.commit(ctx, next)
}

func (s *Store) commit(ctx context.Context, next []models.CartItem) error {
	data, err := json.Marshal(persistedCart{Items: next})
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", s.key, err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist cart %s: %w", s.key, err)
	}
	s.items = next
	return nil
}

func (s *Store) cloneItems() []models.CartItem {
	out := make([]models.CartItem, len(s.items), len(s.items)+1)
	copy(out, s.items)
	return out
}

func indexOf(items []models.CartItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
