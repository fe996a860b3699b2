// Package orders keeps the history of placed orders.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pedrignacio/tu-kiosko/models"
)

var ErrNotFound = errors.New("order not found")

type Store interface {
	Save(ctx context.Context, order models.Order) error
	Get(ctx context.Context, orderID string) (models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]models.Order),
	}
}

func (m *MemoryStore) Save(ctx context.Context, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.OrderID] = order
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, orderID string) (models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Order, error) {
	m.mu.RLock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	m.mu.RUnlock()

	sortByCreated(out)
	return out, nil
}

// RedisStore keeps every order as a JSON field of a single hash.
type RedisStore struct {
	client *redis.Client
	hash   string
}

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "tukiosko"
	}
	return &RedisStore{
		client: client,
		hash:   namespace + ":orders",
	}
}

func (r *RedisStore) Save(ctx context.Context, order models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := r.client.HSet(ctx, r.hash, order.OrderID, data).Err(); err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, orderID string) (models.Order, error) {
	data, err := r.client.HGet(ctx, r.hash, orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	var o models.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal order %s: %w", orderID, err)
	}
	return o, nil
}

func (r *RedisStore) List(ctx context.Context) ([]models.Order, error) {
	all, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	out := make([]models.Order, 0, len(all))
	for id, raw := range all {
		var o models.Order
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order %s: %w", id, err)
		}
		out = append(out, o)
	}
	sortByCreated(out)
	return out, nil
}

func sortByCreated(list []models.Order) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].OrderID < list[j].OrderID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
