package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

// MemorySource is an in-process catalog, kept in insertion order.
type MemorySource struct {
	mu       sync.RWMutex
	products map[string]models.Product
	order    []string
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		products: make(map[string]models.Product),
	}
}

// Create stores a new product and assigns it an id if it has none.
func (m *MemorySource) Create(ctx context.Context, p models.Product) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if p.Name == "" || p.Category == "" || p.Price.IsNegative() || p.Quantity < 0 {
		return models.Product{}, ErrInvalidProduct
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == nil {
		now := time.Now().UTC()
		p.CreatedAt = &now
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *MemorySource) List(ctx context.Context, category string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.Product{}
	for _, id := range m.order {
		p := m.products[id]
		if !isAll(category) && p.Category != category {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *MemorySource) Get(ctx context.Context, id string) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemorySource) Related(ctx context.Context, category, excludeID string, limit int) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.Product{}
	for _, id := range m.order {
		if limit > 0 && len(result) >= limit {
			break
		}
		p := m.products[id]
		if p.ID == excludeID || p.Category != category {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// Seed loads a small starter assortment.
func (m *MemorySource) Seed(ctx context.Context) error {
	seed := []models.Product{
		{Name: "Coca-Cola 1.5L", Description: "Bebida gaseosa", Price: decimal.NewFromInt(1990), Category: "bebidas", Quantity: 40},
		{Name: "Agua mineral 600ml", Description: "Sin gas", Price: decimal.NewFromInt(890), Category: "bebidas", Quantity: 60},
		{Name: "Jugo de naranja 1L", Description: "Natural", Price: decimal.NewFromInt(2490), Category: "bebidas", Quantity: 25},
		{Name: "Papas fritas 250g", Description: "Corte americano", Price: decimal.NewFromInt(2290), Category: "snacks", Quantity: 30},
		{Name: "Maní salado 200g", Description: "Tostado", Price: decimal.NewFromInt(1490), Category: "snacks", Quantity: 35},
		{Name: "Chocolate 150g", Description: "Leche", Price: decimal.NewFromInt(1790), Category: "dulces", Quantity: 50},
		{Name: "Gomitas 100g", Description: "Surtidas", Price: decimal.NewFromInt(990), Category: "dulces", Quantity: 45},
		{Name: "Pan de molde", Description: "Integral", Price: decimal.NewFromInt(2590), Category: "almacen", Quantity: 20},
		{Name: "Café molido 250g", Description: "Tostado medio", Price: decimal.NewFromInt(5990), Category: "almacen", Quantity: 15},
	}
	for _, p := range seed {
		if _, err := m.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
