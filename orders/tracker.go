package orders

import (
	"sync"

	"github.com/pedrignacio/tu-kiosko/models"
	"go.uber.org/zap"
)

// Tracker counts processed orders and units per product. Each order ID is
// counted once.
type Tracker struct {
	mu                sync.Mutex
	totalOrders       int64
	productQuantities map[string]int64
	seen              map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		productQuantities: make(map[string]int64),
		seen:              make(map[string]struct{}),
	}
}

// RecordOrder adds the order to the tallies and returns the running total.
// The second result is false when the order was already recorded.
func (t *Tracker) RecordOrder(order models.Order) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[order.OrderID]; dup {
		return t.totalOrders, false
	}
	t.seen[order.OrderID] = struct{}{}
	t.totalOrders++
	for _, item := range order.Items {
		t.productQuantities[item.ID] += int64(item.Quantity)
	}
	return t.totalOrders, true
}

func (t *Tracker) TotalOrders() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalOrders
}

func (t *Tracker) ProductQuantity(productID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.productQuantities[productID]
}

// LogSummary writes the final tallies, typically on shutdown.
func (t *Tracker) LogSummary(logger *zap.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger.Info("order summary",
		zap.Int64("total_orders", t.totalOrders),
		zap.Int("distinct_products", len(t.productQuantities)),
	)
	for productID, quantity := range t.productQuantities {
		logger.Debug("product units", zap.String("product_id", productID), zap.Int64("units", quantity))
	}
}
