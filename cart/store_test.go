package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/statestore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, price int64) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(price),
		Category: "snacks",
		Quantity: 10,
	}
}

type failingBackend struct {
	statestore.Backend
	fail bool
}

func (f *failingBackend) Save(ctx context.Context, key string, data []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Backend.Save(ctx, key, data)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), statestore.NewMemoryBackend(), "cart-storage:test")
	require.NoError(t, err)
	return s
}

func TestAddDistinctProductsTotals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddItem(ctx, product("a", 1200)))
	require.NoError(t, s.AddItem(ctx, product("b", 800)))
	require.NoError(t, s.AddItem(ctx, product("c", 2500)))

	snap := s.Snapshot()
	assert.Len(t, snap.Items, 3)
	assert.Equal(t, 3, snap.ItemCount)
	assert.True(t, decimal.NewFromInt(4500).Equal(snap.Subtotal), "got %s", snap.Subtotal)
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap.Items))
}

func TestAddSameProductTwiceIncrements(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.AddItem(ctx, product("a", 1000)))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, 2, snap.ItemCount)
	assert.True(t, decimal.NewFromInt(2000).Equal(snap.Subtotal))
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("zero removes", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddItem(ctx, product("a", 1000)))
		require.NoError(t, s.UpdateQuantity(ctx, "a", 0))
		assert.True(t, s.IsEmpty())
		assert.Equal(t, 0, s.ItemCount())
	})

	t.Run("negative removes", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddItem(ctx, product("a", 1000)))
		require.NoError(t, s.AddItem(ctx, product("b", 500)))
		require.NoError(t, s.UpdateQuantity(ctx, "a", -1))
		assert.Equal(t, []string{"b"}, ids(s.Snapshot().Items))
	})

	t.Run("sets exact quantity idempotently", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddItem(ctx, product("a", 1000)))
		require.NoError(t, s.AddItem(ctx, product("a", 1000)))

		require.NoError(t, s.UpdateQuantity(ctx, "a", 3))
		require.NoError(t, s.UpdateQuantity(ctx, "a", 3))

		snap := s.Snapshot()
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 3, snap.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(3000).Equal(snap.Subtotal))
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpdateQuantity(ctx, "missing", 4))
		assert.True(t, s.IsEmpty())
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.AddItem(ctx, product("b", 300)))
	require.NoError(t, s.RemoveItem(ctx, "missing"))
	require.NoError(t, s.RemoveItem(ctx, "a"))

	snap := s.Snapshot()
	assert.Equal(t, []string{"b"}, ids(snap.Items))
	assert.True(t, decimal.NewFromInt(300).Equal(snap.Subtotal))
}

func TestClearResetsTotals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.UpdateQuantity(ctx, "a", 7))
	require.NoError(t, s.Clear(ctx))

	assert.True(t, s.Total().IsZero())
	assert.Equal(t, 0, s.ItemCount())
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	backend := statestore.NewMemoryBackend()

	s, err := Open(ctx, backend, "cart-storage:s1")
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.AddItem(ctx, product("b", 250)))
	require.NoError(t, s.UpdateQuantity(ctx, "b", 4))

	reopened, err := Open(ctx, backend, "cart-storage:s1")
	require.NoError(t, err)

	want, got := s.Snapshot(), reopened.Snapshot()
	assert.Equal(t, ids(want.Items), ids(got.Items))
	assert.Equal(t, want.ItemCount, got.ItemCount)
	assert.True(t, want.Subtotal.Equal(got.Subtotal), "want %s got %s", want.Subtotal, got.Subtotal)
	assert.Equal(t, 4, got.Items[1].Quantity)
}

func TestFailedWriteKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{Backend: statestore.NewMemoryBackend()}

	s, err := Open(ctx, backend, "cart-storage:s1")
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, product("a", 1000)))

	backend.fail = true
	assert.Error(t, s.AddItem(ctx, product("a", 1000)))
	assert.Error(t, s.UpdateQuantity(ctx, "a", 5))
	assert.Error(t, s.Clear(ctx))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(snap.Subtotal))
}

func TestOpenRejectsCorruptState(t *testing.T) {
	ctx := context.Background()
	backend := statestore.NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, "cart-storage:bad", []byte("{not json")))

	_, err := Open(ctx, backend, "cart-storage:bad")
	assert.Error(t, err)
}

func TestFreeShippingRemaining(t *testing.T) {
	threshold := decimal.NewFromInt(10000)
	assert.True(t, decimal.NewFromInt(1).Equal(FreeShippingRemaining(decimal.NewFromInt(9999), threshold)))
	assert.True(t, FreeShippingRemaining(decimal.NewFromInt(10000), threshold).IsZero())
	assert.True(t, FreeShippingRemaining(decimal.NewFromInt(15000), threshold).IsZero())
}

func TestManagerKeepsSessionsIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(statestore.NewMemoryBackend())

	s1, err := m.Get(ctx, "tab-1")
	require.NoError(t, err)
	s2, err := m.Get(ctx, "tab-2")
	require.NoError(t, err)

	require.NoError(t, s1.AddItem(ctx, product("a", 1000)))

	again, err := m.Get(ctx, "tab-1")
	require.NoError(t, err)
	assert.Same(t, s1, again)
	assert.Equal(t, 1, again.ItemCount())
	assert.Equal(t, 0, s2.ItemCount())

	_, err = m.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRemoveLinesKeepsLaterAdditions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.AddItem(ctx, product("b", 500)))
	captured := s.Snapshot().Items

	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.AddItem(ctx, product("late", 300)))

	require.NoError(t, s.RemoveLines(ctx, captured))

	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "late"}, ids(snap.Items))
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1300).Equal(snap.Subtotal))
}

func TestRemoveLinesEmptiesUntouchedCart(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddItem(ctx, product("a", 1000)))
	require.NoError(t, s.UpdateQuantity(ctx, "a", 3))
	require.NoError(t, s.AddItem(ctx, product("b", 500)))

	require.NoError(t, s.RemoveLines(ctx, s.Snapshot().Items))
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Total().IsZero())
}

func TestManagerSweepsIdleCarts(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(statestore.NewMemoryBackend())
	m.now = func() time.Time { return clock }

	idle, err := m.Get(ctx, "idle")
	require.NoError(t, err)
	require.NoError(t, idle.AddItem(ctx, product("a", 1000)))

	clock = clock.Add(45 * time.Minute)
	_, err = m.Get(ctx, "active")
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	assert.Equal(t, 1, m.Sweep(30*time.Minute))
	assert.Equal(t, 1, m.Len())

	reloaded, err := m.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, reloaded)
	assert.Equal(t, 1, reloaded.ItemCount())
}

func ids(items []models.CartItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
