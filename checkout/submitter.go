package checkout

import (
	"context"
	"time"

	"github.com/pedrignacio/tu-kiosko/models"
)

// OrderSubmitter hands a built order to whatever places it. A nil error means the
// order is confirmed and the cart may be cleared.
type OrderSubmitter interface {
	Submit(ctx context.Context, order models.Order) error
}

// DelaySubmitter stands in for order processing with a fixed pause. It fails only
// when ctx ends first.
type DelaySubmitter struct {
	Delay time.Duration
}

func (d DelaySubmitter) Submit(ctx context.Context, order models.Order) error {
	if d.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type OrderPublisher interface {
	PublishOrder(ctx context.Context, order models.Order) error
}

// PublishSubmitter places orders on the order queue and waits for the broker confirm.
type PublishSubmitter struct {
	Publisher OrderPublisher
}

func (p PublishSubmitter) Submit(ctx context.Context, order models.Order) error {
	return p.Publisher.PublishOrder(ctx, order)
}
