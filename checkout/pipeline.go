// Package checkout turns a session's cart and shipping form into a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/pedrignacio/tu-kiosko/validators"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrSubmitFailed       = errors.New("order submission failed")
	// ErrCartNotCleared accompanies a placed order whose lines could not be taken out of the cart.
	ErrCartNotCleared = errors.New("order placed but cart not cleared")
)

// Cart is the part of a cart store the pipeline needs.
type Cart interface {
	Snapshot() models.Cart
	RemoveLines(ctx context.Context, lines []models.CartItem) error
}

type Config struct {
	Pricing       Pricing
	SubmitTimeout time.Duration
	MaxRetries    int
	// NewBackOff builds the retry schedule for one submission; nil means exponential.
	NewBackOff func() backoff.BackOff
	Now        func() time.Time
}

type session struct {
	state        State
	confirmation *models.Confirmation
	touched      time.Time
}

type Pipeline struct {
	cfg       Config
	submitter OrderSubmitter
	orders    orders.Store
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewPipeline(cfg Config, submitter OrderSubmitter, store orders.Store, logger *zap.Logger) *Pipeline {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.NewBackOff == nil {
		cfg.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		cfg:       cfg,
		submitter: submitter,
		orders:    store,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

func (p *Pipeline) Pricing() Pricing {
	return p.cfg.Pricing
}

// Quote prices the cart for the checkout summary.
func (p *Pipeline) Quote(c Cart) (models.Quote, error) {
	snap := c.Snapshot()
	if len(snap.Items) == 0 {
		return models.Quote{}, ErrEmptyCart
	}
	return p.cfg.Pricing.Quote(snap), nil
}

// State reports where the session's checkout currently is.
func (p *Pipeline) State(sessionID string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[sessionID]; ok {
		return s.state
	}
	return StateIdle
}

// LastConfirmation returns the confirmation of the session's most recent order.
func (p *Pipeline) LastConfirmation(sessionID string) (models.Confirmation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	if !ok || s.confirmation == nil {
		return models.Confirmation{}, false
	}
	return *s.confirmation, true
}

// Submit validates the form, places the order and, once it is confirmed and
// recorded, takes the ordered lines out of the cart. Validation and submission
// failures leave the cart as it was. Once processing starts it runs to completion
// even if ctx is cancelled. If the order is placed but the cart cannot be updated,
// the order is returned together with ErrCartNotCleared.
func (p *Pipeline) Submit(ctx context.Context, sessionID string, c Cart, form models.ShippingForm) (models.Order, error) {
	snap := c.Snapshot()
	if len(snap.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	if err := p.begin(sessionID); err != nil {
		return models.Order{}, err
	}

	if err := validators.ValidateShippingForm(form); err != nil {
		p.finish(sessionID, StateIdle, nil)
		return models.Order{}, err
	}

	p.setState(sessionID, StateProcessing)
	work := context.WithoutCancel(ctx)
	order := p.buildOrder(sessionID, snap, form)
	log := p.logger.With(zap.String("session_id", sessionID), zap.String("order_id", order.OrderID))
	log.Info("processing order", zap.String("total", order.TotalAmount.String()))

	if err := p.retry(work, "submit", func(attemptCtx context.Context) error {
		return p.submitter.Submit(attemptCtx, order)
	}); err != nil {
		log.Warn("order submission failed", zap.Error(err))
		p.finish(sessionID, StateFailed, nil)
		return models.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	if err := p.retry(work, "record", func(attemptCtx context.Context) error {
		return p.orders.Save(attemptCtx, order)
	}); err != nil {
		log.Error("failed to record order", zap.Error(err))
		p.finish(sessionID, StateFailed, nil)
		return models.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	err := p.retry(work, "clear cart", func(attemptCtx context.Context) error {
		return c.RemoveLines(attemptCtx, snap.Items)
	})
	confirmation := order.Confirmation()
	p.finish(sessionID, StateCompleted, &confirmation)
	if err != nil {
		log.Error("order placed but cart could not be cleared", zap.Error(err))
		return order, fmt.Errorf("%w: %v", ErrCartNotCleared, err)
	}

	log.Info("order confirmed")
	return order, nil
}

// retry runs op with a per-attempt timeout and the configured backoff schedule.
func (p *Pipeline) retry(ctx context.Context, step string, op func(context.Context) error) error {
	attempt := 0
	b := backoff.WithContext(backoff.WithMaxRetries(p.cfg.NewBackOff(), uint64(p.cfg.MaxRetries)), ctx)
	return backoff.Retry(func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.SubmitTimeout)
		defer cancel()
		err := op(attemptCtx)
		if err != nil {
			p.logger.Debug("attempt failed", zap.String("step", step), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}, b)
}

func (p *Pipeline) buildOrder(sessionID string, snap models.Cart, form models.ShippingForm) models.Order {
	now := p.cfg.Now().UTC()
	shipping := p.cfg.Pricing.ShippingCost(snap.Subtotal)
	return models.Order{
		OrderID:      NewOrderID(now),
		SessionID:    sessionID,
		Status:       models.OrderStatusConfirmed,
		CustomerName: form.Name,
		Email:        form.Email,
		Phone:        form.Phone,
		Address:      form.Address,
		Items:        snap.Items,
		Subtotal:     snap.Subtotal,
		ShippingCost: shipping,
		TotalAmount:  snap.Subtotal.Add(shipping),
		CreatedAt:    now,
	}
}

// NewOrderID returns a time-ordered token that is unique per call.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

func (p *Pipeline) begin(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		s = &session{state: StateIdle}
		p.sessions[sessionID] = s
	}
	if s.state.busy() {
		return ErrCheckoutInProgress
	}
	s.state = StateValidating
	s.touched = p.cfg.Now()
	return nil
}

func (p *Pipeline) setState(sessionID string, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID].state = state
}

func (p *Pipeline) finish(sessionID string, state State, confirmation *models.Confirmation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sessions[sessionID]
	s.state = state
	s.touched = p.cfg.Now()
	if confirmation != nil {
		s.confirmation = confirmation
	}
}

// Sweep forgets sessions that have not checked out for longer than idle,
// leaving any checkout still in flight alone.
func (p *Pipeline) Sweep(idle time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.cfg.Now().Add(-idle)
	dropped := 0
	for id, s := range p.sessions {
		if !s.state.busy() && s.touched.Before(cutoff) {
			delete(p.sessions, id)
			dropped++
		}
	}
	return dropped
}

func (s State) busy() bool {
	return s == StateValidating || s == StateProcessing
}
