package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

// StatusChecker is the single payments call the poller repeats.
type StatusChecker interface {
	CheckStatus(ctx context.Context, paymentID int64) (*model.Payment, error)
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Payments  StatusChecker
	PaymentID int64
	// InitialStatus is the last status the caller observed; change
	// detection compares against it.
	InitialStatus model.PaymentStatus
	Interval      time.Duration
	// OnChange runs for every check whose status differs from the
	// previously observed one, so the parent view can refresh.
	OnChange func(model.Payment)
	Notifier Notifier
	Logger   *zap.Logger
}

// Poller keeps a pending payment's status fresh. It is an explicit
// cancellable task: Activate starts it, Deactivate (or context cancel, or
// a terminal status) stops it. It is independent of any UI lifecycle.
type Poller struct {
	payments  StatusChecker
	paymentID int64
	interval  time.Duration
	onChange  func(model.Payment)
	notifier  Notifier
	logger    *zap.Logger

	mu       sync.Mutex
	last     model.PaymentStatus
	checking bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPoller(opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		payments:  opts.Payments,
		paymentID: opts.PaymentID,
		interval:  interval,
		onChange:  opts.OnChange,
		notifier:  notifier,
		logger:    logger,
		last:      opts.InitialStatus,
	}
}

// NewOrderPoller resolves the authoritative (most recent) payment of an
// order and builds a poller for it. It returns nil when auto-checking does
// not apply: the order is not pending, it has no payments, or the latest
// payment already reached a terminal status.
func NewOrderPoller(ctx context.Context, payments Payments, order *model.Order, opts PollerOptions) (*Poller, error) {
	if order == nil || order.Status != model.OrderStatusPending {
		return nil, nil
	}

	attempts, err := payments.ByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	latest := attempts[0]
	if latest.Status != model.PaymentStatusPending {
		return nil, nil
	}

	opts.Payments = payments
	opts.PaymentID = latest.ID
	opts.InitialStatus = latest.Status
	return NewPoller(opts), nil
}

// Activate starts the polling loop: one immediate check, then one per
// interval. It is a no-op when the poller is already running.
func (p *Poller) Activate(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go p.run(ctx, done)
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	if p.check(ctx, false) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.check(ctx, false) {
				return
			}
		}
	}
}

// Deactivate stops the loop and waits for it to wind down. Safe to call
// repeatedly and before Activate.
func (p *Poller) Deactivate() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done exposes completion of the polling loop. It returns a nil channel
// (blocking forever) before Activate.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Active reports whether the polling loop is still running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return p.cancel != nil
	}
}

// Refresh is the manual check. It shares the status call with the
// automatic tick but always surfaces a notification, even when nothing
// changed.
func (p *Poller) Refresh(ctx context.Context) {
	p.check(ctx, true)
}

// check performs one status request and returns true when polling should
// stop. A failed check is never fatal: silently logged on the automatic
// path, surfaced on the manual one.
func (p *Poller) check(ctx context.Context, manual bool) bool {
	p.mu.Lock()
	if p.checking {
		p.mu.Unlock()
		return false
	}
	p.checking = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.checking = false
		p.mu.Unlock()
	}()

	payment, err := p.payments.CheckStatus(ctx, p.paymentID)
	if err != nil {
		p.logger.Warn("payment status check failed",
			zap.Int64("payment_id", p.paymentID),
			zap.Bool("manual", manual),
			zap.Error(err))
		if manual {
			p.notifier.Error("failed to check payment status")
		}
		return false
	}

	p.mu.Lock()
	changed := payment.Status != p.last
	p.last = payment.Status
	p.mu.Unlock()

	if changed || manual {
		p.notify(payment.Status)
	}
	if changed && p.onChange != nil {
		p.onChange(*payment)
	}

	return payment.Status.Terminal()
}

func (p *Poller) notify(status model.PaymentStatus) {
	switch status {
	case model.PaymentStatusSuccess:
		p.notifier.Success("payment confirmed")
	case model.PaymentStatusFailed:
		p.notifier.Error("payment failed")
	case model.PaymentStatusExpired:
		p.notifier.Error("payment expired")
	default:
		p.notifier.Info("no payment received yet")
	}
}
