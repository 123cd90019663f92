package notifications

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/notification"
)

// maxNotifyBurst caps how many notifications the limiter lets through
// back to back before the per-minute rate takes over.
const maxNotifyBurst = 5

// RateLimitedNotifier wraps another notifier with a per-minute budget.
// Over-budget notifications are dropped with a debug log; the dispatch
// path never blocks on the limiter.
type RateLimitedNotifier struct {
	inner   ports.DesktopNotifier
	limiter *rate.Limiter
	logger  ports.LoggingGateway
	dropped int64
}

// NewRateLimitedNotifier wraps inner with a perMinute budget. A zero or
// negative budget means unlimited and returns inner unwrapped.
func NewRateLimitedNotifier(inner ports.DesktopNotifier, perMinute int, logger ports.LoggingGateway) ports.DesktopNotifier {
	if perMinute <= 0 {
		return inner
	}

	burst := perMinute
	if burst > maxNotifyBurst {
		burst = maxNotifyBurst
	}

	return &RateLimitedNotifier{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		logger:  logger,
	}
}

// RequestPermission delegates to the wrapped notifier
func (n *RateLimitedNotifier) RequestPermission(ctx context.Context) error {
	return n.inner.RequestPermission(ctx)
}

// Show forwards the decision unless the budget is exhausted
func (n *RateLimitedNotifier) Show(ctx context.Context, decision notification.Decision) error {
	if !n.limiter.Allow() {
		atomic.AddInt64(&n.dropped, 1)
		if n.logger != nil {
			n.logger.Log(ports.LogLevelDebug, "Desktop notification dropped by rate limit", map[string]interface{}{
				"item_id": decision.ItemID.Value(),
				"service": decision.ServiceID.String(),
			})
		}
		return nil
	}

	return n.inner.Show(ctx, decision)
}

// Name identifies the wrapped channel for logs
func (n *RateLimitedNotifier) Name() string {
	return n.inner.Name()
}

// Dropped returns how many notifications the limiter discarded
func (n *RateLimitedNotifier) Dropped() int64 {
	return atomic.LoadInt64(&n.dropped)
}
