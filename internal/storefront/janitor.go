package storefront

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredTokenDeleter removes persisted tokens whose expiry has passed.
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RunJanitor closes idle visitors and purges expired session tokens every
// interval until ctx is done. tokens may be nil.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration, tokens ExpiredTokenDeleter) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(ctx, idle, tokens)
		}
	}
}

func (r *Registry) sweepOnce(ctx context.Context, idle time.Duration, tokens ExpiredTokenDeleter) {
	r.Sweep(idle)

	if tokens == nil {
		return
	}
	n, err := tokens.DeleteExpired(ctx, r.nowFunc())
	if err != nil {
		r.logger.Warn("purging expired session tokens failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("expired session tokens purged", zap.Int64("count", n))
	}
}
