package storefront

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cumbre/internal/cart"
	"cumbre/internal/checkout"
	"cumbre/internal/domain"
	"cumbre/internal/session"
	"cumbre/internal/trip"
)

// Visitor groups the state of one browser session. Identity flows explicitly
// from Session into Cart and Checkout.
type Visitor struct {
	ID       string
	Session  *session.Provider
	Cart     *cart.Store
	Checkout *checkout.Orchestrator
	Browser  *trip.Browser

	logger   *zap.Logger
	lastSeen atomic.Int64
}

func (v *Visitor) touch(now time.Time) {
	v.lastSeen.Store(now.UnixNano())
}

func (v *Visitor) LastSeen() time.Time {
	return time.Unix(0, v.lastSeen.Load())
}

// restore brings back a persisted login and its cart. Failures leave the
// visitor anonymous.
func (v *Visitor) restore(ctx context.Context) {
	if err := v.Session.Restore(ctx); err != nil {
		v.logger.Warn("failed to restore session", zap.Error(err))
		return
	}
	v.reloadCart(ctx)
}

func (v *Visitor) reloadCart(ctx context.Context) {
	if v.Session.CurrentUser() == nil {
		return
	}
	if err := v.Cart.Load(ctx); err != nil {
		v.logger.Warn("failed to load cart", zap.Error(err))
	}
}

func (v *Visitor) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := v.Session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	v.reloadCart(ctx)
	return user, nil
}

func (v *Visitor) Register(ctx context.Context, in session.RegisterInput) (*domain.User, error) {
	user, err := v.Session.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	v.reloadCart(ctx)
	return user, nil
}

// Logout drops the checkout and the local cart together with the identity.
func (v *Visitor) Logout(ctx context.Context) error {
	v.Checkout.Discard()
	v.Cart.Reset()
	return v.Session.Logout(ctx)
}

func (v *Visitor) HandleOAuthCallback(ctx context.Context, rawURL string) (string, error) {
	clean, err := v.Session.HandleOAuthCallback(ctx, rawURL)
	if err != nil {
		return "", err
	}
	v.reloadCart(ctx)
	return clean, nil
}

func (v *Visitor) close() {
	v.Browser.Close()
	v.Checkout.Discard()
}
