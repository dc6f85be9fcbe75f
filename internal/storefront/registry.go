package storefront

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cumbre/internal/cart"
	"cumbre/internal/checkout"
	apperrors "cumbre/internal/errors"
	"cumbre/internal/session"
	"cumbre/internal/trip"
)

// API is the part of the backend a visitor talks to.
type API interface {
	session.AuthBackend
	cart.Backend
	checkout.Backend
}

type Catalog interface {
	trip.Lister
	checkout.ListingInvalidator
}

type Options struct {
	Debounce            time.Duration
	CompensateOnFailure bool
	Publisher           checkout.EventPublisher
}

type entry struct {
	ready   chan struct{}
	visitor *Visitor
}

// Registry owns every live visitor, keyed by session id.
type Registry struct {
	api     API
	tokens  session.TokenRepository
	catalog Catalog
	opts    Options
	logger  *zap.Logger
	nowFunc func() time.Time

	mu       sync.Mutex
	visitors map[string]*entry
	closed   bool
}

func NewRegistry(api API, tokens session.TokenRepository, catalog Catalog, opts Options, logger *zap.Logger) *Registry {
	return &Registry{
		api:      api,
		tokens:   tokens,
		catalog:  catalog,
		opts:     opts,
		logger:   logger,
		nowFunc:  time.Now,
		visitors: make(map[string]*entry),
	}
}

// Open returns the visitor for sessionID, building it and restoring its
// persisted login the first time. Concurrent opens of the same id share one
// visitor.
func (r *Registry) Open(ctx context.Context, sessionID string) (*Visitor, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("missing session id")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, apperrors.NewConflictError("storefront is shutting down")
	}
	if e, ok := r.visitors[sessionID]; ok {
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		e.visitor.touch(r.nowFunc())
		return e.visitor, nil
	}
	e := &entry{ready: make(chan struct{})}
	r.visitors[sessionID] = e
	r.mu.Unlock()

	v := r.newVisitor(sessionID)
	v.restore(ctx)
	v.touch(r.nowFunc())

	e.visitor = v
	close(e.ready)

	r.logger.Debug("visitor opened", zap.String("sessionId", sessionID))
	return v, nil
}

func (r *Registry) newVisitor(sessionID string) *Visitor {
	logger := r.logger.With(zap.String("sessionId", sessionID))

	provider := session.NewProvider(sessionID, r.api, r.tokens, r.logger)
	store := cart.NewStore(r.api, provider, logger)
	orchestrator := checkout.NewOrchestrator(r.api, store, provider, checkout.Options{
		CompensateOnFailure: r.opts.CompensateOnFailure,
		Publisher:           r.opts.Publisher,
		Listings:            r.catalog,
	}, logger)

	return &Visitor{
		ID:       sessionID,
		Session:  provider,
		Cart:     store,
		Checkout: orchestrator,
		Browser:  trip.NewBrowser(r.catalog, r.opts.Debounce, logger),
		logger:   logger,
	}
}

// Close tears down the visitor for sessionID, if present.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	e, ok := r.visitors[sessionID]
	if ok {
		delete(r.visitors, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	<-e.ready
	e.visitor.close()
	r.logger.Debug("visitor closed", zap.String("sessionId", sessionID))
}

// Sweep closes visitors not seen for longer than idle and returns how many.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.nowFunc().Add(-idle)

	r.mu.Lock()
	var stale []*entry
	for id, e := range r.visitors {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.visitor.LastSeen().Before(cutoff) {
			stale = append(stale, e)
			delete(r.visitors, id)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.visitor.close()
	}
	if len(stale) > 0 {
		r.logger.Info("idle visitors closed", zap.Int("count", len(stale)))
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Shutdown closes every visitor and refuses new ones.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	all := r.visitors
	r.visitors = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range all {
		<-e.ready
		e.visitor.close()
	}
	r.logger.Info("storefront registry shut down", zap.Int("visitors", len(all)))
}
