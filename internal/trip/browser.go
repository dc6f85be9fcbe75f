package trip

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cumbre/internal/debounce"
	apperrors "cumbre/internal/errors"
)

type Lister interface {
	List(ctx context.Context, f Filters) (*Page, error)
}

// BrowseResult is the outcome of the latest filter query.
type BrowseResult struct {
	Seq       uint64
	Filters   Filters
	Page      *Page
	Err       error
	UpdatedAt time.Time
}

// Browser is a visitor's filter session. Filter changes are debounced and
// every query supersedes the one before it: its context is cancelled and a
// result arriving late is dropped.
type Browser struct {
	lister    Lister
	debouncer *debounce.Debouncer
	logger    *zap.Logger
	nowFunc   func() time.Time

	mu       sync.Mutex
	filters  Filters
	seq      uint64
	cancel   context.CancelFunc
	inFlight bool
	latest   *BrowseResult
	closed   bool
}

func NewBrowser(lister Lister, delay time.Duration, logger *zap.Logger) *Browser {
	return &Browser{
		lister:    lister,
		debouncer: debounce.New(delay),
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// SetFilters records f and schedules a query once filters stop changing.
// Invalid filters are rejected immediately.
func (b *Browser) SetFilters(f Filters) error {
	if err := f.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return apperrors.NewConflictError("browser is closed")
	}
	b.filters = f
	b.mu.Unlock()

	b.debouncer.Trigger(func() { b.run(f) })
	return nil
}

// Refresh runs the pending query now, or re-runs the current filters when
// nothing is pending.
func (b *Browser) Refresh() {
	if b.debouncer.Flush() {
		return
	}
	b.mu.Lock()
	f, closed := b.filters, b.closed
	b.mu.Unlock()
	if !closed {
		b.run(f)
	}
}

func (b *Browser) run(f Filters) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.seq++
	seq := b.seq
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.inFlight = true
	b.mu.Unlock()

	page, err := b.lister.List(ctx, f)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		b.logger.Debug("discarding superseded trip query", zap.Uint64("seq", seq), zap.Uint64("latest", b.seq))
		cancel()
		return
	}
	cancel()
	b.cancel = nil
	b.inFlight = false
	if err != nil {
		b.logger.Warn("trip query failed", zap.Uint64("seq", seq), zap.Error(err))
	}
	b.latest = &BrowseResult{
		Seq:       seq,
		Filters:   f,
		Page:      page,
		Err:       err,
		UpdatedAt: b.nowFunc(),
	}
}

// Latest returns the last published result and whether a newer one is on
// its way (debounce pending or query in flight).
func (b *Browser) Latest() (*BrowseResult, bool) {
	pending := b.debouncer.Pending()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return nil, pending || b.inFlight
	}
	r := *b.latest
	return &r, pending || b.inFlight
}

func (b *Browser) Filters() Filters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters
}

// Close stops the debounce timer and cancels any in-flight query.
func (b *Browser) Close() {
	b.debouncer.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.inFlight = false
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
