package trip

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cumbre/internal/backend"
	"cumbre/internal/domain"
)

const listCachePrefix = "trips:list:"

type Backend interface {
	ListTrips(ctx context.Context, q backend.TripQuery) (*backend.TripPage, error)
	GetTrip(ctx context.Context, id int) (*domain.Trip, error)
	SimilarTrips(ctx context.Context, id int) ([]domain.Trip, error)
}

// Page is one listing result after the local filters were applied.
// Pagination is the backend's and counts trips before local filtering.
type Page struct {
	Trips      []domain.Trip
	Pagination backend.Pagination
}

type Catalog struct {
	api    Backend
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalog(api Backend, cache Cache, ttl time.Duration, logger *zap.Logger) *Catalog {
	if cache == nil {
		cache = NopCache{}
	}
	return &Catalog{api: api, cache: cache, ttl: ttl, logger: logger}
}

func (c *Catalog) List(ctx context.Context, f Filters) (*Page, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	q := f.Query()
	key := listCachePrefix + q.Values().Encode()

	var cached backend.TripPage
	if c.ttl > 0 && c.cache.Get(ctx, key, &cached) {
		c.logger.Debug("trip listing served from cache", zap.String("key", key))
		return filterPage(&cached, f), nil
	}

	page, err := c.api.ListTrips(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	if c.ttl > 0 {
		c.cache.Set(ctx, key, page, c.ttl)
	}

	return filterPage(page, f), nil
}

func (c *Catalog) Get(ctx context.Context, id int) (*domain.Trip, error) {
	t, err := c.api.GetTrip(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting trip %d: %w", id, err)
	}
	normalized := normalize(*t)
	return &normalized, nil
}

func (c *Catalog) Similar(ctx context.Context, id int) ([]domain.Trip, error) {
	trips, err := c.api.SimilarTrips(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting trips similar to %d: %w", id, err)
	}
	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		out = append(out, normalize(t))
	}
	return out, nil
}

// InvalidateListings drops every cached listing, e.g. after bookings changed
// remaining capacity.
func (c *Catalog) InvalidateListings(ctx context.Context) {
	c.cache.DelPattern(ctx, listCachePrefix+"*")
}

func filterPage(page *backend.TripPage, f Filters) *Page {
	out := &Page{Pagination: page.Pagination, Trips: make([]domain.Trip, 0, len(page.Trips))}
	for _, t := range page.Trips {
		t = normalize(t)
		if f.Matches(t) {
			out.Trips = append(out.Trips, t)
		}
	}
	return out
}

func normalize(t domain.Trip) domain.Trip {
	if len(t.DepartureDates) == 0 {
		return t
	}
	deps := make([]domain.DepartureDate, len(t.DepartureDates))
	for i, d := range t.DepartureDates {
		deps[i] = d.Normalize()
	}
	t.DepartureDates = deps
	return t
}
