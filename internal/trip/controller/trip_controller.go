package controller

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"cumbre/internal/commons"
	"cumbre/internal/domain"
	"cumbre/internal/dto"
	apperrors "cumbre/internal/errors"
	"cumbre/internal/trip"
)

type Catalog interface {
	List(ctx context.Context, f trip.Filters) (*trip.Page, error)
	Get(ctx context.Context, id int) (*domain.Trip, error)
	Similar(ctx context.Context, id int) ([]domain.Trip, error)
}

type TripController struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewTripController(catalog Catalog, logger *zap.Logger) *TripController {
	return &TripController{catalog: catalog, logger: logger}
}

func (c *TripController) ListTrips(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	filters, err := ParseFilters(r.URL.Query())
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	page, err := c.catalog.List(r.Context(), filters)
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewTripPage(page), logger)
}

func (c *TripController) GetTrip(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	id, err := commons.PathID(r, "tripId")
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	t, err := c.catalog.Get(r.Context(), id)
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewTrip(*t), logger)
}

func (c *TripController) SimilarTrips(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	id, err := commons.PathID(r, "tripId")
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	trips, err := c.catalog.Similar(r.Context(), id)
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, map[string]interface{}{"trips": dto.NewTrips(trips)}, logger)
}

// SetBrowseFilters updates the visitor's filters. The query runs once the
// filters stop changing; the result is read from BrowseResults.
func (c *TripController) SetBrowseFilters(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	var filters trip.Filters
	if err := commons.DecodeJSON(r, &filters); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}
	if err := v.Browser.SetFilters(filters); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	latest, pending := v.Browser.Latest()
	commons.WriteJSON(w, http.StatusAccepted, dto.NewBrowseResult(v.Browser.Filters(), latest, pending), logger)
}

// BrowseResults returns the latest filter result. With refresh=true a pending
// query runs immediately.
func (c *TripController) BrowseResults(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		v.Browser.Refresh()
	}

	latest, pending := v.Browser.Latest()
	commons.WriteJSON(w, http.StatusOK, dto.NewBrowseResult(v.Browser.Filters(), latest, pending), logger)
}

// ParseFilters reads catalog filters from query parameters.
func ParseFilters(q url.Values) (trip.Filters, error) {
	var (
		f       trip.Filters
		details []apperrors.ValidationDetail
	)

	intParam := func(name string, dst *int) {
		raw := q.Get(name)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: name, Message: name + " must be an integer"})
			return
		}
		*dst = n
	}
	floatParam := func(name string) *float64 {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: name, Message: name + " must be a number"})
			return nil
		}
		return &n
	}

	f.Search = q.Get("search")
	f.Difficulty = q.Get("dificultad")
	f.Duration = q.Get("duracion")
	f.SortBy = q.Get("sortBy")
	intParam("mes", &f.Month)
	intParam("duracion_dias", &f.Days)
	intParam("anio", &f.Year)
	intParam("id_categoria", &f.CategoryID)
	intParam("page", &f.Page)
	intParam("limit", &f.Limit)
	f.PriceMin = floatParam("precio_min")
	f.PriceMax = floatParam("precio_max")

	if raw := q.Get("destacado"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: "destacado", Message: "destacado must be true or false"})
		} else {
			f.Featured = &b
		}
	}

	if len(details) > 0 {
		return trip.Filters{}, apperrors.NewValidationError("invalid filters", details...)
	}
	return f, nil
}
