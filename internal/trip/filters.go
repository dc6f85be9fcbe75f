package trip

import (
	"time"

	"cumbre/internal/backend"
	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
	"cumbre/internal/validation"
)

// Duration buckets used by the catalog filter.
const (
	DurationShort  = "short"
	DurationMedium = "medium"
	DurationLong   = "long"
)

// Filters is what a visitor can narrow the catalog by. Month and Duration are
// not understood by the backend and are applied to the returned page; Days is
// an exact length the backend filters on.
type Filters struct {
	Search     string   `json:"search,omitempty"`
	Difficulty string   `json:"dificultad,omitempty" validate:"omitempty,oneof=facil moderado dificil experto"`
	Month      int      `json:"mes,omitempty" validate:"omitempty,min=1,max=12"`
	Year       int      `json:"anio,omitempty" validate:"omitempty,min=2000"`
	Duration   string   `json:"duracion,omitempty" validate:"omitempty,oneof=short medium long"`
	Days       int      `json:"duracion_dias,omitempty" validate:"omitempty,min=1"`
	PriceMin   *float64 `json:"precio_min,omitempty" validate:"omitempty,gte=0"`
	PriceMax   *float64 `json:"precio_max,omitempty" validate:"omitempty,gte=0"`
	CategoryID int      `json:"id_categoria,omitempty" validate:"omitempty,min=1"`
	Featured   *bool    `json:"destacado,omitempty"`
	SortBy     string   `json:"sortBy,omitempty" validate:"omitempty,oneof=precio_asc precio_desc fecha nombre"`
	Page       int      `json:"page,omitempty" validate:"omitempty,min=1"`
	Limit      int      `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

var filterValidator = validation.New()

func (f Filters) Validate() error {
	if err := validation.Struct(filterValidator, f, nil); err != nil {
		return err
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "precio_min",
			Message: "precio_min must not exceed precio_max",
		})
	}
	return nil
}

// Query converts the filters to the backend query. Only active trips are listed.
func (f Filters) Query() backend.TripQuery {
	active := true
	return backend.TripQuery{
		Active:       &active,
		Featured:     f.Featured,
		Search:       f.Search,
		Difficulty:   f.Difficulty,
		DurationDays: f.Days,
		PriceMin:     f.PriceMin,
		PriceMax:     f.PriceMax,
		CategoryID:   f.CategoryID,
		SortBy:       f.SortBy,
		Page:         f.Page,
		Limit:        f.Limit,
	}
}

// Matches applies the filters the backend does not support.
func (f Filters) Matches(t domain.Trip) bool {
	if f.Month != 0 && !t.DepartsIn(time.Month(f.Month), f.Year) {
		return false
	}
	if f.Duration != "" && DurationBucket(t.DurationDays) != f.Duration {
		return false
	}
	return true
}

// DurationBucket classifies a trip length: short is 1-3 days, medium 4-7,
// long 8 or more. Unknown lengths have no bucket.
func DurationBucket(days int) string {
	switch {
	case days <= 0:
		return ""
	case days <= 3:
		return DurationShort
	case days <= 7:
		return DurationMedium
	default:
		return DurationLong
	}
}
