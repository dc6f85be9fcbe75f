package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"cumbre/internal/domain"
)

// TripQuery holds the filters the trips endpoint understands. Zero values are
// omitted from the query string.
type TripQuery struct {
	Active       *bool
	Featured     *bool
	Search       string
	Difficulty   string
	DurationDays int
	PriceMin     *float64
	PriceMax     *float64
	CategoryID   int
	SortBy       string
	Page         int
	Limit        int
}

func (q TripQuery) Values() url.Values {
	v := url.Values{}
	if q.Active != nil {
		v.Set("activo", strconv.FormatBool(*q.Active))
	}
	if q.Featured != nil {
		v.Set("destacado", strconv.FormatBool(*q.Featured))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Difficulty != "" {
		v.Set("dificultad", q.Difficulty)
	}
	if q.DurationDays > 0 {
		v.Set("duracion_dias", strconv.Itoa(q.DurationDays))
	}
	if q.PriceMin != nil {
		v.Set("precio_min", strconv.FormatFloat(*q.PriceMin, 'f', -1, 64))
	}
	if q.PriceMax != nil {
		v.Set("precio_max", strconv.FormatFloat(*q.PriceMax, 'f', -1, 64))
	}
	if q.CategoryID > 0 {
		v.Set("id_categoria", strconv.Itoa(q.CategoryID))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type TripPage struct {
	Trips      []domain.Trip
	Pagination Pagination
}

type tripPayload struct {
	ID            flexInt            `json:"id_viaje"`
	Title         string             `json:"titulo"`
	Description   string             `json:"descripcion"`
	Destination   string             `json:"destino"`
	Difficulty    string             `json:"dificultad"`
	DurationDays  flexInt            `json:"duracion_dias"`
	BasePrice     flexFloat          `json:"precio_base"`
	CategoryID    flexInt            `json:"id_categoria"`
	Featured      bool               `json:"destacado"`
	Active        bool               `json:"activo"`
	ImageURL      string             `json:"imagen_principal_url"`
	CreatedAt     flexTime           `json:"fecha_creacion"`
	Departures    []departurePayload `json:"fechas"`
	AltDepartures []departurePayload `json:"fechas_viaje"`
}

type departurePayload struct {
	ID             flexInt   `json:"id_fecha_viaje"`
	TripID         flexInt   `json:"id_viaje"`
	StartDate      flexTime  `json:"fecha_inicio"`
	EndDate        flexTime  `json:"fecha_fin"`
	TotalCapacity  flexInt   `json:"cupo_total"`
	Remaining      *flexInt  `json:"cupos_disponibles"`
	Price          flexFloat `json:"precio_fecha"`
	RecentBookings flexInt   `json:"reservas_recientes"`
}

func (p tripPayload) toDomain() domain.Trip {
	departures := p.Departures
	if len(departures) == 0 {
		departures = p.AltDepartures
	}

	trip := domain.Trip{
		ID:           int(p.ID),
		Title:        p.Title,
		Description:  p.Description,
		Destination:  p.Destination,
		Difficulty:   domain.Difficulty(p.Difficulty),
		DurationDays: int(p.DurationDays),
		BasePrice:    float64(p.BasePrice),
		CategoryID:   int(p.CategoryID),
		Featured:     p.Featured,
		Active:       p.Active,
		ImageURL:     p.ImageURL,
		CreatedAt:    p.CreatedAt.Time,
	}

	for _, d := range departures {
		dep := domain.DepartureDate{
			ID:             int(d.ID),
			TripID:         int(d.TripID),
			StartDate:      d.StartDate.Time,
			EndDate:        d.EndDate.Time,
			TotalCapacity:  int(d.TotalCapacity),
			PricePerPerson: float64(d.Price),
			RecentBookings: int(d.RecentBookings),
		}
		if dep.TripID == 0 {
			dep.TripID = trip.ID
		}
		if dep.PricePerPerson == 0 {
			dep.PricePerPerson = trip.BasePrice
		}
		if d.Remaining != nil {
			remaining := int(*d.Remaining)
			dep.RemainingCapacity = &remaining
		}
		trip.DepartureDates = append(trip.DepartureDates, dep)
	}

	return trip
}

func (c *Client) ListTrips(ctx context.Context, q TripQuery) (*TripPage, error) {
	var data struct {
		Viajes     []tripPayload `json:"viajes"`
		Pagination Pagination    `json:"pagination"`
	}
	err := c.do(ctx, request{op: "viajes.list", method: http.MethodGet, path: "/viajes", query: q.Values()}, &data)
	if err != nil {
		return nil, err
	}

	page := &TripPage{Pagination: data.Pagination, Trips: make([]domain.Trip, 0, len(data.Viajes))}
	for _, v := range data.Viajes {
		page.Trips = append(page.Trips, v.toDomain())
	}
	return page, nil
}

func (c *Client) GetTrip(ctx context.Context, id int) (*domain.Trip, error) {
	var data struct {
		Viaje tripPayload `json:"viaje"`
	}
	err := c.do(ctx, request{op: "viajes.get", method: http.MethodGet, path: idPath("/viajes", id, "")}, &data)
	if err != nil {
		return nil, err
	}

	trip := data.Viaje.toDomain()
	return &trip, nil
}

func (c *Client) SimilarTrips(ctx context.Context, id int) ([]domain.Trip, error) {
	var data struct {
		Viajes []tripPayload `json:"viajes"`
	}
	err := c.do(ctx, request{op: "viajes.similar", method: http.MethodGet, path: idPath("/viajes", id, "/similares")}, &data)
	if err != nil {
		return nil, err
	}

	trips := make([]domain.Trip, 0, len(data.Viajes))
	for _, v := range data.Viajes {
		trips = append(trips, v.toDomain())
	}
	return trips, nil
}
