package dto

import (
	"time"

	"cumbre/internal/domain"
	"cumbre/internal/trip"
)

type DepartureDTO struct {
	ID                int       `json:"id"`
	TripID            int       `json:"tripId"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	TotalCapacity     int       `json:"totalCapacity"`
	RemainingCapacity *int      `json:"remainingCapacity"`
	PricePerPerson    float64   `json:"pricePerPerson"`
	SoldOut           bool      `json:"soldOut"`
	ShowUrgency       bool      `json:"showUrgency"`
}

type TripDTO struct {
	ID             int            `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Destination    string         `json:"destination"`
	Difficulty     string         `json:"difficulty"`
	DurationDays   int            `json:"durationDays"`
	DurationBucket string         `json:"durationBucket,omitempty"`
	BasePrice      float64        `json:"basePrice"`
	LowestPrice    float64        `json:"lowestPrice"`
	CategoryID     int            `json:"categoryId,omitempty"`
	Featured       bool           `json:"featured"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Departures     []DepartureDTO `json:"departures"`
}

type PaginationDTO struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type TripPageDTO struct {
	Trips      []TripDTO     `json:"trips"`
	Pagination PaginationDTO `json:"pagination"`
}

// BrowseResultDTO is the state of a visitor's filter session.
type BrowseResultDTO struct {
	Seq       uint64       `json:"seq"`
	Pending   bool         `json:"pending"`
	Filters   trip.Filters `json:"filters"`
	Results   *TripPageDTO `json:"results,omitempty"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
}

func NewDeparture(d domain.DepartureDate) DepartureDTO {
	return DepartureDTO{
		ID:                d.ID,
		TripID:            d.TripID,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		TotalCapacity:     d.TotalCapacity,
		RemainingCapacity: d.RemainingCapacity,
		PricePerPerson:    d.PricePerPerson,
		SoldOut:           d.SoldOut(),
		ShowUrgency:       d.ShowUrgency(),
	}
}

func NewTrip(t domain.Trip) TripDTO {
	deps := make([]DepartureDTO, 0, len(t.DepartureDates))
	for _, d := range t.DepartureDates {
		deps = append(deps, NewDeparture(d))
	}
	return TripDTO{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Destination:    t.Destination,
		Difficulty:     string(t.Difficulty),
		DurationDays:   t.DurationDays,
		DurationBucket: trip.DurationBucket(t.DurationDays),
		BasePrice:      t.BasePrice,
		LowestPrice:    t.LowestPrice(),
		CategoryID:     t.CategoryID,
		Featured:       t.Featured,
		ImageURL:       t.ImageURL,
		Departures:     deps,
	}
}

func NewTrips(trips []domain.Trip) []TripDTO {
	out := make([]TripDTO, 0, len(trips))
	for _, t := range trips {
		out = append(out, NewTrip(t))
	}
	return out
}

func NewTripPage(p *trip.Page) TripPageDTO {
	return TripPageDTO{
		Trips: NewTrips(p.Trips),
		Pagination: PaginationDTO{
			Page:       p.Pagination.Page,
			Limit:      p.Pagination.Limit,
			Total:      p.Pagination.Total,
			TotalPages: p.Pagination.TotalPages,
		},
	}
}

func NewBrowseResult(filters trip.Filters, r *trip.BrowseResult, pending bool) BrowseResultDTO {
	out := BrowseResultDTO{Filters: filters, Pending: pending}
	if r == nil {
		return out
	}
	out.Seq = r.Seq
	updated := r.UpdatedAt
	out.UpdatedAt = &updated
	if r.Err != nil {
		out.Error = errorMessage(r.Err)
		return out
	}
	if r.Page != nil {
		page := NewTripPage(r.Page)
		out.Results = &page
	}
	return out
}
