package dto

import (
	"time"

	"cumbre/internal/domain"
)

type ReservationDTO struct {
	ID                int       `json:"id"`
	ReservationNumber string    `json:"reservationNumber"`
	PurchaseID        int       `json:"purchaseId,omitempty"`
	DepartureDateID   int       `json:"departureDateId"`
	People            int       `json:"people"`
	Status            string    `json:"status,omitempty"`
	TotalPrice        float64   `json:"totalPrice,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"createdAt,omitzero"`
}

func NewReservations(rs []domain.Reservation) []ReservationDTO {
	out := make([]ReservationDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, ReservationDTO{
			ID:                r.ID,
			ReservationNumber: r.ReservationNumber,
			PurchaseID:        r.PurchaseID,
			DepartureDateID:   r.DepartureDateID,
			People:            r.People,
			Status:            r.Status,
			TotalPrice:        r.TotalPrice,
			Notes:             r.Notes,
			CreatedAt:         r.CreatedAt,
		})
	}
	return out
}
