package domain

import "time"

type Reservation struct {
	ID                int
	ReservationNumber string
	PurchaseID        int
	DepartureDateID   int
	People            int
	Notes             string
	Status            string
	TotalPrice        float64
	CreatedAt         time.Time
}

const (
	ReservationStatusPending   = "pendiente"
	ReservationStatusConfirmed = "confirmada"
	ReservationStatusCanceled  = "cancelada"
)
