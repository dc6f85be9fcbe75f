package dto

import (
	"cumbre/internal/checkout"
)

type PaymentRequest struct {
	Method string             `json:"metodo_pago"`
	Card   *checkout.CardData `json:"card_data,omitempty"`
}

type PayResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

type CheckoutDTO struct {
	Stage             string                 `json:"stage"`
	Passenger         checkout.PassengerData `json:"passenger"`
	PaymentMethod     string                 `json:"paymentMethod,omitempty"`
	PurchaseID        int                    `json:"purchaseId,omitempty"`
	ReservationNumber string                 `json:"reservationNumber,omitempty"`
	Reservations      []ReservationDTO       `json:"reservations,omitempty"`
	PaymentStatus     string                 `json:"paymentStatus,omitempty"`
	Total             float64                `json:"total"`
	ValidationErrors  map[string]string      `json:"validationErrors,omitempty"`
	Error             string                 `json:"error,omitempty"`
}

func NewCheckout(s checkout.Session) CheckoutDTO {
	out := CheckoutDTO{
		Stage:             string(s.Stage),
		Passenger:         s.Passenger,
		PaymentMethod:     string(s.PaymentMethod),
		PurchaseID:        s.PurchaseID,
		ReservationNumber: s.ReservationNumber,
		PaymentStatus:     s.PaymentStatus,
		Total:             s.Total,
		ValidationErrors:  s.ValidationErrors,
		Error:             s.Error,
	}
	if len(s.Reservations) > 0 {
		out.Reservations = NewReservations(s.Reservations)
	}
	return out
}
