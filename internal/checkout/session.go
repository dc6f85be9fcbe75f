package checkout

import (
	"strings"

	"cumbre/internal/domain"
)

type Stage string

const (
	StageCart         Stage = "cart"
	StagePassenger    Stage = "passenger"
	StagePayment      Stage = "payment"
	StageConfirmation Stage = "confirmation"
)

type PaymentMethod string

const (
	MethodMercadoPago PaymentMethod = "mercadopago"
	MethodPayLater    PaymentMethod = "pay_later"
	MethodCard        PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMercadoPago, MethodPayLater, MethodCard:
		return true
	}
	return false
}

// Hosted reports whether payment happens on the processor's hosted page.
func (m PaymentMethod) Hosted() bool {
	return m == MethodMercadoPago
}

type PassengerData struct {
	Nombre    string `json:"nombre" validate:"required"`
	Apellido  string `json:"apellido" validate:"required"`
	Email     string `json:"email" validate:"required,simple_email"`
	Telefono  string `json:"telefono" validate:"required"`
	Documento string `json:"documento" validate:"required"`
}

func (p PassengerData) trimmed() PassengerData {
	return PassengerData{
		Nombre:    strings.TrimSpace(p.Nombre),
		Apellido:  strings.TrimSpace(p.Apellido),
		Email:     strings.TrimSpace(p.Email),
		Telefono:  strings.TrimSpace(p.Telefono),
		Documento: strings.TrimSpace(p.Documento),
	}
}

// CardData is the simulated card form. Only used with MethodCard.
type CardData struct {
	Numero     string `json:"numero" validate:"required,number,len=16"`
	Nombre     string `json:"nombre" validate:"required"`
	Expiracion string `json:"expiracion" validate:"required,card_expiry"`
	CVV        string `json:"cvv" validate:"required,number,min=3,max=4"`
}

func (c CardData) normalized() CardData {
	return CardData{
		Numero:     strings.Join(strings.Fields(c.Numero), ""),
		Nombre:     strings.TrimSpace(c.Nombre),
		Expiracion: strings.TrimSpace(c.Expiracion),
		CVV:        strings.TrimSpace(c.CVV),
	}
}

// Session is the in-memory state of one checkout. It is never persisted.
type Session struct {
	Stage             Stage                `json:"stage"`
	Passenger         PassengerData        `json:"passenger"`
	PaymentMethod     PaymentMethod        `json:"paymentMethod,omitempty"`
	PurchaseID        int                  `json:"purchaseId,omitempty"`
	ReservationNumber string               `json:"reservationNumber,omitempty"`
	Reservations      []domain.Reservation `json:"reservations,omitempty"`
	PaymentStatus     string               `json:"paymentStatus,omitempty"`
	Total             float64              `json:"total"`
	ValidationErrors  map[string]string    `json:"validationErrors,omitempty"`
	Error             string               `json:"error,omitempty"`
}

func (s *Session) clone() Session {
	c := *s
	if s.Reservations != nil {
		c.Reservations = append([]domain.Reservation(nil), s.Reservations...)
	}
	if s.ValidationErrors != nil {
		c.ValidationErrors = make(map[string]string, len(s.ValidationErrors))
		for k, v := range s.ValidationErrors {
			c.ValidationErrors[k] = v
		}
	}
	return c
}
