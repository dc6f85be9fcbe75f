package backend

import (
	"context"
	"net/http"

	"cumbre/internal/domain"
)

type CreateReservationRequest struct {
	DepartureDateID int    `json:"id_fecha_viaje"`
	People          int    `json:"cantidad_personas"`
	Notes           string `json:"observaciones_reserva,omitempty"`
}

type reservationPayload struct {
	ID                flexInt   `json:"id_reserva"`
	ReservationNumber string    `json:"numero_reserva"`
	DepartureDateID   flexInt   `json:"id_fecha_viaje"`
	People            flexInt   `json:"cantidad_personas"`
	Notes             string    `json:"observaciones_reserva"`
	Status            string    `json:"estado_reserva"`
	Total             flexFloat `json:"precio_total"`
	CreatedAt         flexTime  `json:"fecha_reserva"`
	Purchase          *struct {
		ID flexInt `json:"id_compras"`
	} `json:"compra"`
}

func (p reservationPayload) toDomain() domain.Reservation {
	r := domain.Reservation{
		ID:                int(p.ID),
		ReservationNumber: p.ReservationNumber,
		DepartureDateID:   int(p.DepartureDateID),
		People:            int(p.People),
		Notes:             p.Notes,
		Status:            p.Status,
		TotalPrice:        float64(p.Total),
		CreatedAt:         p.CreatedAt.Time,
	}
	if p.Purchase != nil {
		r.PurchaseID = int(p.Purchase.ID)
	}
	return r
}

// CreateReservation returns the created reservation. PurchaseID is zero when the
// response did not carry the nested compra reference.
func (c *Client) CreateReservation(ctx context.Context, token string, req CreateReservationRequest) (*domain.Reservation, error) {
	var data struct {
		Reserva *reservationPayload `json:"reserva"`
	}
	err := c.do(ctx, request{op: "reservas.create", method: http.MethodPost, path: "/reservas", token: token, body: req}, &data)
	if err != nil {
		return nil, err
	}
	if data.Reserva == nil {
		return &domain.Reservation{DepartureDateID: req.DepartureDateID, People: req.People}, nil
	}

	r := data.Reserva.toDomain()
	return &r, nil
}

func (c *Client) MyReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	var data struct {
		Reservas []reservationPayload `json:"reservas"`
	}
	err := c.do(ctx, request{op: "reservas.mine", method: http.MethodGet, path: "/reservas/mis-reservas", token: token}, &data)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Reservation, 0, len(data.Reservas))
	for _, r := range data.Reservas {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) CancelReservation(ctx context.Context, token string, reservationID int) error {
	return c.do(ctx, request{op: "reservas.cancel", method: http.MethodPut, path: idPath("/reservas", reservationID, "/cancelar"), token: token}, nil)
}
