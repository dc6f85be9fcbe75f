package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"cumbre/internal/commons"
	"cumbre/internal/domain"
	"cumbre/internal/dto"
	"cumbre/internal/reservation"
)

type ReservationService interface {
	Mine(ctx context.Context, id reservation.Identity) ([]domain.Reservation, error)
	Cancel(ctx context.Context, id reservation.Identity, reservationID int) error
}

type ReservationController struct {
	service ReservationService
	logger  *zap.Logger
}

func NewReservationController(service ReservationService, logger *zap.Logger) *ReservationController {
	return &ReservationController{service: service, logger: logger}
}

func (c *ReservationController) ListMine(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	rs, err := c.service.Mine(r.Context(), v.Session)
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, map[string]interface{}{"reservations": dto.NewReservations(rs)}, logger)
}

func (c *ReservationController) Cancel(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	id, err := commons.PathID(r, "reservationId")
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	if err := c.service.Cancel(r.Context(), v.Session, id); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
