package reservation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
)

type Backend interface {
	MyReservations(ctx context.Context, token string) ([]domain.Reservation, error)
	CancelReservation(ctx context.Context, token string, reservationID int) error
}

type Identity interface {
	CurrentUser() *domain.User
	Token() string
}

// Service lists and cancels the logged-in user's reservations.
type Service struct {
	api    Backend
	logger *zap.Logger
}

func NewService(api Backend, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger}
}

func (s *Service) Mine(ctx context.Context, id Identity) ([]domain.Reservation, error) {
	if id.CurrentUser() == nil {
		return nil, apperrors.NewNotAuthenticatedError("log in to see your reservations")
	}

	rs, err := s.api.MyReservations(ctx, id.Token())
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	return rs, nil
}

// Cancel cancels one of the user's reservations. Reservations that are not in
// the user's list are reported as not found.
func (s *Service) Cancel(ctx context.Context, id Identity, reservationID int) error {
	user := id.CurrentUser()
	rs, err := s.Mine(ctx, id)
	if err != nil {
		return err
	}

	var target *domain.Reservation
	for i := range rs {
		if rs[i].ID == reservationID {
			target = &rs[i]
			break
		}
	}
	if target == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("reservation %d not found", reservationID))
	}
	if target.Status == domain.ReservationStatusCanceled {
		return apperrors.NewConflictError(fmt.Sprintf("reservation %s is already cancelled", target.ReservationNumber))
	}

	if err := s.api.CancelReservation(ctx, id.Token(), reservationID); err != nil {
		return fmt.Errorf("cancelling reservation %d: %w", reservationID, err)
	}

	s.logger.Info("reservation cancelled",
		zap.Int("reservationId", reservationID),
		zap.String("reservationNumber", target.ReservationNumber),
		zap.Int("userId", user.ID),
	)
	return nil
}
