package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
)

type mockBackend struct {
	MyReservationsFunc    func(ctx context.Context, token string) ([]domain.Reservation, error)
	CancelReservationFunc func(ctx context.Context, token string, reservationID int) error
}

func (m *mockBackend) MyReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	return m.MyReservationsFunc(ctx, token)
}

func (m *mockBackend) CancelReservation(ctx context.Context, token string, reservationID int) error {
	return m.CancelReservationFunc(ctx, token, reservationID)
}

type fakeIdentity struct{ user *domain.User }

func (f fakeIdentity) CurrentUser() *domain.User { return f.user }
func (f fakeIdentity) Token() string             { return "tok" }

var ana = fakeIdentity{user: &domain.User{ID: 8}}

func listing() []domain.Reservation {
	return []domain.Reservation{
		{ID: 1, ReservationNumber: "R-1", Status: domain.ReservationStatusPending},
		{ID: 2, ReservationNumber: "R-2", Status: domain.ReservationStatusCanceled},
	}
}

func TestMine_RequiresUser(t *testing.T) {
	s := NewService(&mockBackend{}, zap.NewNop())

	_, err := s.Mine(context.Background(), fakeIdentity{})
	_, ok := apperrors.IsNotAuthenticatedError(err)
	assert.True(t, ok)
}

func TestMine_ReturnsBackendList(t *testing.T) {
	api := &mockBackend{
		MyReservationsFunc: func(ctx context.Context, token string) ([]domain.Reservation, error) {
			assert.Equal(t, "tok", token)
			return listing(), nil
		},
	}
	s := NewService(api, zap.NewNop())

	rs, err := s.Mine(context.Background(), ana)
	require.NoError(t, err)
	assert.Len(t, rs, 2)
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name      string
		id        int
		wantErr   func(error) bool
		wantCalls int
	}{
		{"pending reservation", 1, nil, 1},
		{"already cancelled", 2, func(err error) bool { _, ok := apperrors.IsConflictError(err); return ok }, 0},
		{"not the user's", 99, func(err error) bool { _, ok := apperrors.IsNotFoundError(err); return ok }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			api := &mockBackend{
				MyReservationsFunc: func(ctx context.Context, token string) ([]domain.Reservation, error) {
					return listing(), nil
				},
				CancelReservationFunc: func(ctx context.Context, token string, reservationID int) error {
					calls++
					assert.Equal(t, tt.id, reservationID)
					return nil
				},
			}
			s := NewService(api, zap.NewNop())

			err := s.Cancel(context.Background(), ana, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}
