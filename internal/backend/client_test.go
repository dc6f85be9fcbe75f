package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cumbre/internal/config"
	apperrors "cumbre/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, zap.NewNop())
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestListTrips_SendsFiltersAndDecodes(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/viajes", r.URL.Path)
		gotQuery = r.URL.Query()
		writeEnvelope(w, http.StatusOK, `{
			"success": true,
			"data": {
				"viajes": [{
					"id_viaje": 4,
					"titulo": "Cerro Champaquí",
					"dificultad": "moderado",
					"duracion_dias": 3,
					"precio_base": "85000.00",
					"activo": true,
					"fechas": [{
						"id_fecha_viaje": 11,
						"fecha_inicio": "2026-11-14",
						"fecha_fin": "2026-11-16T00:00:00.000Z",
						"cupo_total": 20,
						"cupos_disponibles": 3,
						"precio_fecha": null,
						"reservas_recientes": "2"
					}]
				}],
				"pagination": {"page": 1, "limit": 12, "total": 1, "totalPages": 1}
			}
		}`)
	})

	minPrice := 50000.0
	active := true
	page, err := client.ListTrips(context.Background(), TripQuery{
		Active:     &active,
		Search:     "cerro",
		Difficulty: "moderado",
		PriceMin:   &minPrice,
		Page:       1,
		Limit:      12,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"true"}, gotQuery["activo"])
	assert.Equal(t, []string{"cerro"}, gotQuery["search"])
	assert.Equal(t, []string{"50000"}, gotQuery["precio_min"])
	assert.NotContains(t, gotQuery, "precio_max")

	require.Len(t, page.Trips, 1)
	trip := page.Trips[0]
	assert.Equal(t, 4, trip.ID)
	assert.Equal(t, 85000.0, trip.BasePrice)
	require.Len(t, trip.DepartureDates, 1)
	dep := trip.DepartureDates[0]
	assert.Equal(t, 4, dep.TripID)
	assert.Equal(t, 85000.0, dep.PricePerPerson)
	require.NotNil(t, dep.RemainingCapacity)
	assert.Equal(t, 3, *dep.RemainingCapacity)
	assert.Equal(t, 2, dep.RecentBookings)
	assert.Equal(t, time.November, dep.StartDate.Month())
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestGetTrip_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, `{"success": false, "message": "Viaje no encontrado"}`)
	})

	trip, err := client.GetTrip(context.Background(), 99)
	assert.Nil(t, trip)
	nfe, ok := apperrors.IsNotFoundError(err)
	require.True(t, ok)
	assert.Equal(t, "Viaje no encontrado", nfe.Message)
}

func TestDo_SuccessFalseIsBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success": false, "message": "No hay cupos suficientes"}`)
	})

	err := client.AddCartItem(context.Background(), "tok", AddCartItemRequest{TripID: 1, DepartureDateID: 2, Quantity: 1})
	be, ok := apperrors.IsBackendError(err)
	require.True(t, ok)
	assert.Equal(t, "No hay cupos suficientes", be.Message)
	assert.Equal(t, "carrito.add", be.Operation)
}

func TestDo_ServerErrorWithoutEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := client.GetCart(context.Background(), "tok")
	be, ok := apperrors.IsBackendError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, be.StatusCode)
}

func TestDo_RetriesIdempotentReadsOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"items": []}}`)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second, MaxAttempts: 3}, zap.NewNop())

	items, err := client.GetCart(context.Background(), "tok")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_DoesNotRetryWrites(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second, MaxAttempts: 3}, zap.NewNop())

	_, err := client.CreateReservation(context.Background(), "tok", CreateReservationRequest{DepartureDateID: 11, People: 2})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusNotFound, `{"success": false, "message": "Viaje no encontrado"}`)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second, MaxAttempts: 3}, zap.NewNop())

	_, err := client.GetTrip(context.Background(), 99)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_UnauthorizedIsNotAuthenticated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success": false, "message": "Token inválido"}`)
	})

	_, err := client.Profile(context.Background(), "expired")
	_, ok := apperrors.IsNotAuthenticatedError(err)
	assert.True(t, ok)
}

func TestDo_ForbiddenIsForbiddenError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/reservas/5/cancelar", r.URL.Path)
		writeEnvelope(w, http.StatusForbidden, `{"success": false, "message": "No puede cancelar una reserva pagada"}`)
	})

	err := client.CancelReservation(context.Background(), "tok", 5)
	fe, ok := apperrors.IsForbiddenError(err)
	require.True(t, ok)
	assert.Equal(t, "No puede cancelar una reserva pagada", fe.Message)
}

func TestDo_TransportErrorIsBackendError(t *testing.T) {
	client := NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())

	_, err := client.GetCart(context.Background(), "tok")
	be, ok := apperrors.IsBackendError(err)
	require.True(t, ok)
	assert.Equal(t, 0, be.StatusCode)
	assert.NotNil(t, be.Cause)
}

func TestCart_SendsBearerAndDecodesItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"items": [
			{"id_item": 7, "id_fecha_viaje": 11, "id_viaje": 4, "cantidad": 2, "precio_unitario": "1000.00",
			 "viaje": {"titulo": "Cerro Champaquí", "destino": "Córdoba"}}
		]}}`)
	})

	items, err := client.GetCart(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].ID)
	assert.Equal(t, 11, items[0].DepartureDateID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1000.0, items[0].UnitPrice)
	assert.Equal(t, 4, items[0].Trip.ID)
	assert.Equal(t, "Córdoba", items[0].Trip.Destination)
}

func TestUpdateCartItem_SendsQuantity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/carrito/items/7", r.URL.Path)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body["cantidad"])
		writeEnvelope(w, http.StatusOK, `{"success": true, "message": "ok"}`)
	})

	require.NoError(t, client.UpdateCartItem(context.Background(), "tok", 7, 3))
}

func TestCreateReservation_DecodesNestedPurchase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body CreateReservationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 11, body.DepartureDateID)
		assert.Equal(t, 2, body.People)
		writeEnvelope(w, http.StatusCreated, `{"success": true, "data": {"reserva": {
			"id_reserva": 30, "numero_reserva": "RES-2026-0030", "compra": {"id_compras": 501}
		}}}`)
	})

	r, err := client.CreateReservation(context.Background(), "tok", CreateReservationRequest{DepartureDateID: 11, People: 2})
	require.NoError(t, err)
	assert.Equal(t, 30, r.ID)
	assert.Equal(t, "RES-2026-0030", r.ReservationNumber)
	assert.Equal(t, 501, r.PurchaseID)
}

func TestCreateReservation_MissingPurchase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusCreated, `{"success": true, "data": {"reserva": {"id_reserva": 30, "numero_reserva": "RES-1"}}}`)
	})

	r, err := client.CreateReservation(context.Background(), "tok", CreateReservationRequest{DepartureDateID: 11, People: 1})
	require.NoError(t, err)
	assert.Zero(t, r.PurchaseID)
}

func TestCreatePreference_ReturnsInitPoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"preference_id": "pref-1", "init_point": "https://pay.example/checkout?pref=pref-1"}}`)
	})

	pref, err := client.CreatePreference(context.Background(), "tok", 501)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout?pref=pref-1", pref.InitPoint)
}

func TestLogin_DecodesTokenAndUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"token": "jwt-abc", "usuario": {"id_usuario": "8", "email": "ana@example.com", "nombre": "Ana"}}}`)
	})

	res, err := client.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", res.Token)
	assert.Equal(t, 8, res.User.ID)
	assert.Equal(t, "Ana", res.User.Nombre)
}
