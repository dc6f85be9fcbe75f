package server

import (
	"go.uber.org/zap"

	"cumbre/internal/backend"
	cartcontroller "cumbre/internal/cart/controller"
	checkoutcontroller "cumbre/internal/checkout/controller"
	"cumbre/internal/reservation"
	reservationcontroller "cumbre/internal/reservation/controller"
	sessioncontroller "cumbre/internal/session/controller"
	"cumbre/internal/trip"
	tripcontroller "cumbre/internal/trip/controller"
)

// NewControllers wires every HTTP controller against the platform client.
func NewControllers(api *backend.Client, catalog *trip.Catalog, logger *zap.Logger) Controllers {
	return Controllers{
		Trips:        tripcontroller.NewTripController(catalog, logger),
		Cart:         cartcontroller.NewCartController(logger),
		Checkout:     checkoutcontroller.NewCheckoutController(api, logger),
		Reservations: reservationcontroller.NewReservationController(reservation.NewService(api, logger), logger),
		Auth:         sessioncontroller.NewAuthController(logger),
	}
}
