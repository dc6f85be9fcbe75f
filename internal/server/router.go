package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	cartcontroller "cumbre/internal/cart/controller"
	checkoutcontroller "cumbre/internal/checkout/controller"
	"cumbre/internal/commons"
	reservationcontroller "cumbre/internal/reservation/controller"
	sessioncontroller "cumbre/internal/session/controller"
	tripcontroller "cumbre/internal/trip/controller"
)

type Controllers struct {
	Trips        *tripcontroller.TripController
	Cart         *cartcontroller.CartController
	Checkout     *checkoutcontroller.CheckoutController
	Reservations *reservationcontroller.ReservationController
	Auth         *sessioncontroller.AuthController
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterOptions struct {
	SessionCookie string
	SecureCookie  bool
	HealthChecks  map[string]HealthCheck
}

func NewRouter(ctrl Controllers, registry VisitorOpener, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(TraceID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(opts.HealthChecks, logger))

	r.Group(func(r chi.Router) {
		r.Use(Visitor(registry, opts.SessionCookie, opts.SecureCookie, logger))

		r.Get("/auth/callback", ctrl.Auth.OAuthCallback)

		r.Route("/api", func(r chi.Router) {
			r.Route("/trips", func(r chi.Router) {
				r.Get("/", ctrl.Trips.ListTrips)
				r.Get("/{tripId}", ctrl.Trips.GetTrip)
				r.Get("/{tripId}/similar", ctrl.Trips.SimilarTrips)
			})

			r.Put("/browse/filters", ctrl.Trips.SetBrowseFilters)
			r.Get("/browse/results", ctrl.Trips.BrowseResults)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", ctrl.Cart.GetCart)
				r.Delete("/", ctrl.Cart.ClearCart)
				r.Post("/items", ctrl.Cart.AddItem)
				r.Patch("/items/{itemId}", ctrl.Cart.UpdateItem)
				r.Delete("/items/{itemId}", ctrl.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", ctrl.Checkout.Start)
				r.Get("/", ctrl.Checkout.Get)
				r.Post("/passenger-step", ctrl.Checkout.ProceedToPassenger)
				r.Post("/passenger", ctrl.Checkout.SubmitPassenger)
				r.Post("/payment", ctrl.Checkout.SubmitPayment)
				r.Post("/back", ctrl.Checkout.Back)
				r.Post("/pay", ctrl.Checkout.Pay)
				r.Delete("/error", ctrl.Checkout.DismissError)
			})

			r.Get("/payments/test-cards", ctrl.Checkout.TestCards)

			r.Get("/reservations", ctrl.Reservations.ListMine)
			r.Delete("/reservations/{reservationId}", ctrl.Reservations.Cancel)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", ctrl.Auth.Login)
				r.Post("/register", ctrl.Auth.Register)
				r.Post("/logout", ctrl.Auth.Logout)
				r.Get("/me", ctrl.Auth.Me)
			})
		})
	})

	return r
}

func healthHandler(checks map[string]HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				deps[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "up"
		}

		body := map[string]interface{}{"status": "ok", "dependencies": deps}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		commons.WriteJSON(w, status, body, logger)
	}
}
