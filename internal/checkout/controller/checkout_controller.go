package controller

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cumbre/internal/backend"
	"cumbre/internal/checkout"
	"cumbre/internal/commons"
	"cumbre/internal/dto"
)

type TestCardSource interface {
	TestCards(ctx context.Context) ([]backend.TestCard, error)
}

type CheckoutController struct {
	cards  TestCardSource
	logger *zap.Logger
}

func NewCheckoutController(cards TestCardSource, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{cards: cards, logger: logger}
}

// Start reloads the cart and opens a new checkout. An empty cart answers 409
// EMPTY_CART so the client can send the visitor back to the catalog.
func (c *CheckoutController) Start(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	if v.Session.CurrentUser() != nil {
		if err := v.Cart.Load(r.Context()); err != nil {
			commons.WriteError(w, r, err, logger)
			return
		}
	}

	s, err := v.Checkout.Start(r.Context())
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewCheckout(s), logger)
}

func (c *CheckoutController) Get(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	s, err := v.Checkout.Current()
	c.respond(w, r, s, err, logger)
}

func (c *CheckoutController) ProceedToPassenger(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	s, err := v.Checkout.ProceedToPassenger()
	c.respond(w, r, s, err, logger)
}

func (c *CheckoutController) SubmitPassenger(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	var req checkout.PassengerData
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	s, err := v.Checkout.SubmitPassenger(req)
	c.respond(w, r, s, err, logger)
}

func (c *CheckoutController) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	s, err := v.Checkout.SubmitPayment(r.Context(), checkout.PaymentMethod(req.Method), req.Card)
	c.respond(w, r, s, err, logger)
}

func (c *CheckoutController) Back(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	s, err := v.Checkout.Back()
	c.respond(w, r, s, err, logger)
}

// Pay starts the hosted payment. With redirect=true it answers with a 303 to
// the payment page instead of JSON.
func (c *CheckoutController) Pay(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	redirectURL, err := v.Checkout.Pay(r.Context())
	if err != nil {
		s, _ := v.Checkout.Current()
		c.respond(w, r, s, err, logger)
		return
	}

	if redirect, _ := strconv.ParseBool(r.URL.Query().Get("redirect")); redirect {
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
		return
	}
	commons.WriteJSON(w, http.StatusOK, dto.PayResponse{RedirectURL: redirectURL}, logger)
}

func (c *CheckoutController) DismissError(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	s, err := v.Checkout.DismissError()
	c.respond(w, r, s, err, logger)
}

func (c *CheckoutController) TestCards(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	cards, err := c.cards.TestCards(r.Context())
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, map[string]interface{}{"cards": cards}, logger)
}

// respond writes the checkout state, attaching it to the error body when the
// transition failed with a session in place.
func (c *CheckoutController) respond(w http.ResponseWriter, r *http.Request, s checkout.Session, err error, logger *zap.Logger) {
	if err == nil {
		commons.WriteJSON(w, http.StatusOK, dto.NewCheckout(s), logger)
		return
	}

	commons.WriteErrorWith(w, r, err, logger, func(resp *dto.ErrorResponse) {
		if s.Stage != "" {
			snapshot := dto.NewCheckout(s)
			resp.Checkout = &snapshot
		}
	})
}
