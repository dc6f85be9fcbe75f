package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cumbre/internal/backend"
	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
	"cumbre/internal/validation"
)

// EventCheckoutCompleted is published once reservations and payment succeeded.
const EventCheckoutCompleted = "checkout.completed"

type Backend interface {
	CreateReservation(ctx context.Context, token string, req backend.CreateReservationRequest) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, token string, reservationID int) error
	ProcessPayment(ctx context.Context, token string, req backend.ProcessPaymentRequest) (*backend.PaymentResult, error)
	CreatePreference(ctx context.Context, token string, purchaseID int) (*backend.Preference, error)
}

// Cart is the read side of the cart store plus the final clear.
type Cart interface {
	Items() []domain.CartItem
	IsEmpty() bool
	Clear(ctx context.Context) error
}

type Identity interface {
	CurrentUser() *domain.User
	Token() string
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// ListingInvalidator drops cached trip listings whose capacity went stale.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

type CompletedEvent struct {
	PurchaseID        int       `json:"purchaseId"`
	ReservationNumber string    `json:"reservationNumber"`
	ReservationIDs    []int     `json:"reservationIds"`
	UserID            int       `json:"userId"`
	PaymentMethod     string    `json:"paymentMethod"`
	Total             float64   `json:"total"`
	CompletedAt       time.Time `json:"completedAt"`
}

type Options struct {
	// CompensateOnFailure cancels reservations already created when a later
	// step of the checkout fails.
	CompensateOnFailure bool
	Publisher           EventPublisher
	Listings            ListingInvalidator
}

var passengerMessages = map[string]map[string]string{
	"nombre":    {"*": "first name is required"},
	"apellido":  {"*": "last name is required"},
	"email":     {"required": "email is required", "simple_email": "email is not valid"},
	"telefono":  {"*": "phone is required"},
	"documento": {"*": "document number is required"},
}

var cardMessages = map[string]map[string]string{
	"numero":     {"required": "card number is required", "*": "card number must have 16 digits"},
	"nombre":     {"*": "cardholder name is required"},
	"expiracion": {"required": "expiry date is required", "*": "expiry must be MM/YY"},
	"cvv":        {"required": "CVV is required", "*": "CVV must have 3 or 4 digits"},
}

// Orchestrator drives one visitor's checkout through
// cart -> passenger -> payment -> confirmation. Every transition holds the
// orchestrator lock until it finishes, including the backend calls of the
// payment step.
type Orchestrator struct {
	api        Backend
	cart       Cart
	identity   Identity
	publisher  EventPublisher
	listings   ListingInvalidator
	compensate bool
	validate   *validatorv10.Validate
	logger     *zap.Logger
	nowFunc    func() time.Time

	mu      sync.Mutex
	session *Session
}

func NewOrchestrator(api Backend, cart Cart, identity Identity, opts Options, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		api:        api,
		cart:       cart,
		identity:   identity,
		publisher:  opts.Publisher,
		listings:   opts.Listings,
		compensate: opts.CompensateOnFailure,
		validate:   validation.New(),
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// Start opens a fresh checkout at the cart stage, replacing any previous one.
func (o *Orchestrator) Start(ctx context.Context) (Session, error) {
	if o.identity.CurrentUser() == nil {
		return Session{}, apperrors.NewNotAuthenticatedError("log in to check out")
	}
	if o.cart.IsEmpty() {
		return Session{}, apperrors.NewEmptyCartError("your cart is empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.session = &Session{Stage: StageCart, Total: cartTotal(o.cart.Items())}
	o.logger.Info("checkout started", zap.Float64("total", o.session.Total))
	return o.session.clone(), nil
}

// Current returns the checkout in progress.
func (o *Orchestrator) Current() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return Session{}, apperrors.NewNotFoundError("no checkout in progress")
	}
	return o.session.clone(), nil
}

// Discard drops the checkout in progress, if any.
func (o *Orchestrator) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session = nil
}

func (o *Orchestrator) ProceedToPassenger() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expect(StageCart); err != nil {
		return Session{}, err
	}
	o.session.Stage = StagePassenger
	return o.session.clone(), nil
}

// SubmitPassenger validates the passenger form and advances to payment. On a
// validation failure the per-field errors are stored and the stage is kept.
func (o *Orchestrator) SubmitPassenger(data PassengerData) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expect(StagePassenger); err != nil {
		return Session{}, err
	}

	data = data.trimmed()
	o.session.Passenger = data

	if err := validation.Struct(o.validate, data, passengerMessages); err != nil {
		o.failValidation(err)
		return o.session.clone(), err
	}

	o.session.ValidationErrors = nil
	o.session.Stage = StagePayment
	return o.session.clone(), nil
}

// SubmitPayment validates the chosen method, runs the checkout and on success
// advances to confirmation. On a backend failure the stage stays at payment
// and Error carries the message to show.
func (o *Orchestrator) SubmitPayment(ctx context.Context, method PaymentMethod, card *CardData) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expect(StagePayment); err != nil {
		return Session{}, err
	}

	if !method.Valid() {
		err := apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "metodo_pago",
			Message: "select a payment method",
		})
		o.failValidation(err)
		return o.session.clone(), err
	}
	o.session.PaymentMethod = method

	var normalized *CardData
	if method == MethodCard {
		c := CardData{}
		if card != nil {
			c = card.normalized()
		}
		if err := validation.Struct(o.validate, c, cardMessages); err != nil {
			o.failValidation(err)
			return o.session.clone(), err
		}
		normalized = &c
	}
	o.session.ValidationErrors = nil

	// Once issued, checkout calls run to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	if err := o.processCheckout(ctx, method, normalized); err != nil {
		o.session.Error = apperrors.UserMessage(err)
		o.logger.Error("checkout failed", zap.String("paymentMethod", string(method)), zap.Error(err))
		return o.session.clone(), err
	}

	o.session.Error = ""
	o.session.Stage = StageConfirmation
	return o.session.clone(), nil
}

// Pay starts the hosted payment for a confirmed mercadopago checkout and
// returns the URL the visitor must be redirected to.
func (o *Orchestrator) Pay(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expect(StageConfirmation); err != nil {
		return "", err
	}
	if !o.session.PaymentMethod.Hosted() {
		return "", apperrors.NewConflictError("payment was already processed")
	}

	pref, err := o.api.CreatePreference(context.WithoutCancel(ctx), o.identity.Token(), o.session.PurchaseID)
	if err != nil {
		o.session.Error = apperrors.UserMessage(err)
		return "", fmt.Errorf("creating payment preference for purchase %d: %w", o.session.PurchaseID, err)
	}
	if pref.InitPoint == "" {
		o.session.Error = "could not start the payment"
		return "", apperrors.NewBackendError("pagos.preferencia", 0, o.session.Error, nil)
	}

	o.session.Error = ""
	o.logger.Info("hosted payment started", zap.Int("purchaseId", o.session.PurchaseID), zap.String("preferenceId", pref.ID))
	return pref.InitPoint, nil
}

// Back moves one stage back. It is not allowed from cart or confirmation.
func (o *Orchestrator) Back() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return Session{}, apperrors.NewNotFoundError("no checkout in progress")
	}

	switch o.session.Stage {
	case StagePassenger:
		o.session.Stage = StageCart
	case StagePayment:
		o.session.Stage = StagePassenger
	default:
		return Session{}, apperrors.NewConflictError(fmt.Sprintf("cannot go back from stage %s", o.session.Stage))
	}
	o.session.ValidationErrors = nil
	o.session.Error = ""
	return o.session.clone(), nil
}

func (o *Orchestrator) DismissError() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return Session{}, apperrors.NewNotFoundError("no checkout in progress")
	}
	o.session.Error = ""
	return o.session.clone(), nil
}

func (o *Orchestrator) expect(stage Stage) error {
	if o.session == nil {
		return apperrors.NewNotFoundError("no checkout in progress")
	}
	if o.session.Stage != stage {
		return apperrors.NewConflictError(fmt.Sprintf("checkout is at stage %s, expected %s", o.session.Stage, stage))
	}
	return nil
}

func (o *Orchestrator) failValidation(err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		o.session.ValidationErrors = ve.Fields()
		return
	}
	o.session.Error = apperrors.UserMessage(err)
}

// processCheckout creates one reservation per cart line in parallel, then
// settles payment for non-hosted methods and clears the cart. Must be called
// with o.mu held.
func (o *Orchestrator) processCheckout(ctx context.Context, method PaymentMethod, card *CardData) error {
	if o.identity.CurrentUser() == nil {
		return apperrors.NewNotAuthenticatedError("log in to check out")
	}
	token := o.identity.Token()

	items := o.cart.Items()
	if len(items) == 0 {
		return apperrors.NewEmptyCartError("your cart is empty")
	}

	created, err := o.createReservations(ctx, token, items)
	if err != nil {
		o.rollback(ctx, token, created)
		return err
	}

	first := created[0]
	if first.PurchaseID == 0 {
		o.rollback(ctx, token, created)
		return apperrors.NewBackendError("reservas.create", 0, "reservation was created without a purchase", nil)
	}

	o.session.PurchaseID = first.PurchaseID
	o.session.ReservationNumber = first.ReservationNumber
	o.session.Reservations = created
	o.session.Total = cartTotal(items)

	if !method.Hosted() {
		req := backend.ProcessPaymentRequest{PurchaseID: first.PurchaseID, PaymentMethod: string(method)}
		if card != nil {
			req.Card = &backend.CardData{Number: card.Numero, Name: card.Nombre, Expiry: card.Expiracion, CVV: card.CVV}
		}
		result, err := o.api.ProcessPayment(ctx, token, req)
		if err != nil {
			o.rollback(ctx, token, created)
			o.session.PurchaseID = 0
			o.session.ReservationNumber = ""
			o.session.Reservations = nil
			return fmt.Errorf("processing payment for purchase %d: %w", first.PurchaseID, err)
		}
		o.session.PaymentStatus = result.Status
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.logger.Warn("cart not cleared after checkout", zap.Int("purchaseId", first.PurchaseID), zap.Error(err))
	}

	o.logger.Info("checkout completed",
		zap.Int("purchaseId", first.PurchaseID),
		zap.String("reservationNumber", first.ReservationNumber),
		zap.Int("reservations", len(created)),
		zap.String("paymentMethod", string(method)),
	)
	if o.listings != nil {
		o.listings.InvalidateListings(ctx)
	}
	o.publishCompleted(ctx, method, created)
	return nil
}

// createReservations returns the created reservations in cart order. On error
// the returned slice holds only the reservations that were created.
func (o *Orchestrator) createReservations(ctx context.Context, token string, items []domain.CartItem) ([]domain.Reservation, error) {
	notes := o.reservationNotes()
	results := make([]*domain.Reservation, len(items))

	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			r, err := o.api.CreateReservation(ctx, token, backend.CreateReservationRequest{
				DepartureDateID: item.DepartureDateID,
				People:          item.Quantity,
				Notes:           notes,
			})
			if err != nil {
				return fmt.Errorf("creating reservation for departure %d: %w", item.DepartureDateID, err)
			}
			results[i] = r
			return nil
		})
	}
	err := g.Wait()

	created := make([]domain.Reservation, 0, len(results))
	for _, r := range results {
		if r != nil {
			created = append(created, *r)
		}
	}
	return created, err
}

// rollback cancels already created reservations when compensation is enabled.
// Failures are logged; the checkout error is what gets reported.
func (o *Orchestrator) rollback(ctx context.Context, token string, created []domain.Reservation) {
	if len(created) == 0 {
		return
	}
	if !o.compensate {
		o.logger.Warn("checkout failed with reservations left behind", zap.Int("reservations", len(created)))
		return
	}

	var g errgroup.Group
	for _, r := range created {
		if r.ID == 0 {
			continue
		}
		g.Go(func() error {
			if err := o.api.CancelReservation(ctx, token, r.ID); err != nil {
				o.logger.Error("failed to cancel reservation", zap.Int("reservationId", r.ID), zap.Error(err))
				return err
			}
			o.logger.Info("reservation cancelled after failed checkout", zap.Int("reservationId", r.ID))
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) reservationNotes() string {
	p := o.session.Passenger
	parts := []string{}
	if name := strings.TrimSpace(p.Nombre + " " + p.Apellido); name != "" {
		parts = append(parts, "Pasajero: "+name)
	}
	if p.Documento != "" {
		parts = append(parts, "Documento: "+p.Documento)
	}
	if p.Telefono != "" {
		parts = append(parts, "Tel: "+p.Telefono)
	}
	return strings.Join(parts, " | ")
}

func (o *Orchestrator) publishCompleted(ctx context.Context, method PaymentMethod, created []domain.Reservation) {
	if o.publisher == nil {
		return
	}

	ids := make([]int, 0, len(created))
	for _, r := range created {
		ids = append(ids, r.ID)
	}
	user := o.identity.CurrentUser()
	event := CompletedEvent{
		PurchaseID:        o.session.PurchaseID,
		ReservationNumber: o.session.ReservationNumber,
		ReservationIDs:    ids,
		PaymentMethod:     string(method),
		Total:             o.session.Total,
		CompletedAt:       o.nowFunc().UTC(),
	}
	if user != nil {
		event.UserID = user.ID
	}

	if err := o.publisher.Publish(ctx, EventCheckoutCompleted, event); err != nil {
		o.logger.Warn("failed to publish checkout event", zap.Int("purchaseId", event.PurchaseID), zap.Error(err))
	}
}

func cartTotal(items []domain.CartItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}
