package controller

import (
	"net/http"
	"strconv"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cumbre/internal/commons"
	"cumbre/internal/dto"
	"cumbre/internal/storefront"
	"cumbre/internal/validation"
)

var addItemMessages = map[string]map[string]string{
	"tripId":          {"*": "tripId must be a positive integer"},
	"departureDateId": {"*": "departureDateId must be a positive integer"},
	"quantity":        {"*": "quantity must be between 1 and 50"},
}

type CartController struct {
	validate *validatorv10.Validate
	logger   *zap.Logger
}

func NewCartController(logger *zap.Logger) *CartController {
	return &CartController{validate: validation.New(), logger: logger}
}

// GetCart returns the visitor's cart. reload=true refreshes it from the backend
// first.
func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	if reload, _ := strconv.ParseBool(r.URL.Query().Get("reload")); reload {
		if err := v.Cart.Load(r.Context()); err != nil {
			commons.WriteError(w, r, err, logger)
			return
		}
	}

	c.writeCart(w, v, logger)
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	var req dto.AddCartItemRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}
	if err := validation.Struct(c.validate, req, addItemMessages); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	if err := v.Cart.AddItem(r.Context(), req.TripID, req.DepartureDateID, req.Quantity); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewCart(v.Cart.Summary(), v.Cart.IsPending), logger)
}

// UpdateItem sets an item's quantity. Quantities below 1 leave the cart as is.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	itemID, err := commons.PathID(r, "itemId")
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	var req dto.UpdateCartItemRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	if err := v.Cart.UpdateQuantity(r.Context(), itemID, req.Quantity); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	c.writeCart(w, v, logger)
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	itemID, err := commons.PathID(r, "itemId")
	if err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	if err := v.Cart.RemoveItem(r.Context(), itemID); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	c.writeCart(w, v, logger)
}

func (c *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", commons.TraceID(r.Context())))

	v, ok := commons.RequireVisitor(w, r, logger)
	if !ok {
		return
	}

	if err := v.Cart.Clear(r.Context()); err != nil {
		commons.WriteError(w, r, err, logger)
		return
	}

	c.writeCart(w, v, logger)
}

func (c *CartController) writeCart(w http.ResponseWriter, v *storefront.Visitor, logger *zap.Logger) {
	commons.WriteJSON(w, http.StatusOK, dto.NewCart(v.Cart.Summary(), v.Cart.IsPending), logger)
}
