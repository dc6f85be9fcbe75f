package dto

import (
	"cumbre/internal/cart"
	"cumbre/internal/domain"
)

type AddCartItemRequest struct {
	TripID          int `json:"tripId" validate:"required,min=1"`
	DepartureDateID int `json:"departureDateId" validate:"required,min=1"`
	Quantity        int `json:"quantity" validate:"required,min=1,max=50"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type TripRefDTO struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Destination  string `json:"destination,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	DurationDays int    `json:"durationDays,omitempty"`
}

type CartItemDTO struct {
	ID              int        `json:"id"`
	DepartureDateID int        `json:"departureDateId"`
	Trip            TripRefDTO `json:"trip"`
	Quantity        int        `json:"quantity"`
	UnitPrice       float64    `json:"unitPrice"`
	Subtotal        float64    `json:"subtotal"`
	Pending         bool       `json:"pending"`
}

type CartDTO struct {
	Items      []CartItemDTO `json:"items"`
	ItemCount  int           `json:"itemCount"`
	TotalPrice float64       `json:"totalPrice"`
}

// NewCart maps a cart summary; pending reports per-item in-flight mutations.
func NewCart(s cart.Summary, pending func(itemID int) bool) CartDTO {
	items := make([]CartItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, newCartItem(it, pending != nil && pending(it.ID)))
	}
	return CartDTO{Items: items, ItemCount: s.ItemCount, TotalPrice: s.TotalPrice}
}

func newCartItem(it domain.CartItem, pending bool) CartItemDTO {
	return CartItemDTO{
		ID:              it.ID,
		DepartureDateID: it.DepartureDateID,
		Trip: TripRefDTO{
			ID:           it.Trip.ID,
			Title:        it.Trip.Title,
			Destination:  it.Trip.Destination,
			ImageURL:     it.Trip.ImageURL,
			DurationDays: it.Trip.DurationDays,
		},
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
		Subtotal:  it.Subtotal(),
		Pending:   pending,
	}
}
