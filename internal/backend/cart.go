package backend

import (
	"context"
	"net/http"

	"cumbre/internal/domain"
)

type cartItemPayload struct {
	ID              flexInt   `json:"id_item"`
	AltID           flexInt   `json:"id"`
	DepartureDateID flexInt   `json:"id_fecha_viaje"`
	TripID          flexInt   `json:"id_viaje"`
	Quantity        flexInt   `json:"cantidad"`
	UnitPrice       flexFloat `json:"precio_unitario"`
	Trip            *struct {
		ID           flexInt `json:"id_viaje"`
		Title        string  `json:"titulo"`
		Destination  string  `json:"destino"`
		ImageURL     string  `json:"imagen_principal_url"`
		DurationDays flexInt `json:"duracion_dias"`
	} `json:"viaje"`
}

func (p cartItemPayload) toDomain() domain.CartItem {
	id := int(p.ID)
	if id == 0 {
		id = int(p.AltID)
	}
	item := domain.CartItem{
		ID:              id,
		DepartureDateID: int(p.DepartureDateID),
		Quantity:        int(p.Quantity),
		UnitPrice:       float64(p.UnitPrice),
		Trip:            domain.TripRef{ID: int(p.TripID)},
	}
	if p.Trip != nil {
		item.Trip = domain.TripRef{
			ID:           int(p.Trip.ID),
			Title:        p.Trip.Title,
			Destination:  p.Trip.Destination,
			ImageURL:     p.Trip.ImageURL,
			DurationDays: int(p.Trip.DurationDays),
		}
		if item.Trip.ID == 0 {
			item.Trip.ID = int(p.TripID)
		}
	}
	return item
}

type AddCartItemRequest struct {
	TripID          int `json:"id_viaje"`
	DepartureDateID int `json:"id_fecha_viaje"`
	Quantity        int `json:"cantidad"`
}

func (c *Client) GetCart(ctx context.Context, token string) ([]domain.CartItem, error) {
	var data struct {
		Items []cartItemPayload `json:"items"`
	}
	err := c.do(ctx, request{op: "carrito.get", method: http.MethodGet, path: "/carrito", token: token}, &data)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(data.Items))
	for _, it := range data.Items {
		items = append(items, it.toDomain())
	}
	return items, nil
}

func (c *Client) AddCartItem(ctx context.Context, token string, req AddCartItemRequest) error {
	return c.do(ctx, request{op: "carrito.add", method: http.MethodPost, path: "/carrito/items", token: token, body: req}, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, token string, itemID int, quantity int) error {
	body := map[string]int{"cantidad": quantity}
	return c.do(ctx, request{op: "carrito.update", method: http.MethodPut, path: idPath("/carrito/items", itemID, ""), token: token, body: body}, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, token string, itemID int) error {
	return c.do(ctx, request{op: "carrito.remove", method: http.MethodDelete, path: idPath("/carrito/items", itemID, ""), token: token}, nil)
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, request{op: "carrito.clear", method: http.MethodDelete, path: "/carrito", token: token}, nil)
}
