package backend

import (
	"context"
	"net/http"
)

type CardData struct {
	Number string `json:"numero"`
	Name   string `json:"nombre"`
	Expiry string `json:"expiracion"`
	CVV    string `json:"cvv"`
}

type ProcessPaymentRequest struct {
	PurchaseID    int       `json:"id_compra"`
	PaymentMethod string    `json:"metodo_pago"`
	Card          *CardData `json:"card_data,omitempty"`
}

type PaymentResult struct {
	Status    string `json:"estado"`
	PaymentID string `json:"id_pago"`
	Message   string `json:"mensaje"`
}

type Preference struct {
	ID        string `json:"preference_id"`
	InitPoint string `json:"init_point"`
}

type TestCard struct {
	Number string `json:"numero"`
	Brand  string `json:"marca"`
	CVV    string `json:"cvv"`
	Expiry string `json:"vencimiento"`
	Result string `json:"resultado"`
}

func (c *Client) CreatePreference(ctx context.Context, token string, purchaseID int) (*Preference, error) {
	var pref Preference
	body := map[string]int{"id_compra": purchaseID}
	err := c.do(ctx, request{op: "pagos.preferencia", method: http.MethodPost, path: "/pagos/mercadopago/preferencia", token: token, body: body}, &pref)
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (c *Client) ProcessPayment(ctx context.Context, token string, req ProcessPaymentRequest) (*PaymentResult, error) {
	var result PaymentResult
	err := c.do(ctx, request{op: "pagos.procesar", method: http.MethodPost, path: "/pagos/procesar", token: token, body: req}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TestCards(ctx context.Context) ([]TestCard, error) {
	var cards []TestCard
	err := c.do(ctx, request{op: "pagos.tarjetas", method: http.MethodGet, path: "/pagos/tarjetas-prueba"}, &cards)
	if err != nil {
		return nil, err
	}
	return cards, nil
}
