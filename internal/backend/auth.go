package backend

import (
	"context"
	"net/http"

	"cumbre/internal/domain"
)

type RegisterRequest struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Telefono string `json:"telefono,omitempty"`
}

type userPayload struct {
	ID       flexInt `json:"id_usuario"`
	Email    string  `json:"email"`
	Nombre   string  `json:"nombre"`
	Apellido string  `json:"apellido"`
	Telefono string  `json:"telefono"`
	Rol      string  `json:"rol"`
}

func (p userPayload) toDomain() domain.User {
	return domain.User{
		ID:       int(p.ID),
		Email:    p.Email,
		Nombre:   p.Nombre,
		Apellido: p.Apellido,
		Telefono: p.Telefono,
		Rol:      p.Rol,
	}
}

type AuthResult struct {
	Token string
	User  domain.User
}

type authData struct {
	Token   string      `json:"token"`
	Usuario userPayload `json:"usuario"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var data authData
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, request{op: "auth.login", method: http.MethodPost, path: "/auth/login", body: body}, &data); err != nil {
		return nil, err
	}
	return &AuthResult{Token: data.Token, User: data.Usuario.toDomain()}, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var data authData
	if err := c.do(ctx, request{op: "auth.register", method: http.MethodPost, path: "/auth/register", body: req}, &data); err != nil {
		return nil, err
	}
	return &AuthResult{Token: data.Token, User: data.Usuario.toDomain()}, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{op: "auth.logout", method: http.MethodPost, path: "/auth/logout", token: token}, nil)
}

func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var data struct {
		Usuario userPayload `json:"usuario"`
	}
	if err := c.do(ctx, request{op: "auth.profile", method: http.MethodGet, path: "/auth/profile", token: token}, &data); err != nil {
		return nil, err
	}
	user := data.Usuario.toDomain()
	return &user, nil
}
