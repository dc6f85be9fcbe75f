package dto

import "cumbre/internal/domain"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserDTO struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	FullName string `json:"fullName"`
	Telefono string `json:"telefono,omitempty"`
	Rol      string `json:"rol,omitempty"`
}

// SessionDTO is what the header needs: who is logged in and the cart badge.
type SessionDTO struct {
	Authenticated bool     `json:"authenticated"`
	User          *UserDTO `json:"user,omitempty"`
	CartCount     int      `json:"cartCount"`
}

func NewUser(u *domain.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:       u.ID,
		Email:    u.Email,
		Nombre:   u.Nombre,
		Apellido: u.Apellido,
		FullName: u.FullName(),
		Telefono: u.Telefono,
		Rol:      u.Rol,
	}
}

func NewSession(u *domain.User, cartCount int) SessionDTO {
	return SessionDTO{Authenticated: u != nil, User: NewUser(u), CartCount: cartCount}
}
