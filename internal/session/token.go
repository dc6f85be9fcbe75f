package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	UserID int    `json:"id_usuario"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Claims is what the storefront reads from a bearer token. The backend signs
// and verifies tokens; here they are only decoded.
type Claims struct {
	UserID    int
	Email     string
	ExpiresAt *time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

func parseClaims(token string) (*Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("decoding token claims: %w", err)
	}

	claims := &Claims{UserID: tc.UserID, Email: tc.Email}
	if tc.ExpiresAt != nil {
		exp := tc.ExpiresAt.Time
		claims.ExpiresAt = &exp
	}
	return claims, nil
}
