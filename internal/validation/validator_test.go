package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cumbre/internal/errors"
)

type contact struct {
	Name   string `json:"nombre" validate:"required"`
	Email  string `json:"email" validate:"required,simple_email"`
	Expiry string `json:"expiracion" validate:"omitempty,card_expiry"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(New(), contact{Name: "Ana", Email: "ana@example.com", Expiry: "09/28"}, nil)
	assert.NoError(t, err)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(New(), contact{Email: "abc", Expiry: "13/28"}, nil)
	require.Error(t, err)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)

	fields := ve.Fields()
	assert.Contains(t, fields, "nombre")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "expiracion")
	assert.Equal(t, "email must be a valid email address", fields["email"])
}

func TestStruct_CustomMessages(t *testing.T) {
	messages := map[string]map[string]string{
		"nombre": {"required": "el nombre es obligatorio"},
		"email":  {"*": "email inválido"},
	}

	err := Struct(New(), contact{Email: "nope"}, messages)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)

	fields := ve.Fields()
	assert.Equal(t, "el nombre es obligatorio", fields["nombre"])
	assert.Equal(t, "email inválido", fields["email"])
}

func TestSimpleEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"ana@example.com", true},
		{"a@b.co", true},
		{"abc", false},
		{"ana@example", false},
		{"ana @example.com", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, simpleEmailRegex.MatchString(tt.email))
		})
	}
}
