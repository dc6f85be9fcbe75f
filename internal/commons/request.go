package commons

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "cumbre/internal/errors"
	"cumbre/internal/storefront"
)

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return id, nil
}

// RequireVisitor returns the visitor attached by the session middleware and
// writes a 500 when it is missing.
func RequireVisitor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*storefront.Visitor, bool) {
	v, ok := storefront.VisitorFrom(r.Context())
	if !ok {
		WriteError(w, r, apperrors.NewInternalError("no visitor in request context", nil), logger)
		return nil, false
	}
	return v, true
}
