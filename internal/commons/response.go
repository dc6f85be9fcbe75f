package commons

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cumbre/internal/dto"
	apperrors "cumbre/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// ErrorStatus maps an error to its HTTP status and error code.
func ErrorStatus(err error) (int, string) {
	if _, ok := apperrors.IsValidationError(err); ok {
		return http.StatusBadRequest, "VALIDATION_ERROR"
	}
	if _, ok := apperrors.IsNotAuthenticatedError(err); ok {
		return http.StatusUnauthorized, "NOT_AUTHENTICATED"
	}
	if _, ok := apperrors.IsForbiddenError(err); ok {
		return http.StatusForbidden, "FORBIDDEN"
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return http.StatusNotFound, "NOT_FOUND"
	}
	if _, ok := apperrors.IsEmptyCartError(err); ok {
		return http.StatusConflict, "EMPTY_CART"
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		return http.StatusConflict, "CONFLICT"
	}
	if be, ok := apperrors.IsBackendError(err); ok {
		if be.StatusCode >= 400 && be.StatusCode < 500 {
			return http.StatusUnprocessableEntity, "BACKEND_REJECTED"
		}
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// WriteError writes err as an ErrorResponse. Unexpected errors are logged and
// their message hidden.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	WriteErrorWith(w, r, err, logger, nil)
}

// WriteErrorWith is WriteError with a hook to decorate the response.
func WriteErrorWith(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger, decorate func(*dto.ErrorResponse)) {
	status, code := ErrorStatus(err)

	resp := dto.ErrorResponse{
		TraceID:   TraceID(r.Context()),
		Status:    status,
		Code:      code,
		Message:   apperrors.UserMessage(err),
		Timestamp: time.Now().UTC(),
	}
	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Details = ve.Details
		resp.Fields = ve.Fields()
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", zap.String("code", code), zap.Error(err))
	default:
		logger.Warn("request rejected", zap.String("code", code), zap.Error(err))
	}

	if decorate != nil {
		decorate(&resp)
	}
	WriteJSON(w, status, resp, logger)
}

// DecodeJSON decodes the request body into v, reporting malformed JSON as a
// validation error on the body field.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}
