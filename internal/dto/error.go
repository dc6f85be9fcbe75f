package dto

import (
	"time"

	apperrors "cumbre/internal/errors"
)

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Fields    map[string]string            `json:"fields,omitempty"`
	Checkout  *CheckoutDTO                 `json:"checkout,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func errorMessage(err error) string {
	return apperrors.UserMessage(err)
}
