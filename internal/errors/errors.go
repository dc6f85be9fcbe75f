package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Fields flattens the details into a field -> message map, keeping the first
// message reported for each field.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Details))
	for _, d := range e.Details {
		if _, ok := fields[d.Field]; !ok {
			fields[d.Field] = d.Message
		}
	}
	return fields
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// NotAuthenticatedError is returned by cart and checkout mutations attempted
// without a logged-in user.
type NotAuthenticatedError struct {
	Message string
}

func (e *NotAuthenticatedError) Error() string {
	return e.Message
}

func NewNotAuthenticatedError(message string) *NotAuthenticatedError {
	return &NotAuthenticatedError{Message: message}
}

func IsNotAuthenticatedError(err error) (*NotAuthenticatedError, bool) {
	var nae *NotAuthenticatedError
	if stderrors.As(err, &nae) {
		return nae, true
	}
	return nil, false
}

// EmptyCartError means checkout cannot start because the cart has no items.
type EmptyCartError struct {
	Message string
}

func (e *EmptyCartError) Error() string {
	return e.Message
}

func NewEmptyCartError(message string) *EmptyCartError {
	return &EmptyCartError{Message: message}
}

func IsEmptyCartError(err error) (*EmptyCartError, bool) {
	var ece *EmptyCartError
	if stderrors.As(err, &ece) {
		return ece, true
	}
	return nil, false
}

// BackendError covers every failed call to the platform API: transport errors,
// non-2xx statuses and envelopes with success=false. Message is what the user sees.
type BackendError struct {
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

func NewBackendError(operation string, statusCode int, message string, cause error) *BackendError {
	return &BackendError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

func IsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if stderrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

// UserMessage returns the text to show in an error banner for err.
func UserMessage(err error) string {
	if be, ok := IsBackendError(err); ok && be.Message != "" {
		return be.Message
	}
	if ve, ok := IsValidationError(err); ok {
		return ve.Message
	}
	if nae, ok := IsNotAuthenticatedError(err); ok {
		return nae.Message
	}
	if ece, ok := IsEmptyCartError(err); ok {
		return ece.Message
	}
	if ce, ok := IsConflictError(err); ok {
		return ce.Message
	}
	if nfe, ok := IsNotFoundError(err); ok {
		return nfe.Message
	}
	if fe, ok := IsForbiddenError(err); ok {
		return fe.Message
	}
	return "an unexpected error occurred"
}
