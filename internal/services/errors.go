package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

// ServiceError carries a machine-readable code so HTTP handlers can map
// failures to status codes without string matching.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error      { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error     { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error     { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error { return &ServiceError{Code: ErrorUnauthorized, Message: msg} }

// CodeOf extracts the service error code, or "" for plain errors
// (store failures and the like).
func CodeOf(err error) ErrorCode {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
