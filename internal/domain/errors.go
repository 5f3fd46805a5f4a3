package domain

import "errors"

// Domain errors
var (
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrTenantNotFound        = errors.New("tenant not found")
	ErrInvalidLoanParameters = errors.New("invalid loan parameters")
	ErrUnsupportedRateType   = errors.New("unsupported rate type")
)
