package domain

import "errors"

// Error classes shared by every order use case. Callers wrap them with
// fmt.Errorf("%w: ...") and classify with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrCouponExhausted is raised at commit time when a usage cap was reached
	// between evaluation and persistence.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)
