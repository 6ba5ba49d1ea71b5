package service

import "errors"

var (
	// ErrNotFound: the referenced property or purchase request does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrForbidden: the acting user may not touch this request.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState: the operation is not permitted from the request's
	// current status.
	ErrInvalidState = errors.New("invalid_state")
	// ErrPaymentGateway: the gateway call failed. The request is left in a
	// well-defined local state before this surfaces.
	ErrPaymentGateway = errors.New("payment_gateway_error")
	// ErrVerificationFailed: the payment signature did not verify. Logged
	// distinctly because it can indicate tampering.
	ErrVerificationFailed = errors.New("payment_verification_failed")
)
