package cart

import (
	"errors"
	"fmt"
)

var (
	ErrNoCustomer           = errors.New("no customer selected")
	ErrEmptyCart            = errors.New("empty cart")
	ErrExceedsStock         = errors.New("quantity exceeds available stock")
	ErrPastDueDate          = errors.New("due date is in the past")
	ErrDueDateNotAllowed    = errors.New("due date only applies to deferred payment")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrInvalidProduct       = errors.New("invalid product")

	// ErrCheckoutInFlight is returned for any mutation or second checkout
	// attempted while a submission is pending.
	ErrCheckoutInFlight = errors.New("checkout already in progress")

	// ErrLineNotFound means the caller referenced a product that is not in the cart.
	ErrLineNotFound = errors.New("product not in cart")
)

// ValidationError is a local rejection raised before anything reaches the
// submission service. Err is one of the sentinel errors above.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// SubmissionError wraps a failure reported by the submission service, either
// a transport failure or a server-side rejection. The cart is left untouched.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "submit sale: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Reason is the human readable message to show the operator.
func (e *SubmissionError) Reason() string {
	return e.Err.Error()
}

// IsValidation reports whether err is a local validation error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
