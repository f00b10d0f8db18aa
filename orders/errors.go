package orders

import (
	"errors"
	"fmt"

	"github.com/VincentYu328/luckystar-sub000/core"
)

var (
	ErrEmptyOrder = errors.New("order has no items")

	// ErrDuplicateOrderNumber is returned by Tx.InsertOrder on a number
	// collision. CreateOrder retries it with a fresh number.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrNotTransfer       = errors.New("payment is not a transfer")
)

func OrderNotFound(id OrderID) error {
	return &core.NotFoundError{Kind: "order", ID: fmt.Sprint(id)}
}

func PaymentNotFound(id PaymentID) error {
	return &core.NotFoundError{Kind: "payment", ID: fmt.Sprint(id)}
}

// DuplicateOrderNumber builds the Conflict a store returns on collision.
func DuplicateOrderNumber(number string) error {
	return &core.ConflictError{Resource: "order number", Value: number, Err: ErrDuplicateOrderNumber}
}

// TransitionError reports a cancel or reopen from the wrong state.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() []error {
	return []error{core.ErrValidation, ErrInvalidTransition}
}

func invalid(field, reason string) error {
	return &core.ValidationError{Field: field, Reason: reason}
}
