package inventory

import (
	"errors"
	"fmt"

	"github.com/VincentYu328/luckystar-sub000/core"
)

var (
	// ErrInvalidQuantity is the InsufficientContext failure: a movement
	// quantity that is zero or negative.
	ErrInvalidQuantity = errors.New("movement quantity must be positive")

	// ErrInsufficientStock is returned when the negative-stock guard is on.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	ProductID core.ProductID
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() []error {
	return []error{core.ErrValidation, ErrInsufficientStock}
}

// ConsistencyError is raised when the checker finds divergence in prod mode.
// It is an operational alert, never auto-corrected.
type ConsistencyError struct {
	Mode        Mode
	Divergences []Divergence
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%d product(s) diverge from the ledger in %s mode", len(e.Divergences), e.Mode)
}

func (e *ConsistencyError) Unwrap() error { return core.ErrConsistency }

func invalidQuantity(qty int64) error {
	return &core.ValidationError{
		Field:  "quantity",
		Reason: fmt.Sprintf("must be greater than zero, got %d", qty),
		Err:    ErrInvalidQuantity,
	}
}
