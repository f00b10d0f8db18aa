/*
errors.go - Error taxonomy for the inventory and order subsystems

PURPOSE:
  Every operation converts its failures into one of five categories before
  returning. Callers decide on presentation (4xx vs 5xx, retry vs alert) by
  category alone, using errors.Is against the sentinels below.

ERROR CATEGORIES:
  NotFound     - referenced product/order/payment does not exist
  Validation   - malformed input, rejected before any write
  Conflict     - uniqueness collision, retryable with fresh input
  Consistency  - checker found divergence in production mode
  Storage      - the atomic unit failed; nothing was applied

USAGE:
  if errors.Is(err, core.ErrNotFound) {
      // 404
  }

SEE ALSO:
  - inventory/ledger.go, orders/service.go: wrap these with domain detail
  - api/errors.go: HTTP mapping
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrConsistency = errors.New("stock projection diverges from ledger")
	ErrStorage     = errors.New("storage failure")

	// ErrProductNotFound is the catalog's NotFound.
	ErrProductNotFound = &NotFoundError{Kind: "product"}
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record. ID is empty for the bare kind sentinel.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Is lets a NotFoundError with an ID match the kind sentinel (ErrProductNotFound).
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.ID == "" || t.ID == e.ID)
}

// ValidationError describes malformed input.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // optional domain sentinel, e.g. inventory.ErrInvalidQuantity
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// ConflictError reports a uniqueness collision.
type ConflictError struct {
	Resource string
	Value    string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Value)
}

func (e *ConflictError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConflict, e.Err}
	}
	return []error{ErrConflict}
}

// StorageError wraps a failed atomic unit. Op names the step that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// Storage wraps err as a StorageError unless it already belongs to the taxonomy.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Categorized(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// Categorized reports whether err already carries one of the taxonomy sentinels.
func Categorized(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrConsistency) ||
		errors.Is(err, ErrStorage)
}

// IsRetryable returns true if the error might succeed on retry with fresh input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorage returns true if the atomic unit itself failed.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
