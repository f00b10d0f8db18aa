/*
store.go - Persistence interfaces for orders and payments

ATOMIC UNITS:
  Order creation writes the header and every item through one Tx. Payment
  writes and the status update they trigger share one Tx too. If fn returns
  an error nothing it wrote is visible.

SEE ALSO:
  - store/sqlite/orders.go: SQLite implementation
*/
package orders

import (
	"context"
	"time"

	"github.com/VincentYu328/luckystar-sub000/core"
)

type Reader interface {
	core.Catalog

	// GetOrder returns the header with its items, or a NotFound.
	GetOrder(ctx context.Context, id OrderID) (*Order, error)

	// ListOrders returns headers, newest first. An empty status matches all.
	ListOrders(ctx context.Context, status Status) ([]Order, error)

	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)

	// ListPayments returns payments in creation order.
	ListPayments(ctx context.Context, orderType string, orderID OrderID) ([]Payment, error)
}

type Writer interface {
	// InsertOrder sets order.ID. A number collision returns an error
	// matching ErrDuplicateOrderNumber.
	InsertOrder(ctx context.Context, order *Order) error

	// InsertItem sets item.ID.
	InsertItem(ctx context.Context, item *Item) error

	// UpdateOrderState writes the derived fields.
	UpdateOrderState(ctx context.Context, id OrderID, status Status, depositPaid bool, at time.Time) error

	// InsertPayment sets p.ID.
	InsertPayment(ctx context.Context, p *Payment) error

	// MarkPaymentVerified flips transfer_verified. It is the only payment update.
	MarkPaymentVerified(ctx context.Context, id PaymentID, verifier core.ActorID, at time.Time) error
}

type Tx interface {
	Reader
	Writer
}

type Store interface {
	Reader

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
