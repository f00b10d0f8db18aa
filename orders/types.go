/*
Package orders turns multi-line sales into orders and settles them from payments.

PURPOSE:
  An order is created in one atomic unit (header + items, prices snapshotted).
  Its status is then derived from the verified payments recorded against it;
  only cancel and the administrative reopen set it directly.

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: header with money totals and the derived status
  - Item: one line with its unit price frozen at creation
  - Payment: append-only; transfers count only once verified

DESIGN PRINCIPLES:
  1. unit_price is never re-derived from the catalog after creation
  2. Status is a function of (total_amount, counted payments), see status.go
  3. Payments are never edited except for the one-way verification flag

SEE ALSO:
  - status.go: DeriveStatus and Settle
  - pricing.go: Subtotal, discount and total
  - service.go: CreateOrder, RecordPayment, VerifyTransfer
*/
package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// =============================================================================
// ORDER
// =============================================================================

type OrderID int64

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is the header row. Items is populated by GetOrder.
type Order struct {
	ID            OrderID         `json:"id" db:"id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	CustomerID    *int64          `json:"customer_id,omitempty" db:"customer_id"`
	Status        Status          `json:"status" db:"status"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	DepositAmount decimal.Decimal `json:"deposit_amount" db:"deposit_amount"`
	DepositPaid   bool            `json:"deposit_paid" db:"deposit_paid"`
	CreatedBy     core.ActorID    `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Items []Item `json:"items,omitempty" db:"-"`
}

// Item is one order line. UnitPrice is the price snapshot.
type Item struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   OrderID         `json:"order_id" db:"order_id"`
	ProductID core.ProductID  `json:"product_id" db:"product_id"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentID int64

// OrderTypeRetail is the order_type of payments against this package's orders.
// The payment table is keyed by (order_type, order_id) so other order kinds can
// share it.
const OrderTypeRetail = "retail"

type Method string

const (
	MethodCash     Method = "cash"
	MethodCard     Method = "card"
	MethodTransfer Method = "transfer"
	MethodOther    Method = "other"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodOther:
		return true
	}
	return false
}

// RequiresVerification is true for methods that only count once verified.
func (m Method) RequiresVerification() bool { return m == MethodTransfer }

type Payment struct {
	ID               PaymentID       `json:"id" db:"id"`
	OrderType        string          `json:"order_type" db:"order_type"`
	OrderID          OrderID         `json:"order_id" db:"order_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Method           Method          `json:"method" db:"method"`
	TransferVerified bool            `json:"transfer_verified" db:"transfer_verified"`
	VerifiedBy       *core.ActorID   `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt       *time.Time      `json:"verified_at,omitempty" db:"verified_at"`
	CreatedBy        core.ActorID    `json:"created_by" db:"created_by"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// ItemRequest is one requested line. UnitPrice overrides the catalog price.
type ItemRequest struct {
	ProductID core.ProductID
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// Discount is either a flat amount or a rate in [0, 1]. A non-zero Rate wins.
type Discount struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
}

type CreateRequest struct {
	CustomerID    *int64
	Items         []ItemRequest
	Discount      Discount
	DepositAmount decimal.Decimal
	Actor         core.ActorID
}

type PaymentRequest struct {
	OrderID  OrderID
	Amount   decimal.Decimal
	Method   Method
	Verified bool
	Actor    core.ActorID
}

// Settlement is what a payment write reports back.
type Settlement struct {
	PaymentID   PaymentID       `json:"payment_id,omitempty"`
	OrderID     OrderID         `json:"order_id"`
	Previous    Status          `json:"previous_status"`
	Status      Status          `json:"status"`
	PaidTotal   decimal.Decimal `json:"paid_total"`
	DepositPaid bool            `json:"deposit_paid"`
}

// Changed reports whether the write moved the status.
func (s Settlement) Changed() bool { return s.Previous != s.Status }
