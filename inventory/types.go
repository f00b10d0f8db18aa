/*
Package inventory keeps physical stock counts consistent.

PURPOSE:
  Every stock movement (goods received, garment sold, count correction) is
  appended to an immutable ledger. Current balances are a projection of that
  ledger, maintained either synchronously (prod mode) or by explicit rebuild
  (dev mode). A read-only checker audits the projection against the ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: one immutable ledger row (signed quantity_change)
  - StockLevel: projected balance per product
  - FabricStock: received/consumed/net figures for fabrics
  - Divergence: a product whose projected balance disagrees with the ledger

DESIGN PRINCIPLES:
  1. Append-only: corrections are offsetting entries, never edits
  2. Quantities are whole units (int64); "in" is positive, "out" is negative
  3. Ledger order (created_at, then id) is the authoritative replay order

SEE ALSO:
  - ledger.go: Append and history
  - projection.go: Enforced and deferred balance maintenance
  - checker.go: Reconciliation and rebuild
  - mode.go: The persisted dev/prod flag
*/
package inventory

import (
	"time"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// =============================================================================
// LEDGER ENTRY
// =============================================================================

type TransactionID int64

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Common reasons. Free text is allowed; these are the ones the system writes.
const (
	ReasonPurchase   = "purchase"
	ReasonSale       = "sale"
	ReasonCorrection = "correction"
	ReasonOpening    = "opening_balance"
)

// Transaction is one immutable ledger row.
type Transaction struct {
	ID             TransactionID  `json:"id" db:"id"`
	ProductID      core.ProductID `json:"product_id" db:"product_id"`
	Direction      Direction      `json:"direction" db:"direction"`
	QuantityChange int64          `json:"quantity_change" db:"quantity_change"`
	ReferenceType  string         `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceID    string         `json:"reference_id,omitempty" db:"reference_id"`
	Reason         string         `json:"reason,omitempty" db:"reason"`
	OperatedBy     core.ActorID   `json:"operated_by" db:"operated_by"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// Metadata is the caller-supplied context of a movement.
type Metadata struct {
	ReferenceType string
	ReferenceID   string
	Reason        string
	OperatedBy    core.ActorID
}

// =============================================================================
// PROJECTION ROWS
// =============================================================================

// StockLevel is the projected balance for one product.
type StockLevel struct {
	ProductID      core.ProductID `json:"product_id" db:"product_id"`
	QuantityOnHand int64          `json:"quantity_on_hand" db:"quantity_on_hand"`
	LastUpdated    time.Time      `json:"last_updated" db:"last_updated"`
}

// FabricStock separates what was received from what was consumed.
// Net is always the signed ledger sum.
type FabricStock struct {
	ProductID core.ProductID `json:"product_id" db:"product_id"`
	TotalIn   int64          `json:"total_in" db:"total_in"`
	TotalOut  int64          `json:"total_out" db:"total_out"`
	Net       int64          `json:"net" db:"net"`
}

// Divergence is one row of a reconciliation report.
type Divergence struct {
	ProductID       core.ProductID `json:"product_id"`
	SKU             string         `json:"sku"`
	Name            string         `json:"name"`
	DeclaredBalance int64          `json:"declared_balance"`
	ComputedBalance int64          `json:"computed_balance"`
}

// Drift is how far the projection lags the ledger.
func (d Divergence) Drift() int64 { return d.ComputedBalance - d.DeclaredBalance }
