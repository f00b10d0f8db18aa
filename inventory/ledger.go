/*
ledger.go - Append-only stock movement log

PURPOSE:
  The ledger is the source of truth for quantities. Every purchase, sale and
  correction is one row; balances are derived from it.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. SIGNED: direction "in" carries a positive quantity_change, "out" a
     negative one. Zero-quantity rows are never written.
  3. ORDERED: (created_at, id) is the total replay order for a product.

CORRECTIONS:
  A wrong count is fixed with a new row whose reason is "correction" and whose
  sign offsets the error. Both rows remain.

CONCURRENCY:
  Each append is a single insert inside the caller's atomic unit. Concurrent
  appends for the same product are serialized by the storage engine, not by
  this package.

SEE ALSO:
  - store.go: Writer.AppendTransaction
  - projection.go: What happens to StockLevel after an append
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// LedgerStore is what the ledger needs from a store handle. Tx satisfies it.
type LedgerStore interface {
	Reader
	Writer
}

// Ledger is bound to one store handle, normally the Tx of an atomic unit.
type Ledger struct {
	store LedgerStore
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// Append validates and inserts one entry, setting entry.ID.
// This is the ONLY write operation.
func (l *Ledger) Append(ctx context.Context, entry *Transaction) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if _, err := l.store.GetProduct(ctx, entry.ProductID); err != nil {
		return err
	}
	if err := l.store.AppendTransaction(ctx, entry); err != nil {
		return core.Storage("append ledger entry", err)
	}
	return nil
}

// ListByProduct returns entries in replay order.
func (l *Ledger) ListByProduct(ctx context.Context, id core.ProductID) ([]Transaction, error) {
	txs, err := l.store.ListByProduct(ctx, id)
	return txs, core.Storage("list ledger", err)
}

// Sum is the fresh signed sum for one product.
func (l *Ledger) Sum(ctx context.Context, id core.ProductID) (int64, error) {
	sum, err := l.store.LedgerSum(ctx, id)
	return sum, core.Storage("sum ledger", err)
}

// Validate checks the sign/direction pairing.
func (t Transaction) Validate() error {
	switch t.Direction {
	case DirectionIn:
		if t.QuantityChange <= 0 {
			return invalidQuantity(t.QuantityChange)
		}
	case DirectionOut:
		if t.QuantityChange >= 0 {
			return invalidQuantity(-t.QuantityChange)
		}
	default:
		return &core.ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", t.Direction)}
	}
	if t.ProductID <= 0 {
		return &core.ValidationError{Field: "product_id", Reason: "required"}
	}
	return nil
}

// newEntry builds a ledger row from a signed quantity.
func newEntry(productID core.ProductID, delta int64, meta Metadata) Transaction {
	dir := DirectionIn
	if delta < 0 {
		dir = DirectionOut
	}
	actor := meta.OperatedBy
	if actor == "" {
		actor = core.ActorSystem
	}
	return Transaction{
		ProductID:      productID,
		Direction:      dir,
		QuantityChange: delta,
		ReferenceType:  meta.ReferenceType,
		ReferenceID:    meta.ReferenceID,
		Reason:         meta.Reason,
		OperatedBy:     actor,
	}
}
