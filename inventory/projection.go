/*
projection.go - Stock projection strategies

PURPOSE:
  Decides what happens to StockLevel when the ledger grows. The mode flag
  selects one of two strategies at call time:

  EnforcedProjection (prod):
    ledger append + StockLevel upsert (quantity_on_hand += quantity_change)
    inside the SAME atomic unit. If the upsert fails the append is rolled
    back with it.

  DeferredProjection (dev):
    ledger append only. StockLevel is refreshed by Rebuild. Seed and test
    data can pile up without paying for balance maintenance.

READS:
  Garments report StockLevel.quantity_on_hand. Fabrics report the net of
  their ledger aggregation, which is fresh in either mode and also exposes
  total received and total consumed.

SEE ALSO:
  - mode.go: Which guarantee each strategy gives
  - checker.go: Rebuild and reconciliation
*/
package inventory

import (
	"context"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// Projection maintains StockLevel for appended ledger entries.
type Projection interface {
	Mode() Mode

	// Append writes entry through the ledger and maintains the balance.
	// It runs inside tx; any error rolls back the whole unit.
	Append(ctx context.Context, tx Tx, entry *Transaction) error
}

// ProjectionFor selects the strategy for mode.
func ProjectionFor(mode Mode) Projection {
	if mode == ModeDev {
		return DeferredProjection{}
	}
	return EnforcedProjection{}
}

// =============================================================================
// ENFORCED - prod
// =============================================================================

type EnforcedProjection struct{}

func (EnforcedProjection) Mode() Mode { return ModeProd }

func (EnforcedProjection) Append(ctx context.Context, tx Tx, entry *Transaction) error {
	if err := NewLedger(tx).Append(ctx, entry); err != nil {
		return err
	}
	if err := tx.AdjustStockLevel(ctx, entry.ProductID, entry.QuantityChange, entry.CreatedAt); err != nil {
		return core.Storage("update stock level", err)
	}
	return nil
}

// =============================================================================
// DEFERRED - dev
// =============================================================================

type DeferredProjection struct{}

func (DeferredProjection) Mode() Mode { return ModeDev }

func (DeferredProjection) Append(ctx context.Context, tx Tx, entry *Transaction) error {
	return NewLedger(tx).Append(ctx, entry)
}

// =============================================================================
// READS
// =============================================================================

// CurrentLevel returns quantity_on_hand for p as the catalog and sale paths see it.
func CurrentLevel(ctx context.Context, r Reader, p core.Product) (int64, error) {
	if p.Type == core.ProductFabric {
		fs, err := r.FabricStock(ctx, p.ID)
		if err != nil {
			return 0, core.Storage("read fabric stock", err)
		}
		return fs.Net, nil
	}
	level, ok, err := r.StockLevel(ctx, p.ID)
	if err != nil {
		return 0, core.Storage("read stock level", err)
	}
	if !ok {
		return 0, nil
	}
	return level.QuantityOnHand, nil
}
