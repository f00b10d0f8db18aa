/*
checker.go - Consistency Checker and projection rebuild

PURPOSE:
  Reconcile recomputes every garment balance from the ledger and compares it
  with the StockLevel row. It never writes. In prod mode the result must be
  empty; anything else means the enforcement path has a bug and is reported
  through Report.Err as a ConsistencyError.

  Rebuild is the explicit repair: StockLevel rows are overwritten with fresh
  ledger sums inside one atomic unit.

SCOPE:
  Fabric balances come from a ledger aggregation and cannot drift, so only
  garments are compared.

SEE ALSO:
  - service.go: ReconcileStock, RebuildStock
  - api/scheduler.go: Periodic audit
*/
package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// Report is the result of one reconciliation run.
type Report struct {
	Mode        Mode         `json:"mode"`
	Guarantee   string       `json:"guarantee"`
	CheckedAt   time.Time    `json:"checked_at"`
	Checked     int          `json:"checked"`
	Divergences []Divergence `json:"divergences"`
}

// Healthy is false only for divergence under prod mode.
func (r Report) Healthy() bool { return r.Err() == nil }

// Err returns a ConsistencyError when prod mode shows divergence. Divergence
// in dev mode is expected and is not an error.
func (r Report) Err() error {
	if r.Mode == ModeProd && len(r.Divergences) > 0 {
		return &ConsistencyError{Mode: r.Mode, Divergences: r.Divergences}
	}
	return nil
}

// Checker compares the projection with the ledger.
type Checker struct {
	store Reader
	now   func() time.Time
}

func NewChecker(store Reader) *Checker {
	return &Checker{store: store, now: time.Now}
}

// Reconcile lists garments whose declared balance differs from the ledger sum.
func (c *Checker) Reconcile(ctx context.Context, mode Mode) (Report, error) {
	garments, err := c.store.ListProducts(ctx, core.ProductGarment)
	if err != nil {
		return Report{}, core.Storage("list garments", err)
	}
	sums, err := c.store.LedgerSums(ctx)
	if err != nil {
		return Report{}, core.Storage("sum ledger", err)
	}
	levels, err := c.store.StockLevels(ctx)
	if err != nil {
		return Report{}, core.Storage("read stock levels", err)
	}

	report := Report{
		Mode:        mode,
		Guarantee:   mode.Guarantee(),
		CheckedAt:   c.now().UTC(),
		Checked:     len(garments),
		Divergences: []Divergence{},
	}
	for _, p := range garments {
		declared := levels[p.ID].QuantityOnHand
		computed := sums[p.ID]
		if declared != computed {
			report.Divergences = append(report.Divergences, Divergence{
				ProductID:       p.ID,
				SKU:             p.SKU,
				Name:            p.Name,
				DeclaredBalance: declared,
				ComputedBalance: computed,
			})
		}
	}
	sort.Slice(report.Divergences, func(i, j int) bool {
		return report.Divergences[i].ProductID < report.Divergences[j].ProductID
	})
	return report, nil
}

// Rebuild overwrites every product's StockLevel with its ledger sum.
// Returns the number of rows written.
func Rebuild(ctx context.Context, tx Tx, at time.Time) (int, error) {
	products, err := tx.ListProducts(ctx, "")
	if err != nil {
		return 0, core.Storage("list products", err)
	}
	sums, err := tx.LedgerSums(ctx)
	if err != nil {
		return 0, core.Storage("sum ledger", err)
	}
	levels := make(map[core.ProductID]int64, len(products))
	for _, p := range products {
		levels[p.ID] = sums[p.ID]
	}
	if err := tx.ReplaceStockLevels(ctx, levels, at); err != nil {
		return 0, core.Storage("replace stock levels", err)
	}
	return len(levels), nil
}
