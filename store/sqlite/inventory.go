package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
)

// =============================================================================
// INVENTORY STORE (inventory.Store interface)
// =============================================================================

// InventoryStore is the inventory.Store view of the database.
type InventoryStore struct {
	conn
	s *Store
}

// WithTx executes fn within a database transaction.
// If fn returns error, transaction is rolled back.
func (i *InventoryStore) WithTx(ctx context.Context, fn func(inventory.Tx) error) error {
	return i.s.withTx(ctx, func(tx *txStore) error { return fn(tx) })
}

// WithSnapshot runs fn inside a transaction that is always rolled back.
// Every statement in it reads the same database snapshot.
func (i *InventoryStore) WithSnapshot(ctx context.Context, fn func(inventory.Reader) error) error {
	return i.s.withReadTx(ctx, func(c conn) error { return fn(c) })
}

// =============================================================================
// LEDGER READS
// =============================================================================

func (c conn) ListByProduct(ctx context.Context, id core.ProductID) ([]inventory.Transaction, error) {
	var txs []inventory.Transaction
	err := sqlx.SelectContext(ctx, c.q, &txs, `
		SELECT id, product_id, direction, quantity_change, reference_type, reference_id,
		       reason, operated_by, created_at
		FROM inventory_transactions
		WHERE product_id = ?
		ORDER BY created_at, id`, id)
	if err != nil {
		return nil, core.Storage("list ledger", err)
	}
	return txs, nil
}

func (c conn) LedgerSum(ctx context.Context, id core.ProductID) (int64, error) {
	var sum int64
	err := sqlx.GetContext(ctx, c.q, &sum,
		`SELECT COALESCE(SUM(quantity_change), 0) FROM inventory_transactions WHERE product_id = ?`, id)
	if err != nil {
		return 0, core.Storage("sum ledger", err)
	}
	return sum, nil
}

func (c conn) LedgerSums(ctx context.Context) (map[core.ProductID]int64, error) {
	var rows []struct {
		ProductID core.ProductID `db:"product_id"`
		Total     int64          `db:"total"`
	}
	err := sqlx.SelectContext(ctx, c.q, &rows,
		`SELECT product_id, SUM(quantity_change) AS total FROM inventory_transactions GROUP BY product_id`)
	if err != nil {
		return nil, core.Storage("sum ledger", err)
	}
	sums := make(map[core.ProductID]int64, len(rows))
	for _, r := range rows {
		sums[r.ProductID] = r.Total
	}
	return sums, nil
}

// =============================================================================
// PROJECTION READS
// =============================================================================

func (c conn) StockLevel(ctx context.Context, id core.ProductID) (inventory.StockLevel, bool, error) {
	var level inventory.StockLevel
	err := sqlx.GetContext(ctx, c.q, &level,
		`SELECT product_id, quantity_on_hand, last_updated FROM stock_levels WHERE product_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.StockLevel{}, false, nil
	}
	if err != nil {
		return inventory.StockLevel{}, false, core.Storage("read stock level", err)
	}
	return level, true, nil
}

func (c conn) StockLevels(ctx context.Context) (map[core.ProductID]inventory.StockLevel, error) {
	var rows []inventory.StockLevel
	err := sqlx.SelectContext(ctx, c.q, &rows,
		`SELECT product_id, quantity_on_hand, last_updated FROM stock_levels`)
	if err != nil {
		return nil, core.Storage("read stock levels", err)
	}
	levels := make(map[core.ProductID]inventory.StockLevel, len(rows))
	for _, r := range rows {
		levels[r.ProductID] = r
	}
	return levels, nil
}

// FabricStock reads the fabric_stock view. Products without a row report zeros.
func (c conn) FabricStock(ctx context.Context, id core.ProductID) (inventory.FabricStock, error) {
	var fs inventory.FabricStock
	err := sqlx.GetContext(ctx, c.q, &fs,
		`SELECT product_id, total_in, total_out, net FROM fabric_stock WHERE product_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.FabricStock{ProductID: id}, nil
	}
	if err != nil {
		return inventory.FabricStock{}, core.Storage("read fabric stock", err)
	}
	return fs, nil
}

// =============================================================================
// WRITES (inventory.Writer, transaction only)
// =============================================================================

func (ts *txStore) AppendTransaction(ctx context.Context, tx *inventory.Transaction) error {
	res, err := sqlx.NamedExecContext(ctx, ts.q, `
		INSERT INTO inventory_transactions (
			product_id, direction, quantity_change, reference_type, reference_id,
			reason, operated_by, created_at
		) VALUES (
			:product_id, :direction, :quantity_change, :reference_type, :reference_id,
			:reason, :operated_by, :created_at
		)`, tx)
	if err != nil {
		return core.Storage("append ledger entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Storage("append ledger entry", err)
	}
	tx.ID = inventory.TransactionID(id)
	return nil
}

func (ts *txStore) AdjustStockLevel(ctx context.Context, id core.ProductID, delta int64, at time.Time) error {
	_, err := ts.q.ExecContext(ctx, `
		INSERT INTO stock_levels (product_id, quantity_on_hand, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			quantity_on_hand = quantity_on_hand + excluded.quantity_on_hand,
			last_updated = excluded.last_updated`, id, delta, at)
	return core.Storage("adjust stock level", err)
}

func (ts *txStore) ReplaceStockLevels(ctx context.Context, levels map[core.ProductID]int64, at time.Time) error {
	for id, qty := range levels {
		_, err := ts.q.ExecContext(ctx, `
			INSERT INTO stock_levels (product_id, quantity_on_hand, last_updated)
			VALUES (?, ?, ?)
			ON CONFLICT(product_id) DO UPDATE SET
				quantity_on_hand = excluded.quantity_on_hand,
				last_updated = excluded.last_updated`, id, qty, at)
		if err != nil {
			return core.Storage("replace stock level", err)
		}
	}
	return nil
}
