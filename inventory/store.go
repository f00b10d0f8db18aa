/*
store.go - Persistence interfaces for the ledger and its projection

PURPOSE:
  Separates the ledger/projection logic from the database. The production
  implementation is store/sqlite; store/memory backs the unit tests.

APPEND-ONLY CONTRACT:
  Writer exposes AppendTransaction and balance maintenance only. There is no
  update or delete of ledger rows anywhere in this interface.

ATOMIC UNITS:
  Store.WithTx runs fn inside one transaction of the underlying engine. If fn
  returns an error, everything written through the Tx is rolled back. This is
  the ONLY mechanism that pairs a ledger append with its balance update;
  there is no in-process locking.

SEE ALSO:
  - store/sqlite/inventory.go: SQLite implementation
  - store/memory/memory.go: In-memory implementation for testing
*/
package inventory

import (
	"context"
	"time"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// Reader is the read side shared by Store and Tx.
type Reader interface {
	// GetProduct fails with core.ErrProductNotFound.
	GetProduct(ctx context.Context, id core.ProductID) (*core.Product, error)

	// ListProducts returns products of the given type, or all when typ is "".
	ListProducts(ctx context.Context, typ core.ProductType) ([]core.Product, error)

	// ListByProduct returns ledger rows in replay order (created_at, id).
	ListByProduct(ctx context.Context, id core.ProductID) ([]Transaction, error)

	// LedgerSum is the signed sum of quantity_change for one product.
	LedgerSum(ctx context.Context, id core.ProductID) (int64, error)

	// LedgerSums returns the signed sum for every product with ledger rows.
	LedgerSums(ctx context.Context) (map[core.ProductID]int64, error)

	// StockLevel returns the projected row; ok is false when none exists yet.
	StockLevel(ctx context.Context, id core.ProductID) (level StockLevel, ok bool, err error)

	// StockLevels returns every projected row.
	StockLevels(ctx context.Context) (map[core.ProductID]StockLevel, error)

	// FabricStock aggregates the ledger for one product.
	FabricStock(ctx context.Context, id core.ProductID) (FabricStock, error)
}

// SettingsStore persists the single-row key/value flags.
type SettingsStore interface {
	Setting(ctx context.Context, key string) (value string, ok bool, err error)
	PutSetting(ctx context.Context, key, value string) error
}

// Writer is only available inside an atomic unit.
type Writer interface {
	// AppendTransaction inserts one row and sets tx.ID. This is the ONLY ledger write.
	AppendTransaction(ctx context.Context, tx *Transaction) error

	// AdjustStockLevel upserts the projection: quantity_on_hand += delta.
	AdjustStockLevel(ctx context.Context, id core.ProductID, delta int64, at time.Time) error

	// ReplaceStockLevels overwrites projection rows with absolute values.
	ReplaceStockLevels(ctx context.Context, levels map[core.ProductID]int64, at time.Time) error
}

// Tx is the view of the store inside one atomic unit.
type Tx interface {
	Reader
	Writer
	SettingsStore
}

// Store is the inventory persistence boundary.
type Store interface {
	Reader
	SettingsStore

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// WithSnapshot runs fn against one consistent view of the store. Reads
	// made through the Reader all see the same committed state.
	WithSnapshot(ctx context.Context, fn func(Reader) error) error
}
