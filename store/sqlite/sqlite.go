/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the shop using one SQLite
  database: the product catalog, the stock ledger and its projection, orders
  and payments, the settings flag and the audit log.

INTERFACES IMPLEMENTED:
  inventory.Store:  via Store.Inventory()
  orders.Store:     via Store.Orders()
  core.Catalog:     Store.GetProduct
  core.AuditSink:   Store.AppendAudit

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on inventory_transactions
  - No DELETE statements on inventory_transactions
  - Triggers reject both at the database level as well
  - Payments are only ever updated to flip transfer_verified

KEY TABLES:
  products:               Catalog
  inventory_transactions: Immutable ledger of all stock movements
  stock_levels:           Projection, one row per product
  fabric_stock (view):    Ledger aggregation for fabrics
  orders, order_items:    Order header and lines (items cascade)
  payments:               Keyed by (order_type, order_id)
  settings:               Single-row flags such as inventory_mode
  audit_log:              Who did what when

CONCURRENCY:
  There is no in-process locking. Every atomic unit is a BEGIN IMMEDIATE
  transaction (_txlock=immediate) so writers serialize in the engine and wait
  up to _busy_timeout instead of failing on a lock upgrade.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/tailorshop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  stock := inventory.NewService(store.Inventory(), inventory.Options{})

MIGRATION:
  Versioned migrations are embedded (migrations/*.sql) and applied by New()
  with golang-migrate.

SEE ALSO:
  - inventory/store.go, orders/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/VincentYu328/luckystar-sub000/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements all storage interfaces using SQLite.
type Store struct {
	conn
	db *sqlx.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{conn: conn{q: db}, db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Inventory returns the inventory.Store view.
func (s *Store) Inventory() *InventoryStore {
	return &InventoryStore{conn: s.conn, s: s}
}

// Orders returns the orders.Store view.
func (s *Store) Orders() *OrderStore {
	return &OrderStore{conn: s.conn, s: s}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migration instance: %w", err)
	}
	// m.Close would close db as well; the source is an embedded FS.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// =============================================================================
// CONNECTION - Shared by the store and its transactions
// =============================================================================

// conn runs queries against either the pool or an open transaction.
type conn struct {
	q sqlx.ExtContext
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// withTx executes fn within a database transaction.
func (s *Store) withTx(ctx context.Context, fn func(*txStore) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.Storage("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{conn: conn{q: tx}}); err != nil {
		return err
	}
	return core.Storage("commit", tx.Commit())
}

// withReadTx executes fn within a transaction that never commits. The driver
// begins it with the DSN's _txlock, so a writer mid-commit is waited out and
// every read sees the same state.
func (s *Store) withReadTx(ctx context.Context, fn func(conn) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return core.Storage("begin read transaction", err)
	}
	defer tx.Rollback()

	return fn(conn{q: tx})
}

// txStore is the view handed to WithTx callbacks. It implements both
// inventory.Tx and orders.Tx.
type txStore struct {
	conn
}

// =============================================================================
// HELPERS
// =============================================================================

// isUniqueViolation reports a UNIQUE failure on column ("table.column").
func isUniqueViolation(err error, column string) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(se.Error(), column)
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.Storage(op, err)
	}
	return n, nil
}
