// Package memory provides an in-memory inventory.Store.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	products map[core.ProductID]core.Product
	ledger   []inventory.Transaction
	levels   map[core.ProductID]inventory.StockLevel
	settings map[string]string
	nextTxID inventory.TransactionID

	// FailStockWrites makes every projection write fail. Used to prove the
	// ledger append is rolled back with it.
	FailStockWrites error
}

func New() *Memory {
	return &Memory{
		products: make(map[core.ProductID]core.Product),
		levels:   make(map[core.ProductID]inventory.StockLevel),
		settings: make(map[string]string),
	}
}

// AddProduct registers a catalog entry.
func (m *Memory) AddProduct(p core.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// =============================================================================
// READS (inventory.Reader)
// =============================================================================

func (m *Memory) GetProduct(ctx context.Context, id core.ProductID) (*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProductLocked(id)
}

func (m *Memory) ListProducts(ctx context.Context, typ core.ProductType) ([]core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listProductsLocked(typ), nil
}

func (m *Memory) ListByProduct(ctx context.Context, id core.ProductID) ([]inventory.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listByProductLocked(id), nil
}

func (m *Memory) LedgerSum(ctx context.Context, id core.ProductID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledgerSumsLocked()[id], nil
}

func (m *Memory) LedgerSums(ctx context.Context) (map[core.ProductID]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledgerSumsLocked(), nil
}

func (m *Memory) StockLevel(ctx context.Context, id core.ProductID) (inventory.StockLevel, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.levels[id]
	return l, ok, nil
}

func (m *Memory) StockLevels(ctx context.Context) (map[core.ProductID]inventory.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLevelsLocked(), nil
}

func (m *Memory) FabricStock(ctx context.Context, id core.ProductID) (inventory.FabricStock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fabricStockLocked(id), nil
}

func (m *Memory) Setting(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *Memory) PutSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// =============================================================================
// LOCKED HELPERS
// =============================================================================

func (m *Memory) getProductLocked(id core.ProductID) (*core.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "product", ID: strconv.FormatInt(int64(id), 10)}
	}
	return &p, nil
}

func (m *Memory) listProductsLocked(typ core.ProductType) []core.Product {
	var result []core.Product
	for _, p := range m.products {
		if typ == "" || p.Type == typ {
			result = append(result, p)
		}
	}
	return result
}

func (m *Memory) listByProductLocked(id core.ProductID) []inventory.Transaction {
	var result []inventory.Transaction
	for _, tx := range m.ledger {
		if tx.ProductID == id {
			result = append(result, tx)
		}
	}
	return result
}

func (m *Memory) ledgerSumsLocked() map[core.ProductID]int64 {
	sums := make(map[core.ProductID]int64)
	for _, tx := range m.ledger {
		sums[tx.ProductID] += tx.QuantityChange
	}
	return sums
}

func (m *Memory) copyLevelsLocked() map[core.ProductID]inventory.StockLevel {
	out := make(map[core.ProductID]inventory.StockLevel, len(m.levels))
	for k, v := range m.levels {
		out[k] = v
	}
	return out
}

func (m *Memory) fabricStockLocked(id core.ProductID) inventory.FabricStock {
	fs := inventory.FabricStock{ProductID: id}
	for _, tx := range m.ledger {
		if tx.ProductID != id {
			continue
		}
		if tx.Direction == inventory.DirectionIn {
			fs.TotalIn += tx.QuantityChange
		} else {
			fs.TotalOut -= tx.QuantityChange
		}
		fs.Net += tx.QuantityChange
	}
	return fs
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(inventory.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// WithSnapshot holds the read lock for the whole of fn, so no write can land
// between its reads.
func (m *Memory) WithSnapshot(ctx context.Context, fn func(inventory.Reader) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&txView{parent: m})
}

type memorySnapshot struct {
	ledger   []inventory.Transaction
	levels   map[core.ProductID]inventory.StockLevel
	settings map[string]string
	nextTxID inventory.TransactionID
}

func (m *Memory) snapshot() memorySnapshot {
	settings := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		settings[k] = v
	}
	return memorySnapshot{
		ledger:   append([]inventory.Transaction{}, m.ledger...),
		levels:   m.copyLevelsLocked(),
		settings: settings,
		nextTxID: m.nextTxID,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.ledger = s.ledger
	m.levels = s.levels
	m.settings = s.settings
	m.nextTxID = s.nextTxID
}

// txView is the inventory.Tx handed to WithTx callbacks, and the Reader
// handed to WithSnapshot. The parent lock is held in both cases.
type txView struct {
	parent *Memory
}

func (tv *txView) GetProduct(ctx context.Context, id core.ProductID) (*core.Product, error) {
	return tv.parent.getProductLocked(id)
}

func (tv *txView) ListProducts(ctx context.Context, typ core.ProductType) ([]core.Product, error) {
	return tv.parent.listProductsLocked(typ), nil
}

func (tv *txView) ListByProduct(ctx context.Context, id core.ProductID) ([]inventory.Transaction, error) {
	return tv.parent.listByProductLocked(id), nil
}

func (tv *txView) LedgerSum(ctx context.Context, id core.ProductID) (int64, error) {
	return tv.parent.ledgerSumsLocked()[id], nil
}

func (tv *txView) LedgerSums(ctx context.Context) (map[core.ProductID]int64, error) {
	return tv.parent.ledgerSumsLocked(), nil
}

func (tv *txView) StockLevel(ctx context.Context, id core.ProductID) (inventory.StockLevel, bool, error) {
	l, ok := tv.parent.levels[id]
	return l, ok, nil
}

func (tv *txView) StockLevels(ctx context.Context) (map[core.ProductID]inventory.StockLevel, error) {
	return tv.parent.copyLevelsLocked(), nil
}

func (tv *txView) FabricStock(ctx context.Context, id core.ProductID) (inventory.FabricStock, error) {
	return tv.parent.fabricStockLocked(id), nil
}

func (tv *txView) Setting(ctx context.Context, key string) (string, bool, error) {
	v, ok := tv.parent.settings[key]
	return v, ok, nil
}

func (tv *txView) PutSetting(ctx context.Context, key, value string) error {
	tv.parent.settings[key] = value
	return nil
}

func (tv *txView) AppendTransaction(ctx context.Context, tx *inventory.Transaction) error {
	tv.parent.nextTxID++
	tx.ID = tv.parent.nextTxID
	tv.parent.ledger = append(tv.parent.ledger, *tx)
	return nil
}

func (tv *txView) AdjustStockLevel(ctx context.Context, id core.ProductID, delta int64, at time.Time) error {
	if tv.parent.FailStockWrites != nil {
		return tv.parent.FailStockWrites
	}
	l := tv.parent.levels[id]
	l.ProductID = id
	l.QuantityOnHand += delta
	l.LastUpdated = at
	tv.parent.levels[id] = l
	return nil
}

func (tv *txView) ReplaceStockLevels(ctx context.Context, levels map[core.ProductID]int64, at time.Time) error {
	if tv.parent.FailStockWrites != nil {
		return tv.parent.FailStockWrites
	}
	for id, qty := range levels {
		tv.parent.levels[id] = inventory.StockLevel{ProductID: id, QuantityOnHand: qty, LastUpdated: at}
	}
	return nil
}
