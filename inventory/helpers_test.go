package inventory_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
	"github.com/VincentYu328/luckystar-sub000/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	shirtID  core.ProductID = 1
	jacketID core.ProductID = 2
	linenID  core.ProductID = 10
)

var fixedNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *memory.Memory {
	t.Helper()
	store := memory.New()
	store.AddProduct(core.Product{ID: shirtID, SKU: "SH-001", Name: "Oxford Shirt", Type: core.ProductGarment, Price: decimal.NewFromInt(45)})
	store.AddProduct(core.Product{ID: jacketID, SKU: "JK-001", Name: "Wool Jacket", Type: core.ProductGarment, Price: decimal.NewFromInt(180)})
	store.AddProduct(core.Product{ID: linenID, SKU: "FB-LIN", Name: "Irish Linen", Type: core.ProductFabric, Price: decimal.RequireFromString("12.50")})
	return store
}

func newTestService(store inventory.Store, mode inventory.Mode) *inventory.Service {
	return inventory.NewService(store, inventory.Options{
		DefaultMode:   mode,
		AllowNegative: true,
		Logger:        zerolog.Nop(),
		Now:           func() time.Time { return fixedNow },
	})
}
