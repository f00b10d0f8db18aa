package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
)

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name string
		tx   inventory.Transaction
		ok   bool
	}{
		{"incoming positive", inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionIn, QuantityChange: 5}, true},
		{"outgoing negative", inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionOut, QuantityChange: -5}, true},
		{"incoming negative", inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionIn, QuantityChange: -5}, false},
		{"outgoing positive", inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionOut, QuantityChange: 5}, false},
		{"zero", inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionIn}, false},
		{"unknown direction", inventory.Transaction{ProductID: shirtID, Direction: "sideways", QuantityChange: 1}, false},
		{"missing product", inventory.Transaction{Direction: inventory.DirectionIn, QuantityChange: 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestLedger_AppendAssignsIDsAndKeepsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx inventory.Tx) error {
		ledger := inventory.NewLedger(tx)
		first := &inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionIn, QuantityChange: 50, CreatedAt: fixedNow}
		second := &inventory.Transaction{ProductID: shirtID, Direction: inventory.DirectionOut, QuantityChange: -20, CreatedAt: fixedNow}
		require.NoError(t, ledger.Append(ctx, first))
		require.NoError(t, ledger.Append(ctx, second))
		assert.NotZero(t, first.ID)
		assert.Greater(t, second.ID, first.ID)

		sum, err := ledger.Sum(ctx, shirtID)
		require.NoError(t, err)
		assert.Equal(t, int64(30), sum)

		txs, err := ledger.ListByProduct(ctx, shirtID)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, int64(50), txs[0].QuantityChange)
		assert.Equal(t, int64(-20), txs[1].QuantityChange)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_AppendUnknownProduct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx inventory.Tx) error {
		return inventory.NewLedger(tx).Append(ctx, &inventory.Transaction{
			ProductID: 999, Direction: inventory.DirectionIn, QuantityChange: 1,
		})
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, err, core.ErrProductNotFound)

	sums, err := store.LedgerSums(ctx)
	require.NoError(t, err)
	assert.Empty(t, sums)
}
