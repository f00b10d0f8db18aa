package orders_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/VincentYu328/luckystar-sub000/orders"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		total, paid string
		want        orders.Status
	}{
		{"100", "0", orders.StatusPending},
		{"100", "0.01", orders.StatusConfirmed},
		{"100", "99.99", orders.StatusConfirmed},
		{"100", "100", orders.StatusCompleted},
		{"100", "150", orders.StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.total+"/"+tc.paid, func(t *testing.T) {
			assert.Equal(t, tc.want, orders.DeriveStatus(money(tc.total), money(tc.paid)))
		})
	}
}

func TestSettle_IsIdempotent(t *testing.T) {
	total, paid := money("100"), money("40")
	first := orders.Settle(orders.StatusPending, total, paid)
	second := orders.Settle(first, total, paid)
	assert.Equal(t, orders.StatusConfirmed, first)
	assert.Equal(t, first, second)
}

func TestSettle_NeverLeavesCompletedOrCancelled(t *testing.T) {
	assert.Equal(t, orders.StatusCompleted, orders.Settle(orders.StatusCompleted, money("100"), money("10")))
	assert.Equal(t, orders.StatusCompleted, orders.Settle(orders.StatusCompleted, money("100"), decimal.Zero))
	assert.Equal(t, orders.StatusCancelled, orders.Settle(orders.StatusCancelled, money("100"), money("100")))
}

func TestPaidTotal_IgnoresUnverifiedTransfers(t *testing.T) {
	payments := []orders.Payment{
		{Amount: money("30"), Method: orders.MethodCash},
		{Amount: money("20"), Method: orders.MethodCard},
		{Amount: money("50"), Method: orders.MethodTransfer},
		{Amount: money("5"), Method: orders.MethodTransfer, TransferVerified: true},
	}
	assert.True(t, money("55").Equal(orders.PaidTotal(payments)))
	assert.True(t, orders.Counts(payments[0]))
	assert.False(t, orders.Counts(payments[2]))
}

func TestDepositSettled(t *testing.T) {
	assert.False(t, orders.DepositSettled(decimal.Zero, money("10")), "no deposit requested")
	assert.False(t, orders.DepositSettled(money("30"), money("29.99")))
	assert.True(t, orders.DepositSettled(money("30"), money("30")))
}
