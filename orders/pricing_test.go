package orders_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/orders"
)

func lines(prices ...string) []orders.Item {
	items := make([]orders.Item, len(prices))
	for i, p := range prices {
		items[i] = orders.Item{Quantity: 1, UnitPrice: money(p), Subtotal: orders.LineSubtotal(money(p), 1)}
	}
	return items
}

func TestLineSubtotal(t *testing.T) {
	assert.Equal(t, "37.50", orders.LineSubtotal(money("12.50"), 3).StringFixed(2))
	assert.Equal(t, "0.33", orders.LineSubtotal(money("0.333"), 1).StringFixed(2))
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name     string
		discount orders.Discount
		want     [3]string
	}{
		{"none", orders.Discount{}, [3]string{"150.00", "0.00", "150.00"}},
		{"flat", orders.Discount{Amount: money("20")}, [3]string{"150.00", "20.00", "130.00"}},
		{"rate", orders.Discount{Rate: money("0.1")}, [3]string{"150.00", "15.00", "135.00"}},
		{"rate wins over flat", orders.Discount{Amount: money("50"), Rate: money("0.1")}, [3]string{"150.00", "15.00", "135.00"}},
		{"floored at zero", orders.Discount{Amount: money("500")}, [3]string{"150.00", "150.00", "0.00"}},
		{"full rate", orders.Discount{Rate: decimal.NewFromInt(1)}, [3]string{"150.00", "150.00", "0.00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := orders.ComputeTotals(lines("100", "50"), tc.discount)
			assert.Equal(t, tc.want[0], got.Subtotal.StringFixed(2))
			assert.Equal(t, tc.want[1], got.Discount.StringFixed(2))
			assert.Equal(t, tc.want[2], got.Total.StringFixed(2))
		})
	}
}

func TestDiscountValidate(t *testing.T) {
	assert.NoError(t, orders.Discount{Amount: money("5"), Rate: money("0.5")}.Validate())
	assert.ErrorIs(t, orders.Discount{Amount: money("-1")}.Validate(), core.ErrValidation)
	assert.ErrorIs(t, orders.Discount{Rate: money("1.5")}.Validate(), core.ErrValidation)
	assert.ErrorIs(t, orders.Discount{Rate: money("-0.1")}.Validate(), core.ErrValidation)
}
