package orders

import (
	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// Totals are the header amounts derived from the lines and the discount.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// LineSubtotal is unit price times quantity, rounded to cents.
func LineSubtotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return core.RoundMoney(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// ComputeTotals sums the line subtotals and applies the discount. A non-zero
// rate takes precedence over the flat amount. The total never goes below zero.
func ComputeTotals(items []Item, d Discount) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
	}

	discount := d.Amount
	if !d.Rate.IsZero() {
		discount = subtotal.Mul(d.Rate)
	}
	discount = core.RoundMoney(discount)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{Subtotal: subtotal, Discount: discount, Total: total}
}

// Validate rejects negative amounts and rates outside [0, 1].
func (d Discount) Validate() error {
	if d.Amount.IsNegative() {
		return invalid("discount", "amount must not be negative")
	}
	if d.Rate.IsNegative() || d.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("discount_rate", "must be between 0 and 1")
	}
	return nil
}
