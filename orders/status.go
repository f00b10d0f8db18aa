/*
status.go - Order Settlement State Machine

PURPOSE:
  Maps the payments recorded against an order to its status. There is ONE
  implementation of the rule (DeriveStatus); every payment-writing path goes
  through Settle.

STATES:
  pending -> confirmed -> completed     derived from payments, monotonic
  pending | confirmed -> cancelled      explicit cancel only
  completed -> confirmed | pending      explicit, audited reopen only

COUNTING RULE:
  A payment counts toward paidTotal unless its method requires verification
  and it has not been verified. Unverified transfers are invisible here.

THRESHOLDS:
  paidTotal == 0            -> pending
  0 < paidTotal < total     -> confirmed
  paidTotal >= total        -> completed

IDEMPOTENCE:
  Settle(current, total, payments) is a pure function of its inputs. Running
  it twice with the same payment set yields the same status.
*/
package orders

import "github.com/shopspring/decimal"

// Counts reports whether p contributes to the settled amount.
func Counts(p Payment) bool {
	return !p.Method.RequiresVerification() || p.TransferVerified
}

// PaidTotal sums the payments that count.
func PaidTotal(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if Counts(p) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// DeriveStatus is the payment-sum-to-status mapping.
func DeriveStatus(totalAmount, paidTotal decimal.Decimal) Status {
	switch {
	case !paidTotal.IsPositive():
		return StatusPending
	case paidTotal.LessThan(totalAmount):
		return StatusConfirmed
	default:
		return StatusCompleted
	}
}

// Settle applies DeriveStatus to an order in state current. Completed and
// cancelled are never left implicitly.
func Settle(current Status, totalAmount, paidTotal decimal.Decimal) Status {
	if current == StatusCompleted || current == StatusCancelled {
		return current
	}
	return DeriveStatus(totalAmount, paidTotal)
}

// DepositSettled is true once a positive deposit is covered by counted payments.
func DepositSettled(deposit, paidTotal decimal.Decimal) bool {
	return deposit.IsPositive() && paidTotal.GreaterThanOrEqual(deposit)
}
