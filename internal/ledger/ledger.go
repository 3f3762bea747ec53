// Package ledger holds the pure money arithmetic shared by the invoice
// and payment services. Amounts are int64 values in currency minor units;
// rates are percentages. Nothing here touches storage.
package ledger

import "math"

// PaymentState is the derived summary of payments against a total.
type PaymentState string

const (
	PaymentPending PaymentState = "pending"
	PaymentPartial PaymentState = "partial"
	PaymentPaid    PaymentState = "paid"
)

// InvoiceTotals carries the amounts computed at invoice creation.
type InvoiceTotals struct {
	TaxAmount      int64
	DiscountAmount int64
	TotalAmount    int64
	BalanceDue     int64
}

// RateAmount applies a percentage rate to a base amount, rounding half away
// from zero to the nearest minor unit. A non-positive rate yields zero.
func RateAmount(base int64, rate float64) int64 {
	if rate <= 0 {
		return 0
	}
	return int64(math.Round(float64(base) * rate / 100))
}

// ComputeInvoiceTotals derives tax, discount, total and the initial balance
// due from a subtotal. Balance due equals the total before any payment.
func ComputeInvoiceTotals(subtotal int64, taxRate, discountRate float64) InvoiceTotals {
	tax := RateAmount(subtotal, taxRate)
	discount := RateAmount(subtotal, discountRate)
	total := subtotal + tax - discount
	return InvoiceTotals{
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    total,
		BalanceDue:     total,
	}
}

// ApplyPayment accumulates a payment onto the running paid amount. The sum
// is never clamped: overshoot past the total is recorded as-is and left to
// reconciliation.
func ApplyPayment(paidBefore, amount int64) int64 {
	return paidBefore + amount
}

// BalanceDue is the remaining amount owed. It goes negative on overpayment.
func BalanceDue(total, paid int64) int64 {
	return total - paid
}

// DerivePaymentStatus summarises paid against total. Once paid is at or
// above total the state is paid regardless of overshoot.
func DerivePaymentStatus(total, paid int64) PaymentState {
	switch {
	case paid <= 0:
		return PaymentPending
	case paid < total:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}
