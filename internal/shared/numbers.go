package shared

import (
	"fmt"
	"math/rand"
	"time"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NumberRetryAttempts bounds how many times a document number is regenerated
// after a uniqueness collision before the conflict surfaces to the caller.
const NumberRetryAttempts = 5

// NewInvoiceNumber produces an invoice number in the form
// INV-YYYYMMDDHHMMSS-NNNN with a 4-digit random suffix. Uniqueness is
// enforced by the database; callers retry on collision.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%04d", now.UTC().Format("20060102150405"), rand.Intn(10000))
}

// NewPaymentNumber produces a payment number in the form PAY-XXXXXXXX with
// an 8-character alphanumeric random suffix.
func NewPaymentNumber() string {
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return "PAY-" + string(buf)
}
