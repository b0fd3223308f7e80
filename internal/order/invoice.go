package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// NewInvoice builds a human-readable invoice number: prefix, two-digit year,
// month, day, then a five-digit random suffix. The suffix is not guaranteed
// unique; Place retries on a duplicate-key insert.
func NewInvoice(prefix string, now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back to
		// the clock so the format stays intact.
		n = big.NewInt(now.UnixNano() % 100000)
	}
	return fmt.Sprintf("%s%s%05d", prefix, now.Format("060102"), n.Int64())
}
