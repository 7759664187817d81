package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNoAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNo returns "ORD" followed by the unix time and six random characters
func NewOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD%d%s", now.Unix(), randomString(orderNoAlphabet, 6))
}

// NewRefundNo returns "REF" followed by a compact timestamp and four random digits
func NewRefundNo(now time.Time) string {
	return fmt.Sprintf("REF%s%s", now.Format("20060102150405"), randomString("0123456789", 4))
}

func randomString(alphabet string, n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, _ := rand.Int(rand.Reader, max)
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}
