package service

import (
	"crypto/rand"
	"math/big"
	"time"
)

const qrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBillQRNumber returns BILL + YYYYMMDD + 6 random upper-case characters.
func NewBillQRNumber(now time.Time) string {
	return "BILL" + now.Format("20060102") + randomSuffix(6)
}

func randomSuffix(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(qrAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			idx = big.NewInt(time.Now().UnixNano() % int64(len(qrAlphabet)))
		}
		out[i] = qrAlphabet[idx.Int64()]
	}
	return string(out)
}
