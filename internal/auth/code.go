package auth

import (
	"crypto/rand"
	"math/big"
)

// NewVerificationCode returns a random numeric code of n digits.
func NewVerificationCode(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
