package utils

import (
	"crypto/rand"
	"math/big"
)

const referenceDigits = 16

// GenerateTransactionReference returns a collision-resistant reference
// of the form <prefix> followed by 16 random digits, e.g. TXN0182736450918273.
func GenerateTransactionReference(prefix string) (string, error) {
	if prefix == "" {
		prefix = "TXN"
	}

	digits := make([]byte, referenceDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return prefix + string(digits), nil
}

// MustGenerateTransactionReference panics on entropy failure. Used where
// a reference is required and the process cannot proceed without one.
func MustGenerateTransactionReference(prefix string) string {
	ref, err := GenerateTransactionReference(prefix)
	if err != nil {
		panic("failed to generate transaction reference: " + err.Error())
	}
	return ref
}
