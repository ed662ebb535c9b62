package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifySignature checks the x-paystack-signature header against the
// raw webhook body: hex-encoded HMAC-SHA512 keyed with the secret key.
// Comparison is constant time.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	return VerifySignature(c.secretKey, body, signature)
}

func VerifySignature(secretKey string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
