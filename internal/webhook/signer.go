// Package webhook delivers event notifications to configured HTTP endpoints,
// with payload signing, filtering, retries, and request interception.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, keyed by
// the webhook secret.
const SignatureHeader = "X-Webhook-Signature"

// Sign computes the hex HMAC-SHA256 signature of the payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the signature matches the payload. Uses a
// constant-time comparison.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
