package paygate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// AuthConfig holds the merchant credentials for the PayGate API
type AuthConfig struct {
	MerchantID string
	APIKey     string // Shared secret for HMAC signing
}

// CalculateSignature calculates the HMAC-SHA256 request signature
// Signature = HMAC-SHA256(endpoint + payload, APIKey)
func CalculateSignature(apiKey, endpoint string, payloadBytes []byte) string {
	concat := append([]byte(endpoint), payloadBytes...)

	h := hmac.New(sha256.New, []byte(apiKey))
	h.Write(concat)

	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature validates an HMAC signature in constant time
func ValidateSignature(apiKey, endpoint string, payloadBytes []byte, signature string) bool {
	expected := CalculateSignature(apiKey, endpoint, payloadBytes)
	return hmac.Equal([]byte(expected), []byte(signature))
}
