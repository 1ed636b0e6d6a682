package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignature is the checkout signature over "order|payment".
func PaymentSignature(secret, gatewayOrderID, gatewayPaymentID string) string {
	return Sign(secret, []byte(gatewayOrderID+"|"+gatewayPaymentID))
}

// ValidSignature compares in constant time. Hex case is ignored; anything that is not
// valid hex of the right length fails.
func ValidSignature(secret string, payload []byte, signature string) bool {
	got, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), got)
}
