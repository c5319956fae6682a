package token

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRefreshValue returns an opaque refresh token value: 256 bits from
// the CSPRNG, base64url-encoded.
func GenerateRefreshValue() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}
