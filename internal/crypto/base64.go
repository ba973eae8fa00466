package crypto

import (
	"encoding/base64"
)

// ToBase64 encodes bytes to standard base64 with padding. All envelope wire
// values use this encoding.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromBase64 decodes standard base64 (with padding) to bytes.
func FromBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// DecodeBase64 decodes base64 to bytes, tolerating encoding drift.
// Relays and older clients have emitted standard and URL-safe alphabets,
// with and without padding; this tries each in turn.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, err = base64.RawStdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	return base64.RawURLEncoding.DecodeString(s)
}
