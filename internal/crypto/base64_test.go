package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeBase64_Lenient(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x00, 0x41, 0x3e}

	tests := []struct {
		name    string
		encoded string
	}{
		{"standard padded", base64.StdEncoding.EncodeToString(data)},
		{"standard raw", base64.RawStdEncoding.EncodeToString(data)},
		{"url padded", base64.URLEncoding.EncodeToString(data)},
		{"url raw", base64.RawURLEncoding.EncodeToString(data)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeBase64(tt.encoded)
			if err != nil {
				t.Fatalf("DecodeBase64() error = %v", err)
			}
			if !bytes.Equal(decoded, data) {
				t.Errorf("decoded = %v, want %v", decoded, data)
			}
		})
	}
}

func TestDecodeBase64_Invalid(t *testing.T) {
	if _, err := DecodeBase64("%%% not base64 %%%"); err == nil {
		t.Error("DecodeBase64() accepted invalid input")
	}
}

func TestToBase64_RoundTrip(t *testing.T) {
	data := []byte("wire value")
	decoded, err := FromBase64(ToBase64(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("round trip mismatch")
	}
}
