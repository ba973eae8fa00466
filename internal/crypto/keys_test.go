package crypto

import (
	"errors"
	"testing"
)

func TestGenerateKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	if kp.Private == nil || kp.Public == nil {
		t.Fatal("key pair has nil halves")
	}

	if kp.Public.N.BitLen() != RSAKeyBits {
		t.Errorf("modulus = %d bits, want %d", kp.Public.N.BitLen(), RSAKeyBits)
	}

	if kp.PublicB64 == "" {
		t.Error("PublicB64 is empty")
	}
}

func TestExportImport_Public(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	exported := ExportPublic(kp.Public)

	imported, err := ImportPublic(exported)
	if err != nil {
		t.Fatalf("ImportPublic() error = %v", err)
	}

	if imported.N.Cmp(kp.Public.N) != 0 || imported.E != kp.Public.E {
		t.Error("imported public key differs from original")
	}
}

func TestExportImport_Private(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	exported := ExportPrivate(kp.Private)

	imported, err := ImportPrivate(exported)
	if err != nil {
		t.Fatalf("ImportPrivate() error = %v", err)
	}

	if imported.D.Cmp(kp.Private.D) != 0 {
		t.Error("imported private key differs from original")
	}
}

func TestImportPublic_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "!!not-base64!!"},
		{"base64 garbage", ToBase64([]byte("not a DER key"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportPublic(tt.input)
			if !errors.Is(err, ErrKeyFormat) {
				t.Errorf("error = %v, want ErrKeyFormat", err)
			}
		})
	}
}

func TestImportPrivate_Malformed(t *testing.T) {
	_, err := ImportPrivate(ToBase64([]byte("garbage")))
	if !errors.Is(err, ErrKeyFormat) {
		t.Errorf("error = %v, want ErrKeyFormat", err)
	}
}

func TestKeyPairFromPrivate(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	rebuilt := KeyPairFromPrivate(kp.Private)
	if rebuilt.PublicB64 != kp.PublicB64 {
		t.Error("rebuilt key pair has different public export")
	}
}
