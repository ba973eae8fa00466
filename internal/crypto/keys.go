package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"
)

// randReader is the random source used for key generation.
// It defaults to crypto/rand but can be overridden for testing.
var randReader io.Reader = rand.Reader

// KeyPair represents an RSA-2048 identity key pair.
type KeyPair struct {
	// Private is the RSA private key. It never leaves the owning device.
	Private *rsa.PrivateKey
	// Public is the RSA public key published through the key directory.
	Public *rsa.PublicKey
	// PublicB64 is the public key as base64 of its PKIX DER encoding.
	PublicB64 string
}

// GenerateKeyPair creates a new RSA-2048 identity key pair. A failure here
// is a platform crypto-provider failure and is fatal to the caller.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(randReader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}

	return &KeyPair{
		Private:   priv,
		Public:    &priv.PublicKey,
		PublicB64: ExportPublic(&priv.PublicKey),
	}, nil
}

// ExportPublic serializes a public key to base64 of its PKIX DER encoding.
func ExportPublic(pub *rsa.PublicKey) string {
	// MarshalPKIXPublicKey never fails for a valid RSA key
	der, _ := x509.MarshalPKIXPublicKey(pub)
	return ToBase64(der)
}

// ExportPrivate serializes a private key to base64 of its PKCS#8 DER
// encoding. The result is suitable for the local key store only and must
// never be transmitted.
func ExportPrivate(priv *rsa.PrivateKey) string {
	der, _ := x509.MarshalPKCS8PrivateKey(priv)
	return ToBase64(der)
}

// ImportPublic parses a base64(PKIX DER) public key.
func ImportPublic(b64 string) (*rsa.PublicKey, error) {
	der, err := DecodeBase64(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parse PKIX public key: %v", ErrKeyFormat, err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not RSA, got %T", ErrKeyFormat, parsed)
	}

	if pub.N.BitLen() < RSAKeyBits {
		return nil, fmt.Errorf("%w: key size must be at least %d bits, got %d", ErrKeyFormat, RSAKeyBits, pub.N.BitLen())
	}

	return pub, nil
}

// ImportPrivate parses a base64(PKCS#8 DER) private key.
func ImportPrivate(b64 string) (*rsa.PrivateKey, error) {
	der, err := DecodeBase64(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parse PKCS#8 private key: %v", ErrKeyFormat, err)
	}

	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not RSA, got %T", ErrKeyFormat, parsed)
	}

	return priv, nil
}

// KeyPairFromPrivate reconstructs a full key pair from a private key.
func KeyPairFromPrivate(priv *rsa.PrivateKey) *KeyPair {
	return &KeyPair{
		Private:   priv,
		Public:    &priv.PublicKey,
		PublicB64: ExportPublic(&priv.PublicKey),
	}
}
