package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// NewSessionKey generates a fresh AES-256 session key. Session keys are
// single-use: one per outgoing message, discarded after wrapping.
func NewSessionKey() ([]byte, error) {
	key := make([]byte, SessionKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	return key, nil
}

// Wrap encrypts raw session key material under a recipient's public key
// using RSA-OAEP/SHA-256 and returns it base64-encoded.
func Wrap(sessionKey []byte, pub *rsa.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: nil public key", ErrAsymmetricEncrypt)
	}
	if len(sessionKey) > OAEPMaxPlaintext {
		return "", fmt.Errorf("%w: got %d, limit %d", ErrSessionKeyTooLarge, len(sessionKey), OAEPMaxPlaintext)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, sessionKey, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAsymmetricEncrypt, err)
	}

	return ToBase64(wrapped), nil
}

// Unwrap decrypts a base64-encoded wrapped session key with the local
// private key. Failure means the slot was wrapped for a different identity
// or the input is corrupted; callers on the probe path expect this.
func Unwrap(wrappedB64 string, priv *rsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrAsymmetricDecrypt)
	}

	wrapped, err := DecodeBase64(wrappedB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode wrapped key: %v", ErrAsymmetricDecrypt, err)
	}

	sessionKey, err := rsa.DecryptOAEP(sha256.New(), nil, priv, wrapped, nil)
	if err != nil {
		return nil, ErrAsymmetricDecrypt
	}

	return sessionKey, nil
}

// Zero overwrites key material in place. Callers zero session keys as soon
// as fan-out wrapping completes.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
