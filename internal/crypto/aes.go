package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// SealPayload encrypts a payload with AES-256-GCM under the session key,
// generating a fresh random 96-bit nonce. The ciphertext (with appended
// tag) and the nonce are returned separately, both base64-encoded, because
// the envelope carries them in distinct fields.
func SealPayload(plaintext, sessionKey []byte) (ciphertextB64, ivB64 string, err error) {
	gcm, err := newGCM(sessionKey)
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return ToBase64(ciphertext), ToBase64(nonce), nil
}

// OpenPayload decrypts an AES-256-GCM payload. It fails with
// ErrAuthentication when the tag does not verify and never returns partial
// plaintext.
func OpenPayload(ciphertextB64, ivB64 string, sessionKey []byte) ([]byte, error) {
	gcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, err
	}

	nonce, err := DecodeBase64(ivB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode iv: %v", ErrAuthentication, err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), NonceSize)
	}

	ciphertext, err := DecodeBase64(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", ErrAuthentication, err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	return plaintext, nil
}

// SealBytes is the binary-payload variant used for media bodies. It returns
// raw ciphertext bytes for upload to the blob store plus the base64 nonce
// for the envelope's ivFile field.
func SealBytes(plaintext, sessionKey []byte) (ciphertext []byte, ivB64 string, err error) {
	gcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, "", fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, plaintext, nil), ToBase64(nonce), nil
}

// OpenBytes decrypts raw ciphertext bytes fetched from the blob store.
func OpenBytes(ciphertext []byte, ivB64 string, sessionKey []byte) ([]byte, error) {
	gcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, err
	}

	nonce, err := DecodeBase64(ivB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode iv: %v", ErrAuthentication, err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), NonceSize)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	return plaintext, nil
}

func newGCM(sessionKey []byte) (cipher.AEAD, error) {
	if len(sessionKey) != SessionKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(sessionKey), SessionKeySize)
	}

	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return gcm, nil
}
