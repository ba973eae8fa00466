package crypto

import "errors"

var (
	// ErrKeyFormat is returned when a key cannot be decoded or parsed.
	ErrKeyFormat = errors.New("malformed key encoding")

	// ErrAsymmetricEncrypt is returned when RSA-OAEP wrapping fails.
	ErrAsymmetricEncrypt = errors.New("asymmetric encrypt failed")

	// ErrAsymmetricDecrypt is returned when RSA-OAEP unwrapping fails.
	// Callers probing multiple wrapped slots treat this as an expected,
	// recoverable condition rather than a fatal error.
	ErrAsymmetricDecrypt = errors.New("asymmetric decrypt failed")

	// ErrAuthentication is returned when the AES-GCM tag does not verify.
	// The payload was tampered with or the wrong session key was used.
	ErrAuthentication = errors.New("payload authentication failed")

	// ErrInvalidKeySize is returned when the session key size is invalid.
	ErrInvalidKeySize = errors.New("invalid session key size")

	// ErrInvalidNonceSize is returned when the IV size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrSessionKeyTooLarge is returned when the material handed to Wrap
	// exceeds the OAEP plaintext ceiling.
	ErrSessionKeyTooLarge = errors.New("session key exceeds OAEP plaintext limit")
)
