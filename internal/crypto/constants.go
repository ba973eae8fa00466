package crypto

const (
	// RSAKeyBits is the modulus size for identity key pairs.
	RSAKeyBits = 2048

	// OAEPMaxPlaintext is the largest payload RSA-OAEP/SHA-256 can wrap
	// under a 2048-bit key: 256 - 2*32 - 2 bytes.
	OAEPMaxPlaintext = RSAKeyBits/8 - 2*32 - 2

	// SessionKeySize is the size of an AES-256 session key in bytes.
	SessionKeySize = 32
	// NonceSize is the size of an AES-GCM nonce in bytes.
	NonceSize = 12
	// TagSize is the size of an AES-GCM authentication tag in bytes.
	TagSize = 16
)
