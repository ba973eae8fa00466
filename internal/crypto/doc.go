// Package crypto provides the cryptographic primitives for the Parlachat
// envelope scheme. It implements a static hybrid construction: a fresh
// AES-256 session key seals each message payload, and the session key is
// wrapped independently for every recipient with RSA-OAEP.
//
// # Algorithm Suite
//
//   - RSA-2048 with OAEP padding and SHA-256 (key wrapping). The 2048-bit
//     modulus bounds OAEP plaintext at 190 bytes, which fits key material
//     and nothing else; that limit is the reason the scheme is hybrid.
//
//   - AES-256-GCM: authenticated encryption for message payloads and media
//     bodies. A fresh random 96-bit nonce is generated per seal; nonce
//     reuse under the same key is forbidden.
//
// # Security Model
//
// The scheme provides confidentiality and integrity per message. It does
// NOT provide forward secrecy (no ratcheting) or deniability; the key pair
// is static per identity.
//
// AES-GCM decryption is all-or-nothing: [OpenPayload] either returns the
// exact plaintext or ErrAuthentication, never truncated or altered output.
//
// # Base64 Encoding
//
// All wire values (wrapped keys, ciphertext, IVs, exported keys) use
// standard base64 with padding. [DecodeBase64] is deliberately lenient on
// input because envelopes arrive through string-typed transport fields that
// have re-encoded them in the wild.
package crypto
