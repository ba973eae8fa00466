// Package keyring persists each local identity's asymmetric key pair.
//
// The private key never leaves the device that generated it: there is no
// escrow and no recovery path. A store is namespaced by user id and only
// ever touches the slot of the identity it is asked about.
package keyring

import (
	"context"
	"errors"

	"github.com/parlachat/client-go/internal/crypto"
)

var (
	// ErrNoLocalKey is returned when no private key exists for an identity.
	// This is an expected condition (new device, cleared storage), not a bug.
	ErrNoLocalKey = errors.New("no local private key for identity")
)

// Store persists identity key pairs, one per user id.
type Store interface {
	// EnsureKeyPair returns the key pair for userID, generating and
	// persisting one on first call. It is idempotent: an existing private
	// key is never overwritten, since that would orphan every envelope
	// already wrapped under the old public key.
	EnsureKeyPair(ctx context.Context, userID string) (*crypto.KeyPair, error)

	// KeyPair returns the stored key pair for userID, or ErrNoLocalKey.
	KeyPair(ctx context.Context, userID string) (*crypto.KeyPair, error)

	// Reset removes the key pair for userID. Only explicit logout or
	// key-reset flows call this.
	Reset(ctx context.Context, userID string) error
}
