package keyring

import (
	"context"
	"sync"

	"github.com/parlachat/client-go/internal/crypto"
)

// Compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps key pairs in process memory. Intended for tests and
// ephemeral sessions; keys are lost when the process exits.
type MemoryStore struct {
	mu    sync.Mutex
	pairs map[string]*crypto.KeyPair
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[string]*crypto.KeyPair)}
}

// EnsureKeyPair implements Store.
func (s *MemoryStore) EnsureKeyPair(ctx context.Context, userID string) (*crypto.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kp, ok := s.pairs[userID]; ok {
		return kp, nil
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	s.pairs[userID] = kp
	return kp, nil
}

// KeyPair implements Store.
func (s *MemoryStore) KeyPair(ctx context.Context, userID string) (*crypto.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kp, ok := s.pairs[userID]
	if !ok {
		return nil, ErrNoLocalKey
	}
	return kp, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairs, userID)
	return nil
}

// Put stores a pre-built key pair for userID. Test helper.
func (s *MemoryStore) Put(userID string, kp *crypto.KeyPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pairs[userID] = kp
}
