package keyexchange

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time check that FakeDirectory implements Directory
var _ Directory = (*FakeDirectory)(nil)

// FakeDirectory is an in-memory Directory for testing. It can be configured
// to return specific keys or errors for different scenarios.
type FakeDirectory struct {
	mu   sync.Mutex
	keys map[string]string

	// Err, if set, is returned by every call. Takes precedence over keys.
	Err error

	// PublishCalls and FetchCalls track invocation counts.
	PublishCalls int
	FetchCalls   int
}

// NewFakeDirectory creates an empty fake directory.
func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{keys: make(map[string]string)}
}

// Publish implements Directory.
func (f *FakeDirectory) Publish(ctx context.Context, userID, publicKeyB64 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PublishCalls++
	if f.Err != nil {
		return f.Err
	}
	f.keys[userID] = publicKeyB64
	return nil
}

// Fetch implements Directory.
func (f *FakeDirectory) Fetch(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FetchCalls++
	if f.Err != nil {
		return "", f.Err
	}
	key, ok := f.keys[userID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, userID)
	}
	return key, nil
}

// Set seeds a published key without counting as a Publish call.
func (f *FakeDirectory) Set(userID, publicKeyB64 string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.keys[userID] = publicKeyB64
}
