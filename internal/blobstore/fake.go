package blobstore

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time check that FakeStore implements Store
var _ Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store for testing.
type FakeStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	next  int

	// Err, if set, is returned by every call.
	Err error

	// UploadCalls and DownloadCalls track invocation counts.
	UploadCalls   int
	DownloadCalls int
}

// NewFakeStore creates an empty fake blob store.
func NewFakeStore() *FakeStore {
	return &FakeStore{blobs: make(map[string][]byte)}
}

// Upload implements Store.
func (f *FakeStore) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.UploadCalls++
	if f.Err != nil {
		return "", f.Err
	}

	f.next++
	locator := fmt.Sprintf("fake://blobs/%d", f.next)
	f.blobs[locator] = append([]byte(nil), data...)
	return locator, nil
}

// Download implements Store.
func (f *FakeStore) Download(ctx context.Context, locator string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DownloadCalls++
	if f.Err != nil {
		return nil, f.Err
	}

	data, ok := f.blobs[locator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, locator)
	}
	return append([]byte(nil), data...), nil
}
