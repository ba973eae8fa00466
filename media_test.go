package parlachat

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/parlachat/client-go/internal/blobstore"
	"github.com/parlachat/client-go/internal/crypto"
)

// buildTestAudio seals a 1:1 voice note from "1" to "2" and returns the
// envelope together with the shared fixtures.
func buildTestAudio(t *testing.T, body []byte) (*Envelope, *Resolver, *blobstore.FakeStore) {
	t.Helper()

	store, pairs := newTestStore(t, "1", "2")
	blobs := blobstore.NewFakeStore()
	builder := NewBuilder(blobs, nil, nil)

	env, err := builder.BuildAudio(context.Background(), body, "audio/ogg", 9,
		pairs["1"].PublicB64, pairs["2"].PublicB64)
	if err != nil {
		t.Fatal(err)
	}

	return env, NewResolver(store, nil), blobs
}

func TestMedia_OpenRoundTrip(t *testing.T) {
	body := []byte{0x4f, 0x67, 0x67, 0x53, 0x00, 0x01, 0x02}
	env, resolver, blobs := buildTestAudio(t, body)

	m := NewMedia(resolver, blobs, 0, nil)

	h, err := m.Open(context.Background(), env, "2", "1", "msg-1")
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	if !bytes.Equal(h.Bytes(), body) {
		t.Errorf("Bytes() = %x, want %x", h.Bytes(), body)
	}
	if h.MimeType() != "audio/ogg" {
		t.Errorf("MimeType() = %q", h.MimeType())
	}
}

func TestMedia_OpenCachesDecryption(t *testing.T) {
	env, resolver, blobs := buildTestAudio(t, []byte{1, 2, 3})
	m := NewMedia(resolver, blobs, 0, nil)
	ctx := context.Background()

	h1, err := m.Open(ctx, env, "2", "1", "msg-1")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := m.Open(ctx, env, "2", "1", "msg-1")
	if err != nil {
		t.Fatal(err)
	}

	if blobs.DownloadCalls != 1 {
		t.Errorf("DownloadCalls = %d, want 1 (second open served from cache)", blobs.DownloadCalls)
	}
	if !bytes.Equal(h1.Bytes(), h2.Bytes()) {
		t.Error("handles disagree on content")
	}
}

func TestMedia_ReleaseRevokesAndEvicts(t *testing.T) {
	env, resolver, blobs := buildTestAudio(t, []byte{1, 2, 3})
	m := NewMedia(resolver, blobs, 0, nil)
	ctx := context.Background()

	h, err := m.Open(ctx, env, "2", "1", "msg-1")
	if err != nil {
		t.Fatal(err)
	}

	h.Release()
	if h.Bytes() != nil {
		t.Error("Bytes() non-nil after Release")
	}
	h.Release() // second release is a no-op

	// The cache entry is gone; the next open decrypts again.
	if _, err := m.Open(ctx, env, "2", "1", "msg-1"); err != nil {
		t.Fatal(err)
	}
	if blobs.DownloadCalls != 2 {
		t.Errorf("DownloadCalls = %d, want 2 after eviction", blobs.DownloadCalls)
	}
}

func TestMedia_ConcurrentOpensShareOneFlight(t *testing.T) {
	env, resolver, blobs := buildTestAudio(t, []byte{1, 2, 3})
	m := NewMedia(resolver, blobs, 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Open(context.Background(), env, "2", "1", "msg-1"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if blobs.DownloadCalls != 1 {
		t.Errorf("DownloadCalls = %d, want 1", blobs.DownloadCalls)
	}
}

func TestMedia_CacheKeyedByReader(t *testing.T) {
	store, pairs := newTestStore(t, "1", "2", "3")
	blobs := blobstore.NewFakeStore()
	builder := NewBuilder(blobs, nil, nil)

	env, _, err := builder.BuildGroupAudio(context.Background(), []byte{1, 2, 3}, "audio/ogg", 5,
		pairs["1"].PublicB64, map[string]string{
			"2": pairs["2"].PublicB64,
			"3": pairs["3"].PublicB64,
		})
	if err != nil {
		t.Fatal(err)
	}

	m := NewMedia(NewResolver(store, nil), blobs, 0, nil)
	ctx := context.Background()

	if _, err := m.Open(ctx, env, "2", "1", "msg-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Open(ctx, env, "3", "1", "msg-1"); err != nil {
		t.Fatal(err)
	}

	// Different readers never share a cache entry.
	if blobs.DownloadCalls != 2 {
		t.Errorf("DownloadCalls = %d, want 2", blobs.DownloadCalls)
	}
}

func TestMedia_RejectsNonMediaEnvelope(t *testing.T) {
	_, resolver, blobs := buildTestAudio(t, []byte{1})
	m := NewMedia(resolver, blobs, 0, nil)

	_, err := m.Open(context.Background(), &Envelope{Type: TypeDirect}, "2", "1", "msg-1")
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Errorf("err = %v, want ErrMalformedEnvelope", err)
	}
}

func TestMedia_NoLocalKey(t *testing.T) {
	env, resolver, blobs := buildTestAudio(t, []byte{1})
	m := NewMedia(resolver, blobs, 0, nil)

	// Reader 9 has no key on this device.
	_, err := m.Open(context.Background(), env, "9", "1", "msg-1")
	if !errors.Is(err, ErrNoLocalKey) {
		t.Errorf("err = %v, want ErrNoLocalKey", err)
	}
}

func TestMedia_TamperedBody(t *testing.T) {
	env, resolver, blobs := buildTestAudio(t, []byte{1, 2, 3})

	// Swap the nonce so the tag cannot verify.
	wrongNonce := make([]byte, crypto.NonceSize)
	if _, err := rand.Read(wrongNonce); err != nil {
		t.Fatal(err)
	}
	env.IVFile = crypto.ToBase64(wrongNonce)

	m := NewMedia(resolver, blobs, 0, nil)
	_, err := m.Open(context.Background(), env, "2", "1", "msg-1")
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("err = %v, want ErrAuthentication", err)
	}
}
