package keyexchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PublishAndFetch(t *testing.T) {
	var stored atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodPut:
			var bundle keyBundle
			require.NoError(t, json.NewDecoder(r.Body).Decode(&bundle))
			stored.Store(bundle)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			v := stored.Load()
			if v == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			require.NoError(t, json.NewEncoder(w).Encode(v))
		}
	}))
	defer server.Close()

	client, err := New(server.URL, "test-key")
	require.NoError(t, err)

	ctx := context.Background()

	err = client.Publish(ctx, "user-7", "cHVibGljLWtleQ==")
	require.NoError(t, err)

	got, err := client.Fetch(ctx, "user-7")
	require.NoError(t, err)
	assert.Equal(t, "cHVibGljLWtleQ==", got)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestClient_Fetch_UsesCache(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(keyBundle{UserID: "user-7", PublicKey: "a2V5"})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		got, err := client.Fetch(ctx, "user-7")
		require.NoError(t, err)
		assert.Equal(t, "a2V5", got)
	}

	assert.Equal(t, int32(1), hits.Load(), "repeated fetches should hit the cache")
}

func TestClient_Publish_InvalidatesCache(t *testing.T) {
	current := atomic.Value{}
	current.Store("b2xk") // "old"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			current.Store("bmV3") // "new"
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode(keyBundle{UserID: "me", PublicKey: current.Load().(string)})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	require.NoError(t, err)

	ctx := context.Background()

	got, err := client.Fetch(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, "b2xk", got)

	require.NoError(t, client.Publish(ctx, "me", "bmV3"))

	got, err = client.Fetch(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, "bmV3", got, "publish should drop the cached key")
}

func TestClient_RetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(keyBundle{UserID: "user-7", PublicKey: "a2V5"})
	}))
	defer server.Close()

	client, err := New(server.URL, "", WithRetries(3))
	require.NoError(t, err)

	got, err := client.Fetch(context.Background(), "user-7")
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFakeDirectory(t *testing.T) {
	fake := NewFakeDirectory()
	ctx := context.Background()

	_, err := fake.Fetch(ctx, "user-1")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, fake.Publish(ctx, "user-1", "a2V5"))

	got, err := fake.Fetch(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)
	assert.Equal(t, 1, fake.PublishCalls)
	assert.Equal(t, 2, fake.FetchCalls)
}
