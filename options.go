package parlachat

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parlachat/client-go/internal/blobstore"
	"github.com/parlachat/client-go/internal/keyexchange"
	"github.com/parlachat/client-go/internal/keyring"
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	keys          keyring.Store
	directory     keyexchange.Directory
	blobs         blobstore.Store
	log           logrus.FieldLogger
	auditKeyB64   string
	mediaCacheTTL time.Duration
}

// Option configures the client.
type Option func(*clientConfig)

// WithKeyStore sets the durable local key store. Defaults to an in-memory
// store, which loses keys on process exit; production clients should
// provide a file-backed or OS-keychain-backed store.
func WithKeyStore(store keyring.Store) Option {
	return func(c *clientConfig) {
		c.keys = store
	}
}

// WithDirectory sets the key-bundle exchange used to publish the local
// public key and look up recipients'. Required for building envelopes;
// resolve-only clients may omit it.
func WithDirectory(d keyexchange.Directory) Option {
	return func(c *clientConfig) {
		c.directory = d
	}
}

// WithBlobStore sets the external store for sealed media bodies. Required
// for media envelopes.
func WithBlobStore(s blobstore.Store) Option {
	return func(c *clientConfig) {
		c.blobs = s
	}
}

// WithLogger sets the diagnostic logger. Resolution failures and roster
// probes are reported here; nothing logged is user-facing, and ciphertext
// and key material are never logged. Defaults to a discard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *clientConfig) {
		c.log = log
	}
}

// WithAuditKey configures the audit identity's public key (base64 PKIX
// DER). When set, every built envelope carries a forAdmin slot. Management
// of that key's private half is an external policy concern.
func WithAuditKey(publicKeyB64 string) Option {
	return func(c *clientConfig) {
		c.auditKeyB64 = publicKeyB64
	}
}

// WithMediaCacheTTL overrides how long decrypted media handles stay cached
// when their owner never releases them.
func WithMediaCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.mediaCacheTTL = ttl
	}
}
