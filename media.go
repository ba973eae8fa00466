package parlachat

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	cache "github.com/pmylund/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/parlachat/client-go/internal/blobstore"
	"github.com/parlachat/client-go/internal/crypto"
)

const (
	// defaultMediaCacheTTL backstops handles whose owner never released
	// them; explicit Release is the expected path.
	defaultMediaCacheTTL = 5 * time.Minute

	mediaCachePurgeInterval = time.Minute
)

// MediaHandle is an ephemeral, revocable reference to decrypted media
// bytes. Plaintext media is never persisted; the component that opened a
// handle must Release it when the owning message is no longer displayed.
type MediaHandle struct {
	cacheKey string
	media    *Media
	data     []byte
	mimeType string
	released atomic.Bool
}

// Bytes returns the decrypted media, or nil after Release.
func (h *MediaHandle) Bytes() []byte {
	if h.released.Load() {
		return nil
	}
	return h.data
}

// MimeType returns the media MIME type.
func (h *MediaHandle) MimeType() string {
	return h.mimeType
}

// Release revokes this handle and evicts the shared cache entry. Releasing
// twice is a no-op.
func (h *MediaHandle) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.media.evict(h.cacheKey)
	}
}

// Media opens the external sealed bodies of audio/image/file envelopes.
//
// Decrypted results are cached keyed by (reading user, message id, envelope
// fingerprint) so repeated views of the same message do not re-decrypt, and
// concurrent opens of the same key share one in-flight decryption.
type Media struct {
	resolver *Resolver
	blobs    blobstore.Store
	cache    *cache.Cache
	group    singleflight.Group
	log      logrus.FieldLogger
}

// NewMedia creates a Media extension. ttl <= 0 selects the default cache
// TTL.
func NewMedia(resolver *Resolver, blobs blobstore.Store, ttl time.Duration, log logrus.FieldLogger) *Media {
	if ttl <= 0 {
		ttl = defaultMediaCacheTTL
	}
	if log == nil {
		log = discardLogger()
	}
	return &Media{
		resolver: resolver,
		blobs:    blobs,
		cache:    cache.New(ttl, mediaCachePurgeInterval),
		log:      log,
	}
}

type mediaEntry struct {
	data     []byte
	mimeType string
}

// Open recovers the media body of env for the reading identity. Unlike
// Resolve, Open returns errors: callers are programmatic (an image view, an
// audio player), not a chat-list row, and need to distinguish ErrNoLocalKey
// and ErrNoRecipientSlot from ErrAuthentication.
func (m *Media) Open(ctx context.Context, env *Envelope, readerID, senderID, messageID string) (*MediaHandle, error) {
	if env == nil || !env.IsMedia() || env.MediaURL == "" {
		return nil, fmt.Errorf("%w: not a media envelope", ErrMalformedEnvelope)
	}
	if m.blobs == nil {
		return nil, fmt.Errorf("media open requires a blob store")
	}

	cacheKey := readerID + "|" + messageID + "|" + env.Fingerprint()

	if v, ok := m.cache.Get(cacheKey); ok {
		return m.handleFor(cacheKey, v.(*mediaEntry)), nil
	}

	v, err, _ := m.group.Do(cacheKey, func() (any, error) {
		// Re-check under the flight: a finished sibling may have filled
		// the cache between our lookup and Do.
		if v, ok := m.cache.Get(cacheKey); ok {
			return v, nil
		}

		entry, err := m.open(ctx, env, readerID, senderID)
		if err != nil {
			return nil, err
		}

		m.cache.Set(cacheKey, entry, cache.DefaultExpiration)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	return m.handleFor(cacheKey, v.(*mediaEntry)), nil
}

func (m *Media) open(ctx context.Context, env *Envelope, readerID, senderID string) (*mediaEntry, error) {
	kp, err := m.resolver.keys.KeyPair(ctx, readerID)
	if err != nil {
		return nil, err
	}

	sessionKey, slot, err := m.resolver.sessionKeyFor(env, kp, readerID, senderID)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(sessionKey)

	sealed, err := m.blobs.Download(ctx, env.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	data, err := crypto.OpenBytes(sealed, env.IVFile, sessionKey)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"type": env.Type,
			"slot": slot,
		}).WithError(err).Warn("media open failed")
		return nil, err
	}

	return &mediaEntry{data: data, mimeType: env.MimeType}, nil
}

func (m *Media) handleFor(cacheKey string, entry *mediaEntry) *MediaHandle {
	return &MediaHandle{
		cacheKey: cacheKey,
		media:    m,
		data:     entry.data,
		mimeType: entry.mimeType,
	}
}

func (m *Media) evict(cacheKey string) {
	m.cache.Delete(cacheKey)
}
