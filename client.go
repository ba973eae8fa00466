package parlachat

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/parlachat/client-go/internal/crypto"
	"github.com/parlachat/client-go/internal/keyexchange"
	"github.com/parlachat/client-go/internal/keyring"
)

// Client is the envelope subsystem facade for one local identity. It owns
// the key store, the key directory, and the blob store collaborators, and
// exposes build/resolve/preview/media operations over them.
//
// All operations are safe for concurrent use; the only shared state between
// resolutions is the read-only private key material and the media handle
// cache.
type Client struct {
	userID     string
	keys       keyring.Store
	directory  keyexchange.Directory
	builder    *Builder
	resolver   *Resolver
	summarizer *Summarizer
	media      *Media
	log        logrus.FieldLogger
}

// New creates a client for the given local identity.
func New(userID string, opts ...Option) (*Client, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.keys == nil {
		cfg.keys = keyring.NewMemoryStore()
	}
	if cfg.log == nil {
		cfg.log = discardLogger()
	}

	var auditPub *rsa.PublicKey
	if cfg.auditKeyB64 != "" {
		pub, err := crypto.ImportPublic(cfg.auditKeyB64)
		if err != nil {
			return nil, fmt.Errorf("audit key: %w", err)
		}
		auditPub = pub
	}

	resolver := NewResolver(cfg.keys, cfg.log)

	return &Client{
		userID:     userID,
		keys:       cfg.keys,
		directory:  cfg.directory,
		builder:    NewBuilder(cfg.blobs, auditPub, cfg.log),
		resolver:   resolver,
		summarizer: NewSummarizer(resolver),
		media:      NewMedia(resolver, cfg.blobs, cfg.mediaCacheTTL, cfg.log),
		log:        cfg.log,
	}, nil
}

// UserID returns the local identity this client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// PublicKey ensures the local key pair exists and returns its public half,
// base64 of the PKIX DER encoding.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
	kp, err := c.keys.EnsureKeyPair(ctx, c.userID)
	if err != nil {
		return "", fmt.Errorf("ensure key pair: %w", err)
	}
	return kp.PublicB64, nil
}

// Register ensures the local key pair exists and publishes its public half
// to the directory. Idempotent: an existing private key is never
// regenerated, and republishing the same public key is harmless.
func (c *Client) Register(ctx context.Context) error {
	kp, err := c.keys.EnsureKeyPair(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("ensure key pair: %w", err)
	}

	if c.directory == nil {
		return nil
	}
	if err := c.directory.Publish(ctx, c.userID, kp.PublicB64); err != nil {
		return fmt.Errorf("publish public key: %w", err)
	}
	return nil
}

// SendText seals a 1:1 text message for recipientID.
func (c *Client) SendText(ctx context.Context, plaintext, recipientID string) (*Envelope, error) {
	senderPub, recipientPub, err := c.directKeys(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return c.builder.BuildDirect(ctx, plaintext, senderPub, recipientPub)
}

// SendGroupText seals a group text message for the given roster. Recipients
// whose key could not be fetched or used are enumerated in the FanOut, never
// silently dropped.
func (c *Client) SendGroupText(ctx context.Context, plaintext string, recipientIDs []string) (*Envelope, *FanOut, error) {
	senderPub, roster, fetchFailed, err := c.groupKeys(ctx, recipientIDs)
	if err != nil {
		return nil, nil, err
	}

	env, fanOut, err := c.builder.BuildGroup(ctx, plaintext, senderPub, roster)
	if err != nil {
		return nil, nil, err
	}
	return env, mergeFanOut(fanOut, fetchFailed), nil
}

// SendAudio seals a 1:1 voice note.
func (c *Client) SendAudio(ctx context.Context, media []byte, mimeType string, durationSeconds int, recipientID string) (*Envelope, error) {
	senderPub, recipientPub, err := c.directKeys(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return c.builder.BuildAudio(ctx, media, mimeType, durationSeconds, senderPub, recipientPub)
}

// SendGroupAudio seals a group voice note.
func (c *Client) SendGroupAudio(ctx context.Context, media []byte, mimeType string, durationSeconds int, recipientIDs []string) (*Envelope, *FanOut, error) {
	senderPub, roster, fetchFailed, err := c.groupKeys(ctx, recipientIDs)
	if err != nil {
		return nil, nil, err
	}

	env, fanOut, err := c.builder.BuildGroupAudio(ctx, media, mimeType, durationSeconds, senderPub, roster)
	if err != nil {
		return nil, nil, err
	}
	return env, mergeFanOut(fanOut, fetchFailed), nil
}

// SendImage seals a 1:1 image with an optional caption.
func (c *Client) SendImage(ctx context.Context, media []byte, mimeType, caption, recipientID string) (*Envelope, error) {
	senderPub, recipientPub, err := c.directKeys(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return c.builder.BuildImage(ctx, media, mimeType, caption, senderPub, recipientPub)
}

// SendGroupImage seals a group image with an optional caption.
func (c *Client) SendGroupImage(ctx context.Context, media []byte, mimeType, caption string, recipientIDs []string) (*Envelope, *FanOut, error) {
	senderPub, roster, fetchFailed, err := c.groupKeys(ctx, recipientIDs)
	if err != nil {
		return nil, nil, err
	}

	env, fanOut, err := c.builder.BuildGroupImage(ctx, media, mimeType, caption, senderPub, roster)
	if err != nil {
		return nil, nil, err
	}
	return env, mergeFanOut(fanOut, fetchFailed), nil
}

// Read resolves one inbound content value for the local identity. It never
// returns an error; the Resolution's Text is always safe to render.
func (c *Client) Read(ctx context.Context, raw, senderID string) Resolution {
	return c.resolver.Resolve(ctx, raw, c.userID, senderID)
}

// Preview summarizes one inbound content value for a chat-list row.
func (c *Client) Preview(ctx context.Context, raw, senderID string) string {
	return c.summarizer.Preview(ctx, raw, c.userID, senderID)
}

// OpenMedia recovers the sealed media body of env as a revocable handle.
func (c *Client) OpenMedia(ctx context.Context, env *Envelope, senderID, messageID string) (*MediaHandle, error) {
	return c.media.Open(ctx, env, c.userID, senderID, messageID)
}

// Logout removes the local identity's key pair from the key store. After
// this, nothing addressed to the identity can be decrypted on this device
// until a key is re-imported; there is no escrow.
func (c *Client) Logout(ctx context.Context) error {
	return c.keys.Reset(ctx, c.userID)
}

func (c *Client) directKeys(ctx context.Context, recipientID string) (senderPubB64, recipientPubB64 string, err error) {
	if c.directory == nil {
		return "", "", fmt.Errorf("sending requires a key directory")
	}

	kp, err := c.keys.EnsureKeyPair(ctx, c.userID)
	if err != nil {
		return "", "", fmt.Errorf("ensure key pair: %w", err)
	}

	recipientPub, err := c.directory.Fetch(ctx, recipientID)
	if err != nil {
		return "", "", fmt.Errorf("fetch key for %s: %w", recipientID, err)
	}

	return kp.PublicB64, recipientPub, nil
}

func (c *Client) groupKeys(ctx context.Context, recipientIDs []string) (senderPubB64 string, roster map[string]string, fetchFailed map[string]error, err error) {
	if c.directory == nil {
		return "", nil, nil, fmt.Errorf("sending requires a key directory")
	}
	if len(recipientIDs) == 0 {
		return "", nil, nil, fmt.Errorf("group envelope requires at least one recipient")
	}

	kp, err := c.keys.EnsureKeyPair(ctx, c.userID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("ensure key pair: %w", err)
	}

	roster = make(map[string]string, len(recipientIDs))
	for _, id := range recipientIDs {
		pub, err := c.directory.Fetch(ctx, id)
		if err != nil {
			c.log.WithField("recipient", id).WithError(err).Warn("key fetch failed")
			if fetchFailed == nil {
				fetchFailed = make(map[string]error)
			}
			fetchFailed[id] = err
			continue
		}
		roster[id] = pub
	}

	if len(roster) == 0 {
		return "", nil, nil, &BuildError{Failed: fetchFailed}
	}

	return kp.PublicB64, roster, fetchFailed, nil
}

func mergeFanOut(fanOut *FanOut, fetchFailed map[string]error) *FanOut {
	for id, err := range fetchFailed {
		fanOut.fail(id, err)
	}
	return fanOut
}
