package parlachat

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parlachat/client-go/internal/blobstore"
	"github.com/parlachat/client-go/internal/crypto"
)

// adminSlot is the FanOut entry name for the audit identity.
const adminSlot = "admin"

// FanOut reports the outcome of wrapping one session key for every
// recipient of an envelope. A recipient that could not be wrapped appears
// in Failed and is never silently dropped; the caller decides whether to
// abort the send or proceed with the reduced set.
type FanOut struct {
	// Wrapped lists recipient ids whose slot was written.
	Wrapped []string
	// Failed maps recipient id to the wrap error for that recipient.
	Failed map[string]error
}

// Complete reports whether every requested recipient was wrapped.
func (f *FanOut) Complete() bool {
	return len(f.Failed) == 0
}

// Err returns a BuildError enumerating the failed recipients, or nil when
// the fan-out is complete.
func (f *FanOut) Err() error {
	if len(f.Failed) == 0 {
		return nil
	}
	return &BuildError{Failed: f.Failed}
}

func (f *FanOut) fail(id string, err error) {
	if f.Failed == nil {
		f.Failed = make(map[string]error)
	}
	f.Failed[id] = err
}

// Builder seals outgoing messages into envelopes. It is stateless between
// calls; every build generates a fresh session key and a fresh IV.
type Builder struct {
	blobs    blobstore.Store // required for media variants only
	auditPub *rsa.PublicKey  // optional audit identity
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewBuilder creates a Builder. blobs may be nil when only text envelopes
// are built; auditPub may be nil when no audit identity is configured.
func NewBuilder(blobs blobstore.Store, auditPub *rsa.PublicKey, log logrus.FieldLogger) *Builder {
	if log == nil {
		log = discardLogger()
	}
	return &Builder{
		blobs:    blobs,
		auditPub: auditPub,
		log:      log,
		now:      time.Now,
	}
}

// BuildDirect seals a 1:1 text message. The session key is wrapped for the
// sender itself (forEmisor), the counterpart (forReceptor), and the audit
// identity when configured.
func (b *Builder) BuildDirect(ctx context.Context, plaintext, senderPubB64, recipientPubB64 string) (*Envelope, error) {
	env, fanOut, err := b.seal(ctx, TypeDirect, sealInput{
		text:         plaintext,
		senderPubB64: senderPubB64,
		directPubB64: recipientPubB64,
	})
	if err != nil {
		return nil, err
	}
	if err := fanOut.Err(); err != nil {
		return nil, err
	}
	return env, nil
}

// BuildGroup seals a group text message, wrapping the session key once per
// roster entry. The returned FanOut enumerates any recipients whose public
// key could not be used; the envelope is still returned so the caller may
// choose to send to the reduced set.
func (b *Builder) BuildGroup(ctx context.Context, plaintext, senderPubB64 string, recipientPubB64ByID map[string]string) (*Envelope, *FanOut, error) {
	if len(recipientPubB64ByID) == 0 {
		return nil, nil, fmt.Errorf("group envelope requires at least one recipient")
	}
	return b.seal(ctx, TypeGroup, sealInput{
		text:         plaintext,
		senderPubB64: senderPubB64,
		roster:       recipientPubB64ByID,
	})
}

// BuildAudio seals a 1:1 voice note. The audio body is sealed with the same
// session key, uploaded to the blob store, and referenced by locator; the
// duration travels in cleartext so previews need no decryption.
func (b *Builder) BuildAudio(ctx context.Context, media []byte, mimeType string, durationSeconds int, senderPubB64, recipientPubB64 string) (*Envelope, error) {
	env, fanOut, err := b.seal(ctx, TypeAudio, sealInput{
		media:        media,
		mimeType:     mimeType,
		duration:     durationSeconds,
		senderPubB64: senderPubB64,
		directPubB64: recipientPubB64,
	})
	if err != nil {
		return nil, err
	}
	if err := fanOut.Err(); err != nil {
		return nil, err
	}
	return env, nil
}

// BuildGroupAudio seals a group voice note.
func (b *Builder) BuildGroupAudio(ctx context.Context, media []byte, mimeType string, durationSeconds int, senderPubB64 string, recipientPubB64ByID map[string]string) (*Envelope, *FanOut, error) {
	if len(recipientPubB64ByID) == 0 {
		return nil, nil, fmt.Errorf("group envelope requires at least one recipient")
	}
	return b.seal(ctx, TypeGroupAudio, sealInput{
		media:        media,
		mimeType:     mimeType,
		duration:     durationSeconds,
		senderPubB64: senderPubB64,
		roster:       recipientPubB64ByID,
	})
}

// BuildImage seals a 1:1 image with an optional caption. An empty caption
// produces an envelope with no text ciphertext at all.
func (b *Builder) BuildImage(ctx context.Context, media []byte, mimeType, caption string, senderPubB64, recipientPubB64 string) (*Envelope, error) {
	env, fanOut, err := b.seal(ctx, TypeImage, sealInput{
		text:         caption,
		textOptional: true,
		media:        media,
		mimeType:     mimeType,
		senderPubB64: senderPubB64,
		directPubB64: recipientPubB64,
	})
	if err != nil {
		return nil, err
	}
	if err := fanOut.Err(); err != nil {
		return nil, err
	}
	return env, nil
}

// BuildGroupImage seals a group image with an optional caption.
func (b *Builder) BuildGroupImage(ctx context.Context, media []byte, mimeType, caption string, senderPubB64 string, recipientPubB64ByID map[string]string) (*Envelope, *FanOut, error) {
	if len(recipientPubB64ByID) == 0 {
		return nil, nil, fmt.Errorf("group envelope requires at least one recipient")
	}
	return b.seal(ctx, TypeGroupImage, sealInput{
		text:         caption,
		textOptional: true,
		media:        media,
		mimeType:     mimeType,
		senderPubB64: senderPubB64,
		roster:       recipientPubB64ByID,
	})
}

type sealInput struct {
	text         string
	textOptional bool // image captions may be empty
	media        []byte
	mimeType     string
	duration     int
	senderPubB64 string
	directPubB64 string            // 1:1 counterpart
	roster       map[string]string // group recipients
}

// seal is the shared build path: one session key, one seal per payload,
// then fan-out wrapping. The session key is zeroed before returning.
func (b *Builder) seal(ctx context.Context, t EnvelopeType, in sealInput) (*Envelope, *FanOut, error) {
	senderPub, err := crypto.ImportPublic(in.senderPubB64)
	if err != nil {
		return nil, nil, fmt.Errorf("sender public key: %w", err)
	}

	sessionKey, err := crypto.NewSessionKey()
	if err != nil {
		return nil, nil, err
	}
	defer crypto.Zero(sessionKey)

	env := &Envelope{
		Type:   t,
		SentAt: b.now().UTC(),
	}

	if in.text != "" || !in.textOptional {
		env.Ciphertext, env.IV, err = crypto.SealPayload([]byte(in.text), sessionKey)
		if err != nil {
			return nil, nil, err
		}
	}

	if in.media != nil {
		if b.blobs == nil {
			return nil, nil, fmt.Errorf("media envelope requires a blob store")
		}
		sealed, ivFile, err := crypto.SealBytes(in.media, sessionKey)
		if err != nil {
			return nil, nil, err
		}
		locator, err := b.blobs.Upload(ctx, sealed, in.mimeType)
		if err != nil {
			return nil, nil, fmt.Errorf("upload media: %w", err)
		}
		env.IVFile = ivFile
		env.MediaURL = locator
		env.MimeType = in.mimeType
		env.Duration = in.duration
	}

	// The sender must always be able to re-read its own message.
	env.ForSender, err = crypto.Wrap(sessionKey, senderPub)
	if err != nil {
		return nil, nil, fmt.Errorf("wrap for sender: %w", err)
	}

	fanOut := &FanOut{}

	if in.roster != nil {
		env.ForRecipients = make(map[string]string, len(in.roster))
		for id, pubB64 := range in.roster {
			wrapped, err := b.wrapFor(pubB64, sessionKey)
			if err != nil {
				b.log.WithField("recipient", id).WithError(err).Warn("fan-out wrap failed")
				fanOut.fail(id, err)
				continue
			}
			env.ForRecipients[id] = wrapped
			fanOut.Wrapped = append(fanOut.Wrapped, id)
		}
		if len(env.ForRecipients) == 0 {
			return nil, nil, fanOut.Err()
		}
	} else {
		wrapped, err := b.wrapFor(in.directPubB64, sessionKey)
		if err != nil {
			fanOut.fail("recipient", err)
		} else {
			env.ForRecipient = wrapped
			fanOut.Wrapped = append(fanOut.Wrapped, "recipient")
		}
	}

	if b.auditPub != nil {
		env.ForAdmin, err = crypto.Wrap(sessionKey, b.auditPub)
		if err != nil {
			b.log.WithError(err).Warn("audit wrap failed")
			fanOut.fail(adminSlot, err)
		} else {
			fanOut.Wrapped = append(fanOut.Wrapped, adminSlot)
		}
	}

	return env, fanOut, nil
}

func (b *Builder) wrapFor(pubB64 string, sessionKey []byte) (string, error) {
	pub, err := crypto.ImportPublic(pubB64)
	if err != nil {
		return "", err
	}
	return crypto.Wrap(sessionKey, pub)
}

// discardLogger returns a logger that drops everything. The default for
// components constructed without an explicit diagnostic channel.
func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
