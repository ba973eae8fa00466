package parlachat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/parlachat/client-go/internal/crypto"
	"github.com/parlachat/client-go/internal/keyring"
)

// maxDecodeDepth bounds the normalization loop that undoes accidental
// double-encoding. Relays have been seen stringifying envelope JSON up to
// twice; four leaves margin without risking unbounded work.
const maxDecodeDepth = 4

// User-safe placeholder strings. Every resolver failure path terminates in
// one of these; diagnostic detail goes to the logger, never to the UI.
const (
	// PlaceholderLegacy marks content that predates the encryption rollout.
	PlaceholderLegacy = "Message not auditable"

	// PlaceholderNoKey is shown when no key material can recover the
	// message on this device: either the local private key is missing or
	// the envelope carries no slot for the reading identity.
	PlaceholderNoKey = "Encrypted message (no key available on this device)"

	// PlaceholderUnreadable is shown when key material is present but the
	// payload cannot be recovered (wrong key, corruption, tampering).
	PlaceholderUnreadable = "Encrypted message (unable to decrypt)"
)

// State is the terminal state of one resolution attempt.
type State int

const (
	// StatePlaintext means the raw value was not an envelope and was
	// returned unchanged (legacy-compatibility path).
	StatePlaintext State = iota
	// StateLegacy means the envelope carried the NO_AUDITABLE marker.
	StateLegacy
	// StateNoKey means no key material can recover this message here.
	StateNoKey
	// StateOpened means the payload was recovered.
	StateOpened
	// StateUnreadable means key material was present but recovery failed.
	StateUnreadable
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePlaintext:
		return "PLAINTEXT_PASSTHROUGH"
	case StateLegacy:
		return "LEGACY_MARKER"
	case StateNoKey:
		return "NO_KEY"
	case StateOpened:
		return "OPENED"
	case StateUnreadable:
		return "UNREADABLE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Resolution is the outcome of resolving one inbound content value. Text is
// always renderable; Err carries diagnostic detail for the operator/debug
// channel and must never reach user-visible surfaces.
type Resolution struct {
	// State is the terminal state of the attempt.
	State State
	// Text is the recovered plaintext, the passthrough value, or a
	// user-safe placeholder. Always renderable.
	Text string
	// Envelope is the parsed envelope, when the raw value was one.
	Envelope *Envelope
	// Slot names the wrapped-key slot that resolved, for diagnostics.
	Slot string
	// Err is the diagnostic error for failed states.
	Err error
}

// Opened reports whether plaintext was recovered.
func (r Resolution) Opened() bool {
	return r.State == StateOpened
}

// Resolver recovers plaintext from sealed envelopes. It is stateless
// between calls: any number of envelopes may be resolved concurrently, and
// resolution of one message never depends on another. A failed resolution
// is not retried automatically; callers may re-invoke later (for example
// after the user re-imports a key).
type Resolver struct {
	keys keyring.Store
	log  logrus.FieldLogger
}

// NewResolver creates a Resolver reading private keys from keys.
func NewResolver(keys keyring.Store, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = discardLogger()
	}
	return &Resolver{keys: keys, log: log}
}

// ParseEnvelope attempts to interpret a raw content value as a sealed
// envelope. The value may be plain legacy text, a single-encoded JSON
// envelope, or a multiply-stringified JSON envelope from transport
// re-serialization; parsing peels at most maxDecodeDepth layers. It returns
// false when the value is not an envelope, which callers must treat as
// plaintext passthrough. It never panics.
func ParseEnvelope(raw string) (*Envelope, bool) {
	cur := raw
	for i := 0; i < maxDecodeDepth; i++ {
		var v any
		if err := json.Unmarshal([]byte(cur), &v); err != nil {
			return nil, false
		}

		switch vv := v.(type) {
		case string:
			// One stringification layer; peel and retry.
			cur = vv
		case map[string]any:
			var env Envelope
			if err := json.Unmarshal([]byte(cur), &env); err != nil {
				return nil, false
			}
			// The NO_AUDITABLE marker is one more case of the same
			// classification, so it is recognized even when the legacy
			// writer omitted a type field.
			if env.AuditStatus != AuditStatusNotAuditable && !knownTypes[env.Type] {
				return nil, false
			}
			return &env, true
		default:
			// Numbers, booleans, arrays: not an envelope.
			return nil, false
		}
	}
	return nil, false
}

// Resolve runs one resolution attempt:
//
//	RAW -> PARSED -> {PLAINTEXT_PASSTHROUGH | LEGACY_MARKER | NO_KEY |
//	                  SLOT_FOUND -> UNWRAPPED -> OPENED | UNREADABLE}
//
// It never returns an error: every failure terminates in a Resolution whose
// Text is safe to render.
func (r *Resolver) Resolve(ctx context.Context, raw, readerID, senderID string) Resolution {
	env, ok := ParseEnvelope(raw)
	if !ok {
		return Resolution{State: StatePlaintext, Text: raw}
	}

	if env.AuditStatus == AuditStatusNotAuditable {
		return Resolution{State: StateLegacy, Text: PlaceholderLegacy, Envelope: env}
	}

	kp, err := r.keys.KeyPair(ctx, readerID)
	if err != nil {
		if !errors.Is(err, keyring.ErrNoLocalKey) {
			r.log.WithField("reader", readerID).WithError(err).Error("key store read failed")
		}
		return Resolution{
			State:    StateNoKey,
			Text:     PlaceholderNoKey,
			Envelope: env,
			Err:      &ResolveError{Stage: "key", Type: env.Type, Err: err},
		}
	}

	sessionKey, slot, err := r.sessionKeyFor(env, kp, readerID, senderID)
	if err != nil {
		if errors.Is(err, ErrNoRecipientSlot) {
			return Resolution{
				State:    StateNoKey,
				Text:     PlaceholderNoKey,
				Envelope: env,
				Err:      &ResolveError{Stage: "slot", Type: env.Type, Err: err},
			}
		}
		return Resolution{
			State:    StateUnreadable,
			Text:     PlaceholderUnreadable,
			Envelope: env,
			Slot:     slot,
			Err:      &ResolveError{Stage: "unwrap", Type: env.Type, Err: err},
		}
	}
	defer crypto.Zero(sessionKey)

	// Media without a caption carries no text payload; the slot and
	// session key are still validated above.
	if env.Ciphertext == "" && env.IsMedia() {
		return Resolution{State: StateOpened, Envelope: env, Slot: slot}
	}

	plaintext, err := crypto.OpenPayload(env.Ciphertext, env.IV, sessionKey)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"type": env.Type,
			"slot": slot,
		}).WithError(err).Warn("payload open failed")
		return Resolution{
			State:    StateUnreadable,
			Text:     PlaceholderUnreadable,
			Envelope: env,
			Slot:     slot,
			Err:      &ResolveError{Stage: "open", Type: env.Type, Err: err},
		}
	}

	return Resolution{State: StateOpened, Text: string(plaintext), Envelope: env, Slot: slot}
}

// sessionKeyFor selects the wrapped-key slot belonging to the reading
// identity and unwraps it.
//
// Group slot selection tries an exact forReceptores key match first. When
// no exact entry exists, it falls back to a linear probe over every entry,
// accepting the first that unwraps. The probe tolerates roster/id-format
// drift from upstream synchronization; it is bounded by the roster size and
// logged, because drift reaching this path is a bug to investigate
// upstream, not normal operation.
func (r *Resolver) sessionKeyFor(env *Envelope, kp *crypto.KeyPair, readerID, senderID string) ([]byte, string, error) {
	if readerID == senderID {
		if env.ForSender == "" {
			return nil, "", ErrNoRecipientSlot
		}
		key, err := crypto.Unwrap(env.ForSender, kp.Private)
		return key, "forEmisor", err
	}

	if !env.IsGroup() {
		if env.ForRecipient == "" {
			return nil, "", ErrNoRecipientSlot
		}
		key, err := crypto.Unwrap(env.ForRecipient, kp.Private)
		return key, "forReceptor", err
	}

	if wrapped, ok := env.ForRecipients[readerID]; ok {
		key, err := crypto.Unwrap(wrapped, kp.Private)
		return key, "forReceptores[" + readerID + "]", err
	}

	r.log.WithFields(logrus.Fields{
		"reader": readerID,
		"roster": len(env.ForRecipients),
	}).Warn("no exact recipient slot, probing roster")

	for id, wrapped := range env.ForRecipients {
		key, err := crypto.Unwrap(wrapped, kp.Private)
		if err == nil {
			r.log.WithFields(logrus.Fields{
				"reader": readerID,
				"slot":   id,
			}).Warn("roster probe matched under a different id")
			return key, "forReceptores[" + id + "] (probed)", nil
		}
	}

	return nil, "", ErrNoRecipientSlot
}
