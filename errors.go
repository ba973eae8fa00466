package parlachat

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/parlachat/client-go/internal/crypto"
	"github.com/parlachat/client-go/internal/keyring"
)

// Sentinel errors for errors.Is() checks.
var (
	// ErrKeyFormat is returned when a key cannot be decoded or parsed.
	// Fatal to the specific operation, not to the process.
	ErrKeyFormat = crypto.ErrKeyFormat

	// ErrAsymmetricEncrypt is returned when wrapping a session key fails.
	ErrAsymmetricEncrypt = crypto.ErrAsymmetricEncrypt

	// ErrAsymmetricDecrypt is returned when unwrapping a session key fails.
	// On the resolver's probe path this is expected and recoverable.
	ErrAsymmetricDecrypt = crypto.ErrAsymmetricDecrypt

	// ErrAuthentication is returned when the AEAD tag does not verify.
	// Always treated as "content unreadable", never a softer warning,
	// since it may indicate tampering.
	ErrAuthentication = crypto.ErrAuthentication

	// ErrNoLocalKey is returned when the reading identity has no private
	// key on this device. Expected on a new device or after cleared
	// storage; surfaced as a placeholder, not logged as a bug.
	ErrNoLocalKey = keyring.ErrNoLocalKey

	// ErrMalformedEnvelope is returned when content parses as JSON but
	// does not form a usable envelope. The resolver downgrades this to
	// plaintext passthrough rather than raising it.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrNoRecipientSlot is returned when an envelope carries no wrapped
	// session key recoverable by the reading identity.
	ErrNoRecipientSlot = errors.New("no wrapped key slot for identity")
)

// ParlachatError is implemented by all structured SDK errors.
type ParlachatError interface {
	error
	ParlachatError() // marker method
}

// BuildError reports a partial or total fan-out failure while sealing an
// envelope. Recipients that could not be wrapped are enumerated so the
// application layer can decide whether to abort the send or proceed with a
// reduced recipient set; they are never silently dropped.
type BuildError struct {
	// Failed maps recipient id to the wrap error for that recipient.
	Failed map[string]error
}

func (e *BuildError) Error() string {
	var result *multierror.Error
	for id, err := range e.Failed {
		result = multierror.Append(result, fmt.Errorf("recipient %s: %w", id, err))
	}
	return fmt.Sprintf("fan-out failed for %d recipient(s): %v", len(e.Failed), result)
}

// Is implements errors.Is: a BuildError matches a sentinel if any
// per-recipient failure does.
func (e *BuildError) Is(target error) bool {
	for _, err := range e.Failed {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParlachatError implements the ParlachatError interface.
func (e *BuildError) ParlachatError() {}

// ResolveError carries diagnostic detail about which stage of envelope
// resolution failed. It is attached to a Resolution for the operator/debug
// channel and is never rendered to end users.
type ResolveError struct {
	// Stage is the resolution stage that failed: "normalize", "classify",
	// "key", "slot", "unwrap", "open".
	Stage string
	// Type is the declared envelope type, when one was parsed.
	Type EnvelopeType
	// Err is the underlying error.
	Err error
}

func (e *ResolveError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("resolve failed at %s (%s): %v", e.Stage, e.Type, e.Err)
	}
	return fmt.Sprintf("resolve failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// ParlachatError implements the ParlachatError interface.
func (e *ResolveError) ParlachatError() {}
