package parlachat

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"
)

// EnvelopeType tags the content variant an envelope carries.
type EnvelopeType string

// Envelope type constants. The values are wire format and must not change.
const (
	// TypeDirect is a 1:1 text message.
	TypeDirect EnvelopeType = "E2E"
	// TypeGroup is a group text message.
	TypeGroup EnvelopeType = "E2E_GROUP"
	// TypeAudio is a 1:1 voice note; the audio body lives in the blob
	// store and the envelope carries its key material and locator.
	TypeAudio EnvelopeType = "E2E_AUDIO"
	// TypeGroupAudio is a group voice note.
	TypeGroupAudio EnvelopeType = "E2E_GROUP_AUDIO"
	// TypeImage is a 1:1 image with an optional encrypted caption.
	TypeImage EnvelopeType = "E2E_IMAGE"
	// TypeGroupImage is a group image.
	TypeGroupImage EnvelopeType = "E2E_GROUP_IMAGE"
)

// AuditStatusNotAuditable marks content that predates the encryption
// rollout. Such content must never be treated as a decryptable envelope.
const AuditStatusNotAuditable = "NO_AUDITABLE"

// Envelope is the sealed unit exchanged over the transport in place of
// plaintext content. It is created once at send time, immutable in transit
// and at rest, and decrypted independently by each reader.
//
// The wrapped-key slot for a designated audit identity (forAdmin) enables
// compliance review without weakening per-user confidentiality from other
// members. Rotation, revocation, and access control around that key's
// private half are an external policy decision this module deliberately
// does not make.
//
// The JSON field names are legacy wire format shared with existing clients.
type Envelope struct {
	// Type declares the content variant.
	Type EnvelopeType `json:"type"`

	// Ciphertext and IV hold the sealed text payload (message body or
	// image caption), both base64. Absent for media without a caption.
	Ciphertext string `json:"ciphertext,omitempty"`
	IV         string `json:"iv,omitempty"`

	// ForSender is the session key wrapped under the sender's own public
	// key, so the sender's devices can re-read sent history.
	ForSender string `json:"forEmisor,omitempty"`

	// ForRecipient is the wrapped session key for the single counterpart
	// in a 1:1 chat.
	ForRecipient string `json:"forReceptor,omitempty"`

	// ForRecipients maps recipient identity to that recipient's wrapped
	// session key, for groups.
	ForRecipients map[string]string `json:"forReceptores,omitempty"`

	// ForAdmin is the session key wrapped under the audit identity's
	// public key, present only when an audit key is configured.
	ForAdmin string `json:"forAdmin,omitempty"`

	// IVFile is the base64 nonce used to seal the external media body.
	IVFile string `json:"ivFile,omitempty"`

	// MediaURL is the blob store locator of the sealed media body.
	MediaURL string `json:"mediaURL,omitempty"`

	// MimeType is the media MIME type (cleartext metadata).
	MimeType string `json:"mimeType,omitempty"`

	// Duration is the voice-note length in seconds (cleartext metadata,
	// so chat-list previews need no decryption).
	Duration int `json:"duration,omitempty"`

	// AuditStatus carries the legacy NO_AUDITABLE marker.
	AuditStatus string `json:"auditStatus,omitempty"`

	// SentAt is the send timestamp set by the building client.
	SentAt time.Time `json:"sentAt,omitempty"`
}

// knownTypes is the classification set: anything whose type is not in here
// is treated as plaintext passthrough by the resolver.
var knownTypes = map[EnvelopeType]bool{
	TypeDirect:     true,
	TypeGroup:      true,
	TypeAudio:      true,
	TypeGroupAudio: true,
	TypeImage:      true,
	TypeGroupImage: true,
}

// IsGroup reports whether the envelope fans out to a recipient roster.
func (e *Envelope) IsGroup() bool {
	switch e.Type {
	case TypeGroup, TypeGroupAudio, TypeGroupImage:
		return true
	}
	return false
}

// IsAudio reports whether the envelope is a voice note.
func (e *Envelope) IsAudio() bool {
	return e.Type == TypeAudio || e.Type == TypeGroupAudio
}

// IsImage reports whether the envelope is an image.
func (e *Envelope) IsImage() bool {
	return e.Type == TypeImage || e.Type == TypeGroupImage
}

// IsMedia reports whether the envelope's body lives in the blob store.
func (e *Envelope) IsMedia() bool {
	return e.IsAudio() || e.IsImage()
}

// Marshal serializes the envelope to the JSON form handed to the transport.
func (e *Envelope) Marshal() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Fingerprint returns a stable identifier for the sealed content: base64 of
// the SHA-256 over the canonical JSON serialization. Used to key the media
// handle cache.
func (e *Envelope) Fingerprint() string {
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
