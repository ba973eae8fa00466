package parlachat

import (
	"context"
	"fmt"
)

// Preview labels. At chat-list granularity the UI must not distinguish
// failure subtypes, so every text failure collapses to PreviewEncrypted.
const (
	// PreviewEncrypted is the generic label for any text envelope whose
	// plaintext could not be recovered.
	PreviewEncrypted = "Encrypted message"

	// PreviewImage is the label for an image whose caption is absent or
	// could not be recovered.
	PreviewImage = "Image"
)

// previewMaxRunes caps preview length; chat-list rows truncate anyway.
const previewMaxRunes = 120

// Summarizer produces short, best-effort summaries of inbound content for
// chat-list previews, without requiring the full message object. It shares
// the resolver's classification and slot-selection logic but degrades to
// generic labels instead of error detail, and it never panics past its own
// boundary: Preview always returns a renderable string.
type Summarizer struct {
	resolver *Resolver
}

// NewSummarizer creates a Summarizer on top of resolver.
func NewSummarizer(resolver *Resolver) *Summarizer {
	return &Summarizer{resolver: resolver}
}

// Preview summarizes one raw content value.
//
// Voice notes resolve to a duration label with no decryption at all, since
// the duration travels in cleartext metadata. Images decrypt only far
// enough to recover an optional caption, falling back to a generic label on
// any failure. Text performs full resolution with all failure states
// collapsed to PreviewEncrypted.
func (s *Summarizer) Preview(ctx context.Context, raw, readerID, senderID string) string {
	env, ok := ParseEnvelope(raw)
	if !ok {
		// Legacy plaintext previews as itself.
		return truncatePreview(raw)
	}

	if env.AuditStatus == AuditStatusNotAuditable {
		return PlaceholderLegacy
	}

	switch {
	case env.IsAudio():
		return audioLabel(env.Duration)

	case env.IsImage():
		res := s.resolver.Resolve(ctx, raw, readerID, senderID)
		if res.Opened() && res.Text != "" {
			return truncatePreview(res.Text)
		}
		return PreviewImage

	default:
		res := s.resolver.Resolve(ctx, raw, readerID, senderID)
		if res.Opened() {
			return truncatePreview(res.Text)
		}
		return PreviewEncrypted
	}
}

// audioLabel formats a voice-note preview like "Voice message (1:05)".
func audioLabel(durationSeconds int) string {
	if durationSeconds <= 0 {
		return "Voice message"
	}
	return fmt.Sprintf("Voice message (%d:%02d)", durationSeconds/60, durationSeconds%60)
}

func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewMaxRunes {
		return s
	}
	return string(runes[:previewMaxRunes]) + "…"
}
