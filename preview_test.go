package parlachat

import (
	"context"
	"strings"
	"testing"

	"github.com/parlachat/client-go/internal/blobstore"
	"github.com/parlachat/client-go/internal/keyring"
)

func TestSummarizer_PlaintextPassthrough(t *testing.T) {
	store, _ := newTestStore(t, "1")
	s := NewSummarizer(NewResolver(store, nil))

	got := s.Preview(context.Background(), "see you at 8", "1", "9")
	if got != "see you at 8" {
		t.Errorf("Preview = %q", got)
	}
}

func TestSummarizer_TruncatesLongPlaintext(t *testing.T) {
	store, _ := newTestStore(t, "1")
	s := NewSummarizer(NewResolver(store, nil))

	long := strings.Repeat("ñ", 300)
	got := s.Preview(context.Background(), long, "1", "9")

	runes := []rune(got)
	if len(runes) != previewMaxRunes+1 {
		t.Errorf("len = %d runes, want %d plus ellipsis", len(runes), previewMaxRunes)
	}
	if runes[len(runes)-1] != '…' {
		t.Errorf("truncated preview does not end in ellipsis: %q", got)
	}
}

func TestSummarizer_LegacyMarker(t *testing.T) {
	store, _ := newTestStore(t, "1")
	s := NewSummarizer(NewResolver(store, nil))

	got := s.Preview(context.Background(), `{"auditStatus":"NO_AUDITABLE"}`, "1", "9")
	if got != PlaceholderLegacy {
		t.Errorf("Preview = %q, want %q", got, PlaceholderLegacy)
	}
}

func TestSummarizer_Text(t *testing.T) {
	store, pairs := newTestStore(t, "1", "2")
	builder := NewBuilder(nil, nil, nil)

	env, err := builder.BuildDirect(context.Background(), "hola",
		pairs["1"].PublicB64, pairs["2"].PublicB64)
	if err != nil {
		t.Fatal(err)
	}
	raw := mustMarshal(t, env)

	s := NewSummarizer(NewResolver(store, nil))

	if got := s.Preview(context.Background(), raw, "2", "1"); got != "hola" {
		t.Errorf("recipient preview = %q, want the plaintext", got)
	}

	// Any failure collapses to the generic label at preview granularity.
	if err := store.Reset(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if got := s.Preview(context.Background(), raw, "2", "1"); got != PreviewEncrypted {
		t.Errorf("no-key preview = %q, want %q", got, PreviewEncrypted)
	}
}

func TestSummarizer_Audio(t *testing.T) {
	// Duration is cleartext metadata, so no key material is needed at all.
	store := keyring.NewMemoryStore()
	s := NewSummarizer(NewResolver(store, nil))

	tests := []struct {
		name     string
		duration int
		want     string
	}{
		{"minute and seconds", 65, "Voice message (1:05)"},
		{"under a minute", 7, "Voice message (0:07)"},
		{"missing duration", 0, "Voice message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{Type: TypeAudio, MediaURL: "fake://blobs/1", Duration: tt.duration}
			raw := mustMarshal(t, env)

			if got := s.Preview(context.Background(), raw, "2", "1"); got != tt.want {
				t.Errorf("Preview = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizer_Image(t *testing.T) {
	store, pairs := newTestStore(t, "1", "2", "3")
	builder := NewBuilder(blobstore.NewFakeStore(), nil, nil)
	s := NewSummarizer(NewResolver(store, nil))
	img := []byte{0xff, 0xd8}

	withCaption, err := builder.BuildImage(context.Background(), img, "image/jpeg", "la playa",
		pairs["1"].PublicB64, pairs["2"].PublicB64)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Preview(context.Background(), mustMarshal(t, withCaption), "2", "1"); got != "la playa" {
		t.Errorf("captioned preview = %q, want the caption", got)
	}

	withoutCaption, err := builder.BuildImage(context.Background(), img, "image/jpeg", "",
		pairs["1"].PublicB64, pairs["2"].PublicB64)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Preview(context.Background(), mustMarshal(t, withoutCaption), "2", "1"); got != PreviewImage {
		t.Errorf("captionless preview = %q, want %q", got, PreviewImage)
	}

	// A reader with no recoverable slot falls back to the generic label.
	if got := s.Preview(context.Background(), mustMarshal(t, withCaption), "3", "1"); got != PreviewImage {
		t.Errorf("unreadable preview = %q, want %q", got, PreviewImage)
	}
}
