package parlachat

import (
	"errors"
	"strings"
	"testing"
)

// Compile-time checks that structured errors implement the marker interface.
var (
	_ ParlachatError = (*BuildError)(nil)
	_ ParlachatError = (*ResolveError)(nil)
)

func TestBuildError_EnumeratesRecipients(t *testing.T) {
	err := &BuildError{Failed: map[string]error{
		"2": ErrKeyFormat,
		"7": ErrAsymmetricEncrypt,
	}}

	msg := err.Error()
	if !strings.Contains(msg, "2 recipient(s)") {
		t.Errorf("Error() = %q, want recipient count", msg)
	}
	for _, id := range []string{"recipient 2", "recipient 7"} {
		if !strings.Contains(msg, id) {
			t.Errorf("Error() = %q, missing %q", msg, id)
		}
	}
}

func TestBuildError_IsMatchesAnyFailure(t *testing.T) {
	err := &BuildError{Failed: map[string]error{
		"2": ErrKeyFormat,
	}}

	if !errors.Is(err, ErrKeyFormat) {
		t.Error("errors.Is(err, ErrKeyFormat) = false")
	}
	if errors.Is(err, ErrAuthentication) {
		t.Error("errors.Is matched a sentinel no recipient failed with")
	}
}

func TestResolveError_Unwrap(t *testing.T) {
	err := &ResolveError{Stage: "open", Type: TypeDirect, Err: ErrAuthentication}

	if !errors.Is(err, ErrAuthentication) {
		t.Error("errors.Is did not reach the wrapped sentinel")
	}
	if !strings.Contains(err.Error(), "open") || !strings.Contains(err.Error(), "E2E") {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := &ResolveError{Stage: "key", Err: ErrNoLocalKey}
	if strings.Contains(bare.Error(), "()") {
		t.Errorf("Error() = %q, renders an empty type", bare.Error())
	}
}
