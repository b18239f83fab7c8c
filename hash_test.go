package credcache

import (
	"regexp"
	"testing"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestFingerprintFormat(t *testing.T) {
	for _, in := range []string{"", "a", `{"version":1,"entries":{}}`} {
		if got := Fingerprint([]byte(in)); !hexPattern.MatchString(got) {
			t.Errorf("Fingerprint(%q) = %q, want 16 hex chars", in, got)
		}
	}
}

// TestDigestDeterministic matters because Cache compares the digest of a
// freshly loaded document with the one it last saw; a non-deterministic
// digest would force a decode on every operation.
func TestDigestDeterministic(t *testing.T) {
	a := []byte(`{"version":1,"entries":{"k":{"kind":"account","secret":"s"}}}`)
	b := append([]byte{}, a...)
	if digest(a) != digest(b) {
		t.Error("equal input produced different digests")
	}
	b[len(b)-3] = 'x'
	if digest(a) == digest(b) {
		t.Error("different input produced equal digests")
	}
}
