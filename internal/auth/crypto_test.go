package auth

import (
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	for _, secret := range []string{"geheim", "", "pässwörter mit umlauten", strings.Repeat("x", 500)} {
		sealed, err := s.Seal(secret)
		if err != nil {
			t.Fatalf("Seal(%q): %v", secret, err)
		}
		if sealed == secret && secret != "" {
			t.Errorf("Seal(%q) left plaintext visible", secret)
		}
		got, err := s.Open(sealed)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if got != secret {
			t.Errorf("round trip %q -> %q", secret, got)
		}
	}
}

func TestSealIsRandomized(t *testing.T) {
	s, _ := NewSealer(testKey)
	a, _ := s.Seal("geheim")
	b, _ := s.Seal("geheim")
	if a == b {
		t.Error("two seals of the same secret must differ (random nonce)")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	s, _ := NewSealer(testKey)
	for _, input := range []string{"", "not-base64!!!", "YWJj"} {
		if _, err := s.Open(input); err == nil {
			t.Errorf("Open(%q) accepted garbage", input)
		}
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	a, _ := NewSealer(testKey)
	b, _ := NewSealer("fedcba9876543210fedcba9876543210")
	sealed, _ := a.Seal("geheim")
	if _, err := b.Open(sealed); err == nil {
		t.Error("wrong key must not decrypt")
	}
}

func TestNewSealerRejectsShortKey(t *testing.T) {
	if _, err := NewSealer("short"); err == nil {
		t.Error("short key accepted")
	}
}
