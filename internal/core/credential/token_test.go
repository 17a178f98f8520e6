package credential

import (
	"encoding/base64"
	"testing"
)

func TestNewToken_URLSafe(t *testing.T) {
	token, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) != tokenBytes {
		t.Fatalf("expected %d bytes of entropy, got %d", tokenBytes, len(raw))
	}
}

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = struct{}{}
	}
}

func TestDigest(t *testing.T) {
	if Digest("abc") != Digest("abc") {
		t.Fatalf("digest is not deterministic")
	}
	if Digest("abc") == Digest("abd") {
		t.Fatalf("different tokens share a digest")
	}
	if Digest("abc") == "abc" {
		t.Fatalf("digest must not echo the token")
	}
	if _, err := base64.RawURLEncoding.DecodeString(Digest("abc")); err != nil {
		t.Fatalf("digest is not URL-safe base64: %v", err)
	}
}
