package mailparse

import (
	"strings"
	"testing"
	"time"
)

func TestParseEnvelope(t *testing.T) {
	raw := []byte("Message-ID: <abc@sender.example>\r\n" +
		"From: Sender <sender@sender.example>\r\n" +
		"To: one@mael.example, Two <two@mael.example>\r\n" +
		"Subject: Hello there\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 +0100\r\n" +
		"\r\n" +
		"First line.\r\n" +
		"\r\n" +
		"Second line.\r\n")

	env, err := ParseEnvelope(raw, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if env.MessageID != "abc@sender.example" {
		t.Fatalf("message id: %q", env.MessageID)
	}
	if env.From != "sender@sender.example" {
		t.Fatalf("from: %q", env.From)
	}
	if len(env.To) != 2 || env.To[0] != "one@mael.example" || env.To[1] != "two@mael.example" {
		t.Fatalf("to: %v", env.To)
	}
	if env.Subject != "Hello there" {
		t.Fatalf("subject: %q", env.Subject)
	}
	if got := env.Date.UTC().Format(time.RFC3339); got != "2006-01-02T14:04:05Z" {
		t.Fatalf("date: %s", got)
	}
	if env.Preview != "First line. Second line." {
		t.Fatalf("preview: %q", env.Preview)
	}
}

func TestParseEnvelope_EncodedSubject(t *testing.T) {
	raw := []byte("From: a@b.example\r\n" +
		"Subject: =?UTF-8?Q?Caf=C3=A9_receipt?=\r\n" +
		"\r\nbody\r\n")

	env, err := ParseEnvelope(raw, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if env.Subject != "Café receipt" {
		t.Fatalf("subject not decoded: %q", env.Subject)
	}
}

func TestParseEnvelope_MissingDateFallsBack(t *testing.T) {
	raw := []byte("From: a@b.example\r\nSubject: x\r\n\r\nbody\r\n")
	received := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	env, err := ParseEnvelope(raw, received)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if !env.Date.Equal(received) {
		t.Fatalf("expected fallback to receipt time, got %s", env.Date)
	}
	if env.MessageID != "" {
		t.Fatalf("expected empty message id, got %q", env.MessageID)
	}
}

func TestParseEnvelope_LongBodyTruncated(t *testing.T) {
	raw := []byte("From: a@b.example\r\n\r\n" + strings.Repeat("word ", 200))

	env, err := ParseEnvelope(raw, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if len(env.Preview) > 256 {
		t.Fatalf("preview too long: %d bytes", len(env.Preview))
	}
	if len(env.Preview) == 0 {
		t.Fatalf("expected non-empty preview")
	}
}

func TestParseEnvelope_UnreadableHeaders(t *testing.T) {
	if _, err := ParseEnvelope([]byte("no header block at all"), time.Unix(0, 0)); err == nil {
		t.Fatalf("expected error for unreadable headers")
	}
}
