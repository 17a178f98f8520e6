// Package mailparse is the thin envelope adapter over the standard library's
// mail machinery. It extracts just enough of an inbound message to render an
// inbox row; body-structure parsing is deliberately out of scope.
package mailparse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/Zulfatok/mael/internal/core/domain"
)

// previewLimit caps the number of body bytes sampled for the inbox preview.
const previewLimit = 256

var wordDecoder = new(mime.WordDecoder)

// ParseEnvelope reads the headers and a short body sample from raw RFC822
// bytes. A missing Message-ID or Date is tolerated; an unreadable header
// block is not.
func ParseEnvelope(raw []byte, receivedAt time.Time) (domain.Envelope, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("read message: %w", err)
	}

	env := domain.Envelope{
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<>"),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		From:      decodeAddress(msg.Header.Get("From")),
		To:        decodeAddressList(msg.Header.Get("To")),
		Preview:   bodyPreview(msg.Body),
	}

	if date, err := msg.Header.Date(); err == nil {
		env.Date = date.UTC()
	} else {
		env.Date = receivedAt.UTC()
	}
	return env, nil
}

// decodeHeader applies RFC 2047 word decoding, falling back to the raw value.
func decodeHeader(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

func decodeAddress(s string) string {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return decodeHeader(s)
	}
	return addr.Address
}

func decodeAddressList(s string) []string {
	if s == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(s)
	if err != nil {
		return []string{decodeHeader(s)}
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Address)
	}
	return out
}

// bodyPreview samples the first non-empty body lines up to previewLimit bytes.
func bodyPreview(body io.Reader) string {
	var b strings.Builder
	scanner := bufio.NewScanner(io.LimitReader(body, 8*1024))
	for scanner.Scan() && b.Len() < previewLimit {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
	}
	preview := b.String()
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	return preview
}
