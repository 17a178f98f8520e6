// Package notify delivers password-reset tokens to account email addresses.
// The SMTP sender covers production; LogSender stands in when no relay is
// configured.
package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// SMTPConfig captures the relay settings for outbound reset mail.
type SMTPConfig struct {
	Addr      string // host:port of the relay
	From      string
	ResetLink string // base URL; the raw token is appended as a query value
}

// SMTPSender sends reset mail through a plain SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// SendReset delivers the reset link for rawToken to toAddress.
func (s *SMTPSender) SendReset(_ context.Context, toAddress, rawToken string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password reset\r\n\r\n"+
			"A password reset was requested for your account.\r\n\r\n"+
			"Reset link: %s?token=%s\r\n\r\n"+
			"If you did not request this, ignore this message.\r\n",
		s.cfg.From, toAddress, s.cfg.ResetLink, rawToken)

	if err := smtp.SendMail(s.cfg.Addr, nil, s.cfg.From, []string{toAddress}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender logs that a reset was issued instead of sending mail. The token
// itself is never logged.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendReset(_ context.Context, toAddress, _ string) error {
	s.log.Info().Str("to", toAddress).Msg("reset notification suppressed (no SMTP relay configured)")
	return nil
}
