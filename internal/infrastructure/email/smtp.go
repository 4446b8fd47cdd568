// Package email delivers one-time codes over SMTP. The plaintext code exists
// only in the outbound message; nothing here persists it.
package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const senderName = "KickOff Security"

// Config captures the SMTP settings for OTP delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough settings are present to send real mail.
func (c Config) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender sends OTP mail through a single SMTP endpoint. Each send dials a
// fresh connection bounded by the caller's context deadline.
type SMTPSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendCode(ctx context.Context, email, code string, validFor time.Duration) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}

	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// The deadline covers the whole SMTP conversation, not just the dial.
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := fmt.Sprintf(
		"From: %q <%s>\r\nTo: %s\r\nSubject: Your KickOff OTP Code\r\n\r\nYour OTP code is %s. It expires in %d minutes.\r\n",
		senderName, s.cfg.From, email, code, int(validFor.Minutes()),
	)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}

// LogSender is the development fallback used when SMTP is unconfigured: it
// logs that a code was issued without revealing the code itself.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendCode(_ context.Context, email, _ string, validFor time.Duration) error {
	s.log.Info().
		Str("email", email).
		Dur("valid_for", validFor).
		Msg("otp issued (smtp unconfigured, code not delivered)")
	return nil
}
