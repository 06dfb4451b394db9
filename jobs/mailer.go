package jobs

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// MailerConfig describes the SMTP relay.
type MailerConfig struct {
	Addr     string
	From     string
	Username string
	Password string
	// PerMinute caps outbound mail so a burst of contact submissions
	// cannot trip the relay's abuse limits.
	PerMinute int
}

// Mailer sends plain-text mail through SMTP, paced by a token bucket.
type Mailer struct {
	addr     string
	from     string
	username string
	password string
	limiter  *rate.Limiter
}

// NewMailer constructs a Mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	perMinute := cfg.PerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Mailer{
		addr:     cfg.Addr,
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

// Send delivers one message, blocking for a rate token first.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.username != "" {
		host := m.addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}
	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
