package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
)

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender delivers messages over SMTP
type EmailSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	sendMail sendMailFunc
}

// NewEmailSender creates an SMTP sender. Auth is skipped without a username.
func NewEmailSender(host, port, username, password, from string) *EmailSender {
	return &EmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

// Send delivers msg. The SMTP client has no context support, so ctx is only
// checked before dialing.
func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.ContainsAny(msg.To, "\r\n") {
		return apperrors.WithMessage(apperrors.ErrDeliveryFailure, "recipient contains a line break")
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := net.JoinHostPort(s.host, s.port)
	if err := s.sendMail(addr, auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return apperrors.Wrap(apperrors.ErrDeliveryFailure, fmt.Errorf("smtp %s: %w", addr, err))
	}
	return nil
}

func (s *EmailSender) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(msg.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// headerValue folds line breaks into spaces so a value cannot start a new header
func headerValue(v string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)
}
