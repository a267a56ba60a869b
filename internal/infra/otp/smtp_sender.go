package otp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"ownerauth/config"
	"ownerauth/internal/domain/service"

	"github.com/pkg/errors"
)

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// smtpSender mails codes through a relay.
type smtpSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	issuer   string
	logger   *slog.Logger
	sendMail sendMailFunc
}

// NewSMTPSender is the constructor for smtpSender.
func NewSMTPSender(cfg *config.Config, logger *slog.Logger) service.OTPSender {
	mail := cfg.OTP.SMTP
	port := mail.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if mail.Username != "" {
		auth = smtp.PlainAuth("", mail.Username, mail.Password, mail.Host)
	}

	return &smtpSender{
		addr:     net.JoinHostPort(mail.Host, strconv.Itoa(port)),
		auth:     auth,
		from:     mail.From,
		issuer:   cfg.OTP.Issuer,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

func (s *smtpSender) Send(ctx context.Context, msg service.OTPMessage) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	if err := s.sendMail(s.addr, s.auth, s.from, []string{msg.Email}, s.compose(msg)); err != nil {
		return errors.Wrapf(err, "failed to mail one-time password via %s", s.addr)
	}

	s.logger.InfoContext(ctx, "One-time password mailed",
		slog.String("purpose", string(msg.Purpose)),
		slog.Time("expires_at", msg.ExpiresAt),
	)

	return nil
}

func (s *smtpSender) compose(msg service.OTPMessage) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: %s %s code\r\n", s.issuer, msg.Purpose)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Your code is %s.\r\n", msg.Code)
	fmt.Fprintf(&b, "It expires at %s.\r\n", msg.ExpiresAt.UTC().Format(time.RFC1123))

	return b.Bytes()
}
