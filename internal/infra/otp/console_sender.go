package otp

import (
	"context"
	"log/slog"

	"ownerauth/internal/domain/service"
)

// consoleSender writes codes to the service log. Meant for single-host setups without a mail relay.
type consoleSender struct {
	logger *slog.Logger
}

// NewConsoleSender is the constructor for consoleSender.
func NewConsoleSender(logger *slog.Logger) service.OTPSender {
	return &consoleSender{logger: logger}
}

func (s *consoleSender) Send(ctx context.Context, msg service.OTPMessage) error {
	s.logger.InfoContext(ctx, "One-time password issued",
		slog.String("email", msg.Email),
		slog.String("purpose", string(msg.Purpose)),
		slog.String("code", msg.Code),
		slog.Time("expires_at", msg.ExpiresAt),
	)

	return nil
}
