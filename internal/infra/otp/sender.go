package otp

import (
	"log/slog"

	"ownerauth/config"
	"ownerauth/internal/domain/service"
)

// NewSender picks the delivery channel named by otp.delivery.
func NewSender(cfg *config.Config, logger *slog.Logger) service.OTPSender {
	if cfg.OTP.Delivery == config.OTPDeliverySMTP {
		return NewSMTPSender(cfg, logger)
	}

	return NewConsoleSender(logger)
}
