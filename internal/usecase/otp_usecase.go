package usecase

import (
	"context"
	"time"

	"ownerauth/internal/domain/service"
)

// RequestCodeInput asks for a one-time password for an email and purpose.
type RequestCodeInput struct {
	Email   string
	Purpose service.OTPPurpose
}

// RequestCodeOutput is returned whether or not a code was actually delivered.
type RequestCodeOutput struct {
	Challenge string
	ExpiresAt time.Time
}

// VerifyCodeInput submits a code together with the challenge it was issued under.
type VerifyCodeInput struct {
	Email     string
	Purpose   service.OTPPurpose
	Challenge string
	Code      string
}

// OTPUsecase is the second-factor gate placed around signup and login.
type OTPUsecase interface {
	Enabled() bool
	RequestCode(ctx context.Context, input *RequestCodeInput) (*RequestCodeOutput, error)
	VerifyCode(ctx context.Context, input *VerifyCodeInput) error
	// Required reports whether a login from the given device must present a code.
	Required(ctx context.Context, trustedDeviceTokenHash string) (bool, error)
}
