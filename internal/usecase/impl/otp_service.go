package impl

import (
	"context"
	"log/slog"

	"ownerauth/config"
	deliverycontext "ownerauth/internal/delivery/context"
	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/repository"
	"ownerauth/internal/domain/service"
	"ownerauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// otpService implements the OTPUsecase interface.
type otpService struct {
	enabled bool
	codes   service.OTPService
	sender  service.OTPSender
	store   repository.AuthStore
	limiter service.AttemptLimiter
	devices usecase.DeviceUsecase
	clock   service.Clock
	logger  *slog.Logger
}

// OTPServiceParams holds dependencies for OTPService, injected by Fx.
type OTPServiceParams struct {
	fx.In

	Codes   service.OTPService
	Sender  service.OTPSender
	Store   repository.AuthStore
	Limiter service.AttemptLimiter
	Devices usecase.DeviceUsecase
	Clock   service.Clock
	Config  *config.Config
	Logger  *slog.Logger
}

// NewOTPService is the constructor for otpService.
func NewOTPService(params OTPServiceParams) usecase.OTPUsecase {
	return &otpService{
		enabled: params.Config.OTP.Enabled,
		codes:   params.Codes,
		sender:  params.Sender,
		store:   params.Store,
		limiter: params.Limiter,
		devices: params.Devices,
		clock:   params.Clock,
		logger:  params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *otpService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *otpService) Enabled() bool {
	return srv.enabled
}

// RequestCode issues a challenge and delivers the code only when the purpose fits the account state:
// login codes go to the owner's address, signup codes only while no owner exists.
// The caller receives a challenge either way.
func (srv *otpService) RequestCode(ctx context.Context, input *usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, errors.WithStack(domainerrors.ErrMissingFields)
	}
	if !input.Purpose.IsValid() {
		return nil, errors.WithStack(domainerrors.ErrValidation.WithDetails("purpose must be signup or login"))
	}

	challenge, err := srv.codes.Issue(email, input.Purpose)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue one-time password")
	}

	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}

	deliver := false
	switch input.Purpose {
	case service.OTPPurposeLogin:
		deliver = record.Owner != nil && record.Owner.Email == email
	case service.OTPPurposeSignup:
		deliver = record.Owner == nil
	}

	if deliver {
		err := srv.sender.Send(ctx, service.OTPMessage{
			Email:     email,
			Purpose:   input.Purpose,
			Code:      challenge.Code,
			ExpiresAt: challenge.ExpiresAt,
		})
		if err != nil {
			srv.log(ctx).Error("Failed to deliver one-time password", slog.Any("error", err))

			return nil, errors.Wrap(err, "failed to deliver one-time password")
		}
	} else {
		srv.log(ctx).Info("One-time password withheld", slog.String("purpose", string(input.Purpose)))
	}

	return &usecase.RequestCodeOutput{
		Challenge: challenge.Challenge,
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// VerifyCode checks a submitted code. Failures count against the otp:verify scope of the email.
func (srv *otpService) VerifyCode(ctx context.Context, input *usecase.VerifyCodeInput) error {
	email := entity.NormalizeEmail(input.Email)
	key := entity.AttemptKey(entity.AttemptScopeOTPVerify, email)

	snapshot, err := srv.store.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read auth record")
	}
	if err := srv.limiter.AssertNotBlocked(snapshot, key, srv.clock.Now()); err != nil {
		srv.log(ctx).Warn("Code verification rejected while rate limited", slog.String("key", key))

		return err
	}

	ok := srv.codes.Verify(email, input.Purpose, input.Challenge, input.Code)

	var verifyErr error
	err = srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		now := srv.clock.Now()
		if err := srv.limiter.AssertNotBlocked(record, key, now); err != nil {
			return err
		}

		if !ok {
			srv.limiter.RegisterFailure(record, key, srv.limiter.MaxAttempts(), now)
			verifyErr = errors.WithStack(domainerrors.ErrInvalidOTP)

			return nil
		}

		if _, tracked := record.AttemptState[key]; !tracked {
			return repository.ErrNoChanges
		}
		srv.limiter.Clear(record, key)

		return nil
	})
	if err != nil {
		var rateErr *domainerrors.RateLimitedError
		if errors.As(err, &rateErr) {
			return err
		}
		srv.log(ctx).Error("Failed to record code verification", slog.Any("error", err))

		return errors.Wrap(err, "failed to record code verification")
	}
	if verifyErr != nil {
		srv.log(ctx).Warn("Invalid one-time password", slog.String("key", key))

		return verifyErr
	}

	return nil
}

// Required is true while the gate is enabled and the device is not trusted.
func (srv *otpService) Required(ctx context.Context, trustedDeviceTokenHash string) (bool, error) {
	if !srv.enabled {
		return false, nil
	}

	trusted, err := srv.devices.HasTrustedDevice(ctx, trustedDeviceTokenHash)
	if err != nil {
		return false, err
	}

	return !trusted, nil
}
