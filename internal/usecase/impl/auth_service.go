package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

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

// dummyPassword feeds the decoy verification that runs when no owner matches the email.
const dummyPassword = "ownerauth-decoy-password"

// authService implements the AuthUsecase interface.
type authService struct {
	store   repository.AuthStore
	hasher  service.PasswordHasher
	limiter service.AttemptLimiter
	devices service.DeviceTokenIssuer
	clock   service.Clock
	auth    *config.AuthConfig
	logger  *slog.Logger

	decoyOnce   sync.Once
	decoyDigest service.PasswordDigest
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Store   repository.AuthStore
	Hasher  service.PasswordHasher
	Limiter service.AttemptLimiter
	Devices service.DeviceTokenIssuer
	Clock   service.Clock
	Config  *config.Config
	Logger  *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		store:   params.Store,
		hasher:  params.Hasher,
		limiter: params.Limiter,
		devices: params.Devices,
		clock:   params.Clock,
		auth:    params.Config.Auth,
		logger:  params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetStatus reports whether the owner account exists.
func (srv *authService) GetStatus(ctx context.Context) (*usecase.StatusOutput, error) {
	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}

	return &usecase.StatusOutput{HasOwner: record.Owner != nil}, nil
}

// Signup creates the owner and its first session. Only the first successful call ever creates an owner.
func (srv *authService) Signup(ctx context.Context, input *usecase.SignupInput) (*entity.SessionPayload, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, errors.WithStack(domainerrors.ErrMissingFields)
	}
	if err := srv.checkPasswordLength(input.Password); err != nil {
		return nil, err
	}
	if !isValidEmail(email) {
		return nil, errors.WithStack(domainerrors.ErrValidation.WithDetails("email is not a valid address"))
	}

	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}
	if !isValidTimezone(timezone) {
		return nil, errors.WithStack(domainerrors.ErrValidation.WithDetails("timezone is not a known IANA zone"))
	}

	snapshot, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}
	if snapshot.Owner != nil {
		return nil, errors.WithStack(domainerrors.ErrOwnerAlreadyExists)
	}

	digest, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	var session entity.SessionRecord
	err = srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		if record.Owner != nil {
			return errors.WithStack(domainerrors.ErrOwnerAlreadyExists)
		}

		now := srv.clock.Now()
		record.Owner = &entity.OwnerRecord{
			Email:        email,
			FullName:     strings.TrimSpace(input.FullName),
			Role:         entity.RoleOwner,
			Timezone:     timezone,
			PasswordHash: digest.Hash,
			PasswordSalt: digest.Salt,
			CreatedAt:    now.UnixMilli(),
		}
		session = newSession(now, srv.auth.SessionTTL, "")
		record.Sessions = append(record.Sessions, session)

		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrOwnerAlreadyExists) {
			srv.log(ctx).Warn("Signup rejected, owner already exists")

			return nil, err
		}
		srv.log(ctx).Error("Failed to create owner", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create owner")
	}

	srv.log(ctx).Info("Owner account created", slog.String("email", email))

	return session.Payload(), nil
}

// StartLogin verifies the owner password and issues a session.
// Password derivation happens outside the write queue; the queued mutation records the outcome.
func (srv *authService) StartLogin(ctx context.Context, input *usecase.LoginInput) (*entity.SessionPayload, error) {
	email := entity.NormalizeEmail(input.Email)
	key := entity.AttemptKey(entity.AttemptScopeLoginStart, email)

	if input.TrustedDeviceTokenHash != "" {
		if err := srv.devices.ValidateHash(input.TrustedDeviceTokenHash); err != nil {
			return nil, err
		}
	}

	snapshot, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}
	if err := srv.limiter.AssertNotBlocked(snapshot, key, srv.clock.Now()); err != nil {
		srv.log(ctx).Warn("Login rejected while rate limited", slog.String("key", key))

		return nil, err
	}

	checked := ownerDigest(snapshot.Owner)
	matched, ok := srv.verifyLogin(snapshot.Owner, email, input.Password)
	upgrade, err := srv.upgradeFor(matched, ok, input.Password)
	if err != nil {
		return nil, err
	}

	var (
		session  entity.SessionRecord
		loginErr error
		failures int
	)
	err = srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		now := srv.clock.Now()
		if err := srv.limiter.AssertNotBlocked(record, key, now); err != nil {
			return err
		}

		// The owner changed while the password was being derived.
		if ownerDigest(record.Owner) != checked {
			matched, ok = srv.verifyLogin(record.Owner, email, input.Password)
			var upgradeErr error
			if upgrade, upgradeErr = srv.upgradeFor(matched, ok, input.Password); upgradeErr != nil {
				return upgradeErr
			}
		}

		if !ok {
			state := srv.limiter.RegisterFailure(record, key, srv.limiter.MaxAttempts(), now)
			failures = state.Count
			loginErr = errors.WithStack(domainerrors.ErrInvalidCredentials)

			return nil
		}

		if upgrade != nil {
			record.Owner.PasswordHash = upgrade.Hash
			record.Owner.PasswordSalt = upgrade.Salt
		}
		session = newSession(now, srv.auth.SessionTTL, input.TrustedDeviceTokenHash)
		record.Sessions = append(record.Sessions, session)
		srv.limiter.Clear(record, key)

		return nil
	})
	if err != nil {
		var rateErr *domainerrors.RateLimitedError
		if errors.As(err, &rateErr) {
			srv.log(ctx).Warn("Login rejected while rate limited", slog.String("key", key))

			return nil, err
		}
		srv.log(ctx).Error("Failed to record login", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to record login")
	}
	if loginErr != nil {
		srv.log(ctx).Warn("Login failed", slog.String("key", key), slog.Int("failures", failures))

		return nil, loginErr
	}

	srv.log(ctx).Info("Owner logged in",
		slog.Bool("password_upgraded", upgrade != nil),
		slog.Bool("device_bound", input.TrustedDeviceTokenHash != ""),
	)

	return session.Payload(), nil
}

// ChangePassword replaces the password, drops every trusted device and every session,
// and returns the only session that remains valid.
func (srv *authService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) (*entity.SessionPayload, error) {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return nil, errors.WithStack(domainerrors.ErrMissingFields)
	}
	if err := srv.checkPasswordLength(input.NewPassword); err != nil {
		return nil, err
	}

	snapshot, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}
	if snapshot.Owner == nil {
		return nil, errors.WithStack(domainerrors.ErrOwnerNotCreated)
	}

	checked := ownerDigest(snapshot.Owner)
	if !srv.hasher.Verify(input.CurrentPassword, checked, service.ParamSetCurrent) {
		return nil, errors.WithStack(domainerrors.ErrIncorrectPassword)
	}

	digest, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	var session entity.SessionRecord
	err = srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		if record.Owner == nil {
			return errors.WithStack(domainerrors.ErrOwnerNotCreated)
		}
		if current := ownerDigest(record.Owner); current != checked &&
			!srv.hasher.Verify(input.CurrentPassword, current, service.ParamSetCurrent) {
			return errors.WithStack(domainerrors.ErrIncorrectPassword)
		}

		record.Owner.PasswordHash = digest.Hash
		record.Owner.PasswordSalt = digest.Salt
		record.TrustedDevices = []entity.TrustedDeviceRecord{}
		session = newSession(srv.clock.Now(), srv.auth.SessionTTL, "")
		record.Sessions = []entity.SessionRecord{session}

		return nil
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) && appErr.HTTPCode() < 500 {
			return nil, err
		}
		srv.log(ctx).Error("Failed to change password", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to change password")
	}

	srv.log(ctx).Info("Owner password changed, all sessions and trusted devices revoked")

	return session.Payload(), nil
}

func (srv *authService) checkPasswordLength(password string) error {
	if utf8.RuneCountInString(password) < srv.auth.MinPasswordLength {
		return errors.WithStack(domainerrors.ErrPasswordTooShort.WithDetails(map[string]int{
			"min_length": srv.auth.MinPasswordLength,
		}))
	}

	return nil
}

// verifyLogin tries each parameter set in order. A missing owner or a different email is checked
// against a decoy digest so the outcome takes the same work either way.
func (srv *authService) verifyLogin(owner *entity.OwnerRecord, email, password string) (service.ParamSet, bool) {
	digest := ownerDigest(owner)
	known := owner != nil && owner.Email == email && email != ""
	if !known {
		digest = srv.decoy()
	}

	for _, params := range service.VerifyOrder {
		if srv.hasher.Verify(password, digest, params) && known {
			return params, true
		}
	}

	return "", false
}

// upgradeFor rehashes under the current parameters when the password only matched the legacy set.
func (srv *authService) upgradeFor(matched service.ParamSet, ok bool, password string) (*service.PasswordDigest, error) {
	if !ok || matched != service.ParamSetLegacy {
		return nil, nil
	}

	digest, err := srv.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upgrade password hash")
	}

	return &digest, nil
}

func (srv *authService) decoy() service.PasswordDigest {
	srv.decoyOnce.Do(func() {
		digest, err := srv.hasher.Hash(dummyPassword)
		if err == nil {
			srv.decoyDigest = digest
		}
	})

	return srv.decoyDigest
}

func ownerDigest(owner *entity.OwnerRecord) service.PasswordDigest {
	if owner == nil {
		return service.PasswordDigest{}
	}

	return service.PasswordDigest{Hash: owner.PasswordHash, Salt: owner.PasswordSalt}
}
