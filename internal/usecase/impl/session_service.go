package impl

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"slices"

	deliverycontext "ownerauth/internal/delivery/context"
	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/repository"
	"ownerauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	store  repository.AuthStore
	logger *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Store  repository.AuthStore
	Logger *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		store:  params.Store,
		logger: params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifySession reports whether an unexpired session with the token exists.
func (srv *sessionService) VerifySession(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read auth record")
	}

	return record.FindSession(token) != nil, nil
}

// VerifySessionForDevice additionally requires a device-bound session to be presented
// together with its trusted-device hash while that device is still active.
func (srv *sessionService) VerifySessionForDevice(ctx context.Context, token, trustedDeviceTokenHash string) (bool, error) {
	if token == "" {
		return false, nil
	}

	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read auth record")
	}

	session := record.FindSession(token)
	if session == nil {
		return false, nil
	}
	if session.TrustedDeviceTokenHash == "" {
		return true, nil
	}

	if subtle.ConstantTimeCompare([]byte(session.TrustedDeviceTokenHash), []byte(trustedDeviceTokenHash)) != 1 {
		srv.log(ctx).Debug("Device-bound session presented without its device")

		return false, nil
	}

	return record.FindTrustedDevice(session.TrustedDeviceTokenHash) != nil, nil
}

// GetSession returns the payload of an active session.
func (srv *sessionService) GetSession(ctx context.Context, token string) (*entity.SessionPayload, error) {
	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}

	session := record.FindSession(token)
	if token == "" || session == nil {
		return nil, errors.WithStack(domainerrors.ErrUnauthorized)
	}

	return session.Payload(), nil
}

// Logout removes exactly the session with the given token.
func (srv *sessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		before := len(record.Sessions)
		record.Sessions = slices.DeleteFunc(record.Sessions, func(s entity.SessionRecord) bool {
			return s.Token == token
		})
		if len(record.Sessions) == before {
			return repository.ErrNoChanges
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to logout", slog.Any("error", err))

		return errors.Wrap(err, "failed to logout")
	}

	srv.log(ctx).Info("Session revoked")

	return nil
}

// LogoutAll removes every session except keepToken when it is given and still active.
// Trusted devices are left untouched.
func (srv *sessionService) LogoutAll(ctx context.Context, keepToken string) error {
	var revoked int

	err := srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		var kept []entity.SessionRecord
		if keepToken != "" {
			if session := record.FindSession(keepToken); session != nil {
				kept = append(kept, *session)
			}
		}

		revoked = len(record.Sessions) - len(kept)
		if revoked == 0 {
			return repository.ErrNoChanges
		}
		if kept == nil {
			kept = []entity.SessionRecord{}
		}
		record.Sessions = kept

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke sessions", slog.Any("error", err))

		return errors.Wrap(err, "failed to revoke sessions")
	}

	srv.log(ctx).Info("Sessions revoked", slog.Int("count", revoked), slog.Bool("kept_current", keepToken != ""))

	return nil
}
