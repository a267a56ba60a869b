package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "ownerauth/internal/delivery/context"
	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/repository"
	"ownerauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	store  repository.AuthStore
	logger *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	Store  repository.AuthStore
	Logger *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		store:  params.Store,
		logger: params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetAccountSettings returns the owner's settings.
func (srv *accountService) GetAccountSettings(ctx context.Context) (*entity.AccountSettings, error) {
	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth record")
	}
	if record.Owner == nil {
		return nil, errors.WithStack(domainerrors.ErrOwnerNotCreated)
	}

	return record.Owner.Settings(), nil
}

// UpdateAccountSettings changes the display name and timezone.
// Email and role always come from the stored record.
func (srv *accountService) UpdateAccountSettings(ctx context.Context, input *usecase.UpdateAccountInput) (*entity.AccountSettings, error) {
	fullName := strings.TrimSpace(input.FullName)
	timezone := strings.TrimSpace(input.Timezone)
	if timezone != "" && !isValidTimezone(timezone) {
		return nil, errors.WithStack(domainerrors.ErrValidation.WithDetails("timezone is not a known IANA zone"))
	}

	var settings *entity.AccountSettings
	err := srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		owner := record.Owner
		if owner == nil {
			return errors.WithStack(domainerrors.ErrOwnerNotCreated)
		}

		changed := false
		if fullName != "" && fullName != owner.FullName {
			owner.FullName = fullName
			changed = true
		}
		if timezone != "" && timezone != owner.Timezone {
			owner.Timezone = timezone
			changed = true
		}
		if owner.Role != entity.RoleOwner {
			owner.Role = entity.RoleOwner
			changed = true
		}
		settings = owner.Settings()

		if !changed {
			return repository.ErrNoChanges
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrOwnerNotCreated) {
			return nil, err
		}
		srv.log(ctx).Error("Failed to update account settings", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to update account settings")
	}

	srv.log(ctx).Info("Account settings updated")

	return settings, nil
}
