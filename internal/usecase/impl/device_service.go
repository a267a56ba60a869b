package impl

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"ownerauth/config"
	deliverycontext "ownerauth/internal/delivery/context"
	"ownerauth/internal/domain/entity"
	"ownerauth/internal/domain/repository"
	"ownerauth/internal/domain/service"
	"ownerauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// deviceService implements the DeviceUsecase interface.
type deviceService struct {
	store      repository.AuthStore
	tokens     service.DeviceTokenIssuer
	clock      service.Clock
	defaultTTL time.Duration
	logger     *slog.Logger
}

// DeviceServiceParams holds dependencies for DeviceService, injected by Fx.
type DeviceServiceParams struct {
	fx.In

	Store  repository.AuthStore
	Tokens service.DeviceTokenIssuer
	Clock  service.Clock
	Config *config.Config
	Logger *slog.Logger
}

// NewDeviceService is the constructor for deviceService.
func NewDeviceService(params DeviceServiceParams) usecase.DeviceUsecase {
	return &deviceService{
		store:      params.Store,
		tokens:     params.Tokens,
		clock:      params.Clock,
		defaultTTL: params.Config.Auth.TrustedDeviceTTL,
		logger:     params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *deviceService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterTrustedDevice replaces any record with the same hash by a fresh one.
func (srv *deviceService) RegisterTrustedDevice(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if err := srv.tokens.ValidateHash(tokenHash); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = srv.defaultTTL
	}

	err := srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		now := srv.clock.Now()
		record.TrustedDevices = slices.DeleteFunc(record.TrustedDevices, func(d entity.TrustedDeviceRecord) bool {
			return d.TokenHash == tokenHash
		})
		record.TrustedDevices = append(record.TrustedDevices, entity.TrustedDeviceRecord{
			TokenHash:  tokenHash,
			CreatedAt:  now.UnixMilli(),
			ExpiresAt:  now.Add(ttl).UnixMilli(),
			LastUsedAt: now.UnixMilli(),
		})

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to register trusted device", slog.Any("error", err))

		return errors.Wrap(err, "failed to register trusted device")
	}

	srv.log(ctx).Info("Trusted device registered", slog.Duration("ttl", ttl))

	return nil
}

// TouchTrustedDevice records a use of the device. Unknown hashes are ignored.
func (srv *deviceService) TouchTrustedDevice(ctx context.Context, tokenHash string) error {
	if tokenHash == "" {
		return nil
	}

	err := srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		device := record.FindTrustedDevice(tokenHash)
		if device == nil {
			return repository.ErrNoChanges
		}
		device.LastUsedAt = srv.clock.Now().UnixMilli()

		return nil
	})

	return errors.Wrap(err, "failed to touch trusted device")
}

// HasTrustedDevice reports whether an unexpired device with the hash exists.
func (srv *deviceService) HasTrustedDevice(ctx context.Context, tokenHash string) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}

	record, err := srv.store.Snapshot(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read auth record")
	}

	return record.FindTrustedDevice(tokenHash) != nil, nil
}

// ClearTrustedDevices forgets every trusted device.
func (srv *deviceService) ClearTrustedDevices(ctx context.Context) error {
	var cleared int

	err := srv.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		cleared = len(record.TrustedDevices)
		if cleared == 0 {
			return repository.ErrNoChanges
		}
		record.TrustedDevices = []entity.TrustedDeviceRecord{}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to clear trusted devices", slog.Any("error", err))

		return errors.Wrap(err, "failed to clear trusted devices")
	}

	srv.log(ctx).Info("Trusted devices cleared", slog.Int("count", cleared))

	return nil
}
