package usecase

import (
	"context"
	"time"
)

// DeviceUsecase defines the interface for trusted-device operations.
// Devices are identified by the hash of their token only.
type DeviceUsecase interface {
	// RegisterTrustedDevice upserts a device. A non-positive ttl selects the configured default.
	RegisterTrustedDevice(ctx context.Context, tokenHash string, ttl time.Duration) error
	TouchTrustedDevice(ctx context.Context, tokenHash string) error
	HasTrustedDevice(ctx context.Context, tokenHash string) (bool, error)
	ClearTrustedDevices(ctx context.Context) error
}
