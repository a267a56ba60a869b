package usecase

import (
	"context"

	"ownerauth/internal/domain/entity"
)

// SessionUsecase defines the interface for session management operations.
type SessionUsecase interface {
	VerifySession(ctx context.Context, token string) (bool, error)
	VerifySessionForDevice(ctx context.Context, token, trustedDeviceTokenHash string) (bool, error)
	GetSession(ctx context.Context, token string) (*entity.SessionPayload, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, keepToken string) error
}
