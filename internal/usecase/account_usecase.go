package usecase

import (
	"context"

	"ownerauth/internal/domain/entity"
)

// UpdateAccountInput carries the only mutable account fields. Empty values keep the stored ones.
type UpdateAccountInput struct {
	FullName string
	Timezone string
}

// AccountUsecase defines the interface for owner account settings.
type AccountUsecase interface {
	GetAccountSettings(ctx context.Context) (*entity.AccountSettings, error)
	UpdateAccountSettings(ctx context.Context, input *UpdateAccountInput) (*entity.AccountSettings, error)
}
