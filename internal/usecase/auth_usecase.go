// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"ownerauth/internal/domain/entity"
)

// --- Input DTOs ---

// SignupInput defines the data required to create the owner account.
type SignupInput struct {
	Email    string
	Password string
	FullName string
	Timezone string
}

// LoginInput defines the data required to start a login.
// TrustedDeviceTokenHash, when set, binds the new session to that device.
type LoginInput struct {
	Email                  string
	Password               string
	TrustedDeviceTokenHash string
}

// ChangePasswordInput defines the data required to rotate the owner password.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// --- Output DTOs ---

// StatusOutput tells a client whether signup has already happened.
type StatusOutput struct {
	HasOwner bool
}

// AuthUsecase defines the credential operations of the single owner.
type AuthUsecase interface {
	GetStatus(ctx context.Context) (*StatusOutput, error)
	Signup(ctx context.Context, input *SignupInput) (*entity.SessionPayload, error)
	StartLogin(ctx context.Context, input *LoginInput) (*entity.SessionPayload, error)
	ChangePassword(ctx context.Context, input *ChangePasswordInput) (*entity.SessionPayload, error)
}
