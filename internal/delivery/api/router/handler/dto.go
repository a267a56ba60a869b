package handler

import (
	"time"

	"ownerauth/internal/domain/entity"
)

// SessionResponse is the session credential returned by signup, login and password change.
type SessionResponse struct {
	Token              string    `json:"token"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	TrustedDeviceToken string    `json:"trusted_device_token,omitempty"`
}

func newSessionResponse(session *entity.SessionPayload) *SessionResponse {
	return &SessionResponse{
		Token:     session.Token,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
}

// AccountResponse is the public view of the owner account.
type AccountResponse struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Timezone string `json:"timezone"`
}

func newAccountResponse(settings *entity.AccountSettings) *AccountResponse {
	return &AccountResponse{
		FullName: settings.FullName,
		Email:    settings.Email,
		Role:     settings.Role.String(),
		Timezone: settings.Timezone,
	}
}
