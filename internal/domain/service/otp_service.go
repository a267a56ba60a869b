package service

import (
	"context"
	"time"
)

// OTPPurpose ties a one-time password to the flow it was issued for.
type OTPPurpose string

const (
	// OTPPurposeSignup guards creation of the owner account.
	OTPPurposeSignup OTPPurpose = "signup"
	// OTPPurposeLogin guards login from an untrusted device.
	OTPPurposeLogin OTPPurpose = "login"
)

// IsValid checks if the purpose is a known value.
func (p OTPPurpose) IsValid() bool {
	return p == OTPPurposeSignup || p == OTPPurposeLogin
}

// OTPChallenge is a freshly issued code plus the ticket the client returns on verification.
type OTPChallenge struct {
	Code      string
	Challenge string
	ExpiresAt time.Time
}

// OTPService produces short-lived numeric codes tied to an email and purpose, and later verifies them.
type OTPService interface {
	Issue(email string, purpose OTPPurpose) (*OTPChallenge, error)
	Verify(email string, purpose OTPPurpose, challenge, code string) bool
}

// OTPMessage is what a delivery channel sends to the owner.
type OTPMessage struct {
	Email     string
	Purpose   OTPPurpose
	Code      string
	ExpiresAt time.Time
}

// OTPSender delivers one-time passwords (email transport or console fallback).
type OTPSender interface {
	Send(ctx context.Context, msg OTPMessage) error
}
