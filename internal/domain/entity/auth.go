package entity

import "time"

// SessionRecord represents a bearer session issued after signup, login or a password change.
type SessionRecord struct {
	Token                  string `json:"token"`                            // Opaque bearer credential.
	CreatedAt              int64  `json:"createdAt"`                        // Epoch milliseconds.
	ExpiresAt              int64  `json:"expiresAt"`                        // Epoch milliseconds; inactive once reached.
	TrustedDeviceTokenHash string `json:"trustedDeviceTokenHash,omitempty"` // Optional binding to a trusted device.
}

// IsActive reports whether the session has not expired at the given time.
func (s *SessionRecord) IsActive(now time.Time) bool {
	return s.ExpiresAt > now.UnixMilli()
}

// Payload returns the session data handed back to the caller.
func (s *SessionRecord) Payload() *SessionPayload {
	return &SessionPayload{
		Token:     s.Token,
		CreatedAt: time.UnixMilli(s.CreatedAt).UTC(),
		ExpiresAt: time.UnixMilli(s.ExpiresAt).UTC(),
	}
}

// SessionPayload is the credential returned to a client on successful authentication.
type SessionPayload struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
