// Package entity contains the core business objects of the project.
package entity

import "time"

// TrustedDeviceRecord lets a device skip the one-time password on later logins.
// Only the SHA-256 hash of the device token is ever stored.
type TrustedDeviceRecord struct {
	TokenHash  string `json:"tokenHash"`  // Hex-encoded SHA-256 of the raw device token.
	CreatedAt  int64  `json:"createdAt"`  // Epoch milliseconds.
	ExpiresAt  int64  `json:"expiresAt"`  // Epoch milliseconds.
	LastUsedAt int64  `json:"lastUsedAt"` // Epoch milliseconds of the last login that used it.
}

// IsActive reports whether the trusted device has not expired at the given time.
func (d *TrustedDeviceRecord) IsActive(now time.Time) bool {
	return d.ExpiresAt > now.UnixMilli()
}
