package entity

import (
	"time"
)

// AttemptScope namespaces rate-limit counters by the operation being attempted.
type AttemptScope string

const (
	// AttemptScopeLoginStart tracks failed password checks in startLogin.
	AttemptScopeLoginStart AttemptScope = "login:start"
	// AttemptScopeOTPVerify tracks failed one-time password submissions.
	AttemptScopeOTPVerify AttemptScope = "otp:verify"
)

// unknownIdentity keeps empty emails rate limited instead of exempt.
const unknownIdentity = "__unknown__"

// AttemptKey builds the attempt-state map key for a scope and a raw email.
func AttemptKey(scope AttemptScope, email string) string {
	identity := NormalizeEmail(email)
	if identity == "" {
		identity = unknownIdentity
	}

	return string(scope) + ":" + identity
}

// AttemptState counts failures for one rate-limited identity.
type AttemptState struct {
	Count        int   `json:"count"`        // Failures inside the current window.
	WindowStart  int64 `json:"windowStart"`  // Epoch milliseconds when the window opened.
	BlockedUntil int64 `json:"blockedUntil"` // Epoch milliseconds; zero when not blocked.
}

// IsBlocked reports whether attempts are rejected at the given time.
func (a AttemptState) IsBlocked(now time.Time) bool {
	return a.BlockedUntil > now.UnixMilli()
}

// WithinWindow reports whether the failure window is still open at the given time.
func (a AttemptState) WithinWindow(now time.Time, window time.Duration) bool {
	return now.UnixMilli()-a.WindowStart < window.Milliseconds()
}
