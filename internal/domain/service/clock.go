package service

import "time"

// Clock supplies the current time so expiry and rate limiting are deterministic under test.
type Clock interface {
	Now() time.Time
}
