package service

import (
	"time"

	"ownerauth/internal/domain/entity"
)

// AttemptLimiter applies the sliding-window failure policy to the attempt-state map of a record.
// Callers persist the record themselves, through the store's mutation queue.
type AttemptLimiter interface {
	// AssertNotBlocked fails with a *RateLimitedError while the key is blocked.
	AssertNotBlocked(record *entity.AuthStoreRecord, key string, now time.Time) error

	// RegisterFailure records one failure for key and returns the updated state.
	RegisterFailure(record *entity.AuthStoreRecord, key string, maxAttempts int, now time.Time) entity.AttemptState

	// Clear removes all tracking for key.
	Clear(record *entity.AuthStoreRecord, key string)

	// MaxAttempts is the configured number of failures that triggers a block.
	MaxAttempts() int

	// Window is the configured failure window, needed to prune stale entries.
	Window() time.Duration
}
