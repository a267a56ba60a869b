// Package ratelimit implements the per-identity failure limiter stored in the auth record.
package ratelimit

import (
	"math"
	"time"

	"ownerauth/config"
	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/service"
)

// slidingWindow counts failures in a window that opens on the first failure and blocks
// the key once the count reaches the limit.
type slidingWindow struct {
	maxAttempts int
	window      time.Duration
	block       time.Duration
}

// NewAttemptLimiter builds the limiter from the auth rate-limit settings.
func NewAttemptLimiter(cfg *config.Config) service.AttemptLimiter {
	return New(cfg.Auth.RateLimit.MaxAttempts, cfg.Auth.RateLimit.Window, cfg.Auth.RateLimit.Block)
}

// New builds a limiter with explicit settings.
func New(maxAttempts int, window, block time.Duration) service.AttemptLimiter {
	return &slidingWindow{
		maxAttempts: maxAttempts,
		window:      window,
		block:       block,
	}
}

func (l *slidingWindow) MaxAttempts() int {
	return l.maxAttempts
}

func (l *slidingWindow) Window() time.Duration {
	return l.window
}

// AssertNotBlocked rejects the attempt without consuming a slot while the key is blocked.
func (l *slidingWindow) AssertNotBlocked(record *entity.AuthStoreRecord, key string, now time.Time) error {
	state, ok := record.AttemptState[key]
	if !ok || !state.IsBlocked(now) {
		return nil
	}

	remaining := time.Duration(state.BlockedUntil-now.UnixMilli()) * time.Millisecond

	return domainerrors.NewRateLimitedError(int(math.Ceil(remaining.Seconds())))
}

// RegisterFailure opens a fresh window once the previous one has elapsed, whatever its block
// status was; otherwise it increments the count and blocks when the limit is reached.
func (l *slidingWindow) RegisterFailure(record *entity.AuthStoreRecord, key string, maxAttempts int, now time.Time) entity.AttemptState {
	if record.AttemptState == nil {
		record.AttemptState = map[string]entity.AttemptState{}
	}

	state, ok := record.AttemptState[key]
	if !ok || !state.WithinWindow(now, l.window) {
		state = entity.AttemptState{WindowStart: now.UnixMilli()}
	}

	state.Count++
	if state.Count >= maxAttempts {
		state.BlockedUntil = now.Add(l.block).UnixMilli()
	}

	record.AttemptState[key] = state

	return state
}

// Clear deletes the entry outright so a dormant identity starts clean.
func (l *slidingWindow) Clear(record *entity.AuthStoreRecord, key string) {
	delete(record.AttemptState, key)
}
