package ratelimit

import (
	"testing"
	"time"

	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestSlidingWindow_BlocksAfterMaxAttempts(t *testing.T) {
	limiter := New(5, 10*time.Minute, 15*time.Minute)
	record := entity.NewAuthStoreRecord()
	key := entity.AttemptKey(entity.AttemptScopeLoginStart, "a@example.com")

	for i := 1; i <= 4; i++ {
		now := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, limiter.AssertNotBlocked(record, key, now))
		state := limiter.RegisterFailure(record, key, 5, now)
		assert.Equal(t, i, state.Count)
		assert.Zero(t, state.BlockedUntil)
	}

	fifth := base.Add(5 * time.Minute)
	state := limiter.RegisterFailure(record, key, 5, fifth)
	assert.Equal(t, 5, state.Count)
	assert.Equal(t, fifth.Add(15*time.Minute).UnixMilli(), state.BlockedUntil)

	err := limiter.AssertNotBlocked(record, key, fifth)
	var rateErr *domainerrors.RateLimitedError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, 900, rateErr.RetryAfterSec)

	err = limiter.AssertNotBlocked(record, key, fifth.Add(14*time.Minute+59*time.Second+500*time.Millisecond))
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, 1, rateErr.RetryAfterSec)

	assert.NoError(t, limiter.AssertNotBlocked(record, key, fifth.Add(15*time.Minute)))
}

func TestSlidingWindow_FailureAfterWindowStartsFresh(t *testing.T) {
	limiter := New(5, 10*time.Minute, 15*time.Minute)
	record := entity.NewAuthStoreRecord()
	key := entity.AttemptKey(entity.AttemptScopeLoginStart, "a@example.com")

	for i := 0; i < 5; i++ {
		limiter.RegisterFailure(record, key, 5, base)
	}
	require.Error(t, limiter.AssertNotBlocked(record, key, base))

	later := base.Add(16 * time.Minute)
	state := limiter.RegisterFailure(record, key, 5, later)
	assert.Equal(t, 1, state.Count)
	assert.Equal(t, later.UnixMilli(), state.WindowStart)
	assert.Zero(t, state.BlockedUntil)
}

func TestSlidingWindow_ClearRemovesEntry(t *testing.T) {
	limiter := New(5, 10*time.Minute, 15*time.Minute)
	record := entity.NewAuthStoreRecord()
	key := entity.AttemptKey(entity.AttemptScopeLoginStart, "a@example.com")

	limiter.RegisterFailure(record, key, 5, base)
	require.Contains(t, record.AttemptState, key)

	limiter.Clear(record, key)
	assert.NotContains(t, record.AttemptState, key)
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	limiter := New(2, 10*time.Minute, 15*time.Minute)
	record := entity.NewAuthStoreRecord()
	login := entity.AttemptKey(entity.AttemptScopeLoginStart, "a@example.com")
	otp := entity.AttemptKey(entity.AttemptScopeOTPVerify, "a@example.com")
	other := entity.AttemptKey(entity.AttemptScopeLoginStart, "b@example.com")

	limiter.RegisterFailure(record, login, 2, base)
	limiter.RegisterFailure(record, login, 2, base)

	assert.Error(t, limiter.AssertNotBlocked(record, login, base))
	assert.NoError(t, limiter.AssertNotBlocked(record, otp, base))
	assert.NoError(t, limiter.AssertNotBlocked(record, other, base))
}

func TestSlidingWindow_NilAttemptMap(t *testing.T) {
	limiter := New(5, time.Minute, time.Minute)
	record := &entity.AuthStoreRecord{}

	assert.NoError(t, limiter.AssertNotBlocked(record, "k", base))
	state := limiter.RegisterFailure(record, "k", 5, base)
	assert.Equal(t, 1, state.Count)
}
