package http

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiterEvictsIdleUsers(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewUserLimiter(1, 1)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		assert.True(t, limiter.Allow(fmt.Sprintf("user-%d", i)))
	}
	assert.Equal(t, 50, limiter.Tracked())

	clock = clock.Add(limiterIdleTTL / 2)
	assert.True(t, limiter.Allow("user-0"))

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	assert.True(t, limiter.Allow("user-new"))

	assert.Equal(t, 2, limiter.Tracked(), "only the recently seen users keep a bucket")
}

func TestUserLimiterKeepsActiveBudget(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewUserLimiter(0.01, 2)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("user-1"))
	assert.True(t, limiter.Allow("user-1"))
	assert.False(t, limiter.Allow("user-1"))

	clock = clock.Add(limiterSweepInterval)
	assert.False(t, limiter.Allow("user-1"), "a sweep must not reset a busy user's bucket")
}
