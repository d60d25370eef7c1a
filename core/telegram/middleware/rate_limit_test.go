package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterSetPerUserBucket(t *testing.T) {
	set := newLimiterSet(RateLimitOptions{Interval: time.Second, Burst: 2})
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, set.allow(1, now))
	assert.True(t, set.allow(1, now))
	assert.False(t, set.allow(1, now), "burst exhausted")
	assert.True(t, set.allow(2, now), "other users keep their own bucket")
	assert.True(t, set.allow(1, now.Add(time.Second)), "one token refilled")
}

func TestLimiterSetEvictsIdleUsers(t *testing.T) {
	set := newLimiterSet(RateLimitOptions{Interval: time.Second, IdleTTL: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	set.allow(1, now)
	set.allow(2, now.Add(2*time.Minute))
	assert.Len(t, set.users, 1)
}
