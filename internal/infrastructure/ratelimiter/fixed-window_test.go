package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewFixedWindowRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		require.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	require.False(t, allowed)
	require.Greater(t, retryAfter, time.Duration(0))
}

func TestSourcesAreIndependent(t *testing.T) {
	rl := NewFixedWindowRateLimiter(1, time.Minute)
	defer rl.Close()

	allowed, _ := rl.Allow("10.0.0.1")
	require.True(t, allowed)

	allowed, _ = rl.Allow("10.0.0.2")
	require.True(t, allowed)

	allowed, _ = rl.Allow("10.0.0.1")
	require.False(t, allowed)
}

func TestWindowResets(t *testing.T) {
	rl := NewFixedWindowRateLimiter(1, 20*time.Millisecond)
	defer rl.Close()

	allowed, _ := rl.Allow("10.0.0.1")
	require.True(t, allowed)

	allowed, _ = rl.Allow("10.0.0.1")
	require.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _ = rl.Allow("10.0.0.1")
	require.True(t, allowed)
}
