package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BoundaryAtLimit(t *testing.T) {
	l := New(10, time.Minute)

	for i := 1; i <= 10; i++ {
		assert.True(t, l.TryAcquire("news"), "call %d should be within budget", i)
	}
	assert.False(t, l.TryAcquire("news"), "11th call should be denied")
	assert.False(t, l.TryAcquire("news"), "denied calls must not consume budget")
}

func TestLimiter_WindowReset(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l := New(10, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		l.TryAcquire("news")
	}
	assert.False(t, l.TryAcquire("news"))

	now = start.Add(time.Minute + time.Second)

	assert.True(t, l.TryAcquire("news"), "budget should reset after the window elapses")
}

func TestLimiter_SourcesAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.TryAcquire("news"))
	assert.False(t, l.TryAcquire("news"))
	assert.True(t, l.TryAcquire("assessor"), "one source's exhaustion must not affect another")
}

func TestLimiter_Remaining(t *testing.T) {
	l := New(3, time.Minute)

	assert.Equal(t, 3, l.Remaining("scamwatch"))
	l.TryAcquire("scamwatch")
	assert.Equal(t, 2, l.Remaining("scamwatch"))
	l.TryAcquire("scamwatch")
	l.TryAcquire("scamwatch")
	assert.Equal(t, 0, l.Remaining("scamwatch"))
}
