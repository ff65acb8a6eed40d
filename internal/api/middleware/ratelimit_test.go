package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterSweepsIdleVisitorsPeriodically(t *testing.T) {
	l := NewRateLimiter(10, 10)
	stale := time.Now().Add(-2 * l.idle)
	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		l.visitors[ip] = &visitor{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: stale}
	}

	// 距上次清理不足 idle/2，不扫描
	l.get("10.0.0.3")
	assert.Len(t, l.visitors, 3)

	l.swept = time.Now().Add(-l.idle)
	l.get("10.0.0.3")
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.0.3")
	assert.WithinDuration(t, time.Now(), l.swept, time.Second)
}

func TestRateLimiterPerClient(t *testing.T) {
	l := NewRateLimiter(1, 2)
	assert.True(t, l.get("a").Allow())
	assert.True(t, l.get("a").Allow())
	assert.False(t, l.get("a").Allow())
	assert.True(t, l.get("b").Allow())
}
