package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/meeting-summarizer/internal/infra/config"
)

func TestIPRateLimiterSweepsIdleVisitorsPeriodically(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := base
	l := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	l.now = func() time.Time { return clock }
	l.lastSweep = base

	require.True(t, l.allow("10.0.0.1"))
	require.False(t, l.allow("10.0.0.1"))

	clock = base.Add(4 * time.Minute)
	require.True(t, l.allow("10.0.0.2"))
	require.Len(t, l.visitors, 2)

	clock = base.Add(5*time.Minute + 30*time.Second)
	require.True(t, l.allow("10.0.0.3"))
	require.Len(t, l.visitors, 2)
	require.NotContains(t, l.visitors, "10.0.0.1")

	// Within the sweep interval nothing is scanned, even though .2 is idle past the ttl afterwards.
	clock = base.Add(9*time.Minute + 30*time.Second)
	require.True(t, l.allow("10.0.0.1"))
	require.Len(t, l.visitors, 3)
	require.Equal(t, base.Add(5*time.Minute+30*time.Second), l.lastSweep)
}
