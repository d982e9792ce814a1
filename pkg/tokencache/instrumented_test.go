package tokencache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

func TestInstrumentedCountsHitsAndMisses(t *testing.T) {
	inner, err := NewMemory(0)
	require.NoError(t, err)
	metrics := observability.NewMetrics(nil)
	cache := NewInstrumented(inner, "memory", metrics)
	ctx := context.Background()

	got, err := cache.Load(ctx, "app-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("memory")))

	require.NoError(t, cache.Save(ctx, "app-1", &session.CachedToken{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	got, err = cache.Load(ctx, "app-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("memory")))
}

type failingCache struct {
	err error
}

func (c *failingCache) Load(context.Context, string) (*session.CachedToken, error) {
	return nil, c.err
}

func (c *failingCache) Save(context.Context, string, *session.CachedToken) error { return c.err }
func (c *failingCache) Clear(context.Context, string) error                      { return c.err }

func TestInstrumentedSkipsFailedClears(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	cache := NewInstrumented(&failingCache{err: errors.New("connection refused")}, "redis", metrics)

	assert.Error(t, cache.Clear(context.Background(), "app-1"))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CacheClearsTotal.WithLabelValues("redis")))
}

func TestInstrumentedCountsClears(t *testing.T) {
	inner, err := NewMemory(0)
	require.NoError(t, err)
	metrics := observability.NewMetrics(nil)
	cache := NewInstrumented(inner, "memory", metrics)

	require.NoError(t, cache.Clear(context.Background(), "app-1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheClearsTotal.WithLabelValues("memory")))
}
