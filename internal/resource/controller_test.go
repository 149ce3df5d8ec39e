package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_RenderSlot(t *testing.T) {
	c := NewController(Config{MaxConcurrentRenders: 1})

	require.True(t, c.TryAcquireRender())
	assert.EqualValues(t, 1, c.ActiveRenders())

	assert.False(t, c.TryAcquireRender(), "single slot must not be acquirable twice")

	c.ReleaseRender()
	assert.EqualValues(t, 0, c.ActiveRenders())
	assert.True(t, c.TryAcquireRender())
}

func TestController_UnlimitedQueries(t *testing.T) {
	c := NewController(Config{})
	for i := 0; i < 100; i++ {
		require.NoError(t, c.WaitQuery(context.Background()))
	}
	assert.EqualValues(t, 0, c.ThrottledQueries())
}

func TestController_QueryRateLimitThrottles(t *testing.T) {
	c := NewController(Config{QueryRatePerSec: 1000, QueryBurst: 1})

	require.NoError(t, c.WaitQuery(context.Background()))
	// Burst consumed; the next call has to wait on the limiter.
	require.NoError(t, c.WaitQuery(context.Background()))
	assert.EqualValues(t, 1, c.ThrottledQueries())
}

func TestController_QueryWaitHonorsContext(t *testing.T) {
	c := NewController(Config{QueryRatePerSec: 0.001, QueryBurst: 1})
	require.NoError(t, c.WaitQuery(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.WaitQuery(ctx))
}
