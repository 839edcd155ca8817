package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetDelete(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, found, err := c.Get(ctx, "post:1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "post:1", []byte(`{"id":"1"}`), time.Hour))
	v, found, err := c.Get(ctx, "post:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":"1"}`, string(v))

	require.NoError(t, c.Delete(ctx, "post:1", "posts:latest"))
	_, found, err = c.Get(ctx, "post:1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Ping(ctx))
}
