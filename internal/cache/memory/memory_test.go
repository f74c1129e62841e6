package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetDelete(t *testing.T) {
	c, err := New(10, time.Minute)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "catalog:new", []byte("x")))
	require.Eventually(t, func() bool {
		v, ok, _ := c.Get(ctx, "catalog:new")
		return ok && string(v) == "x"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Delete(ctx, "catalog:new"))
	_, ok, err := c.Get(ctx, "catalog:new")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	c, err := New(10, 50*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "k")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New(0, time.Minute)
	assert.Error(t, err)
}
