package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJSON(t *testing.T) (*JSON, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSON(client, time.Minute), mr
}

func TestJSONRoundTrip(t *testing.T) {
	c, _ := newTestJSON(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "k", payload{Name: "x", Count: 3}))

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestJSONMiss(t *testing.T) {
	c, _ := newTestJSON(t)

	var got map[string]any
	ok, err := c.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONTTL(t *testing.T) {
	c, mr := newTestJSON(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	mr.FastForward(2 * time.Minute)

	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONDelete(t *testing.T) {
	c, _ := newTestJSON(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	require.NoError(t, c.Delete(ctx, "k"))

	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONNilClientDegradesToMiss(t *testing.T) {
	var c *JSON
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Delete(ctx, "k"))
}
