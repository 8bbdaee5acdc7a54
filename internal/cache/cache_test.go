// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	c.Set(ctx, "key1", []byte("value1"), 5*time.Minute)

	val, ok := c.Get(ctx, "key1")
	require.True(t, ok, "expected to find key1")
	assert.Equal(t, []byte("value1"), val)

	_, ok = c.Get(ctx, "nonexistent")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	c.Set(ctx, "shortlived", []byte("v"), 30*time.Millisecond)
	_, ok := c.Get(ctx, "shortlived")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get(ctx, "shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryCache_NoExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	c.Set(ctx, "forever", []byte("v"), 0)
	assert.Equal(t, 0, c.deleteExpired())
	_, ok := c.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	src := []byte("abc")
	c.Set(ctx, "k", src, time.Minute)
	src[0] = 'z'

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
	got[1] = 'z'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	c.Set(ctx, "key1", []byte("value1"), time.Minute)
	c.Delete(ctx, "key1")
	_, ok := c.Get(ctx, "key1")
	assert.False(t, ok)
}

func TestMemoryCache_JanitorEvictsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	c := NewMemoryCache(10 * time.Millisecond)
	c.Set(ctx, "a", []byte("1"), 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return c.Stats().Evictions == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Stats().CurrentSize)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "drama"}, time.Minute))

	var got payload
	require.True(t, GetJSON(ctx, c, "p", &got))
	assert.Equal(t, "drama", got.Name)

	c.Set(ctx, "broken", []byte("{"), time.Minute)
	assert.False(t, GetJSON(ctx, c, "broken", &got))
	assert.False(t, GetJSON(ctx, c, "missing", &got))
}
