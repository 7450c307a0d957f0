package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(clock.Now, 0)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))

	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	clock.Advance(time.Minute)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheGetMany(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(clock.Now, 0)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Second))
	clock.Advance(2 * time.Second)

	found, err := c.GetMany(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1")}, found)
}

func TestMemoryCachePurge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(clock.Now, 0)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "old", []byte("x"), time.Second))
	require.NoError(t, c.Set(ctx, "new", []byte("y"), time.Hour))
	clock.Advance(time.Minute)

	removed, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(nil, 0)
	defer c.Close()

	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, time.Hour))
	in[0] = 'z'

	out, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'z'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
