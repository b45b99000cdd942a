package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, Stats{Hits: 2, Misses: 1, Size: 2}, c.Stats())
}

func TestLRUCache_Expiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(2 * time.Minute)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 2, m.CleanAll())
	assert.Equal(t, 0, c.Size())
}

func TestLoader_CachesSuccessOnly(t *testing.T) {
	calls := 0
	fail := true
	l := NewLoader[int](NewLRUCache[int](4, time.Minute), func(ctx context.Context, key string) (int, error) {
		calls++
		if fail {
			return 0, errors.New("boom")
		}
		return 42, nil
	})
	ctx := context.Background()

	_, err := l.Get(ctx, "global")
	require.Error(t, err)

	fail = false
	v, err := l.Get(ctx, "global")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	_, _ = l.Get(ctx, "global")
	assert.Equal(t, 2, calls)

	l.Invalidate("global")
	_, _ = l.Get(ctx, "global")
	assert.Equal(t, 3, calls)
}

func TestLoader_NilCacheAlwaysLoads(t *testing.T) {
	calls := 0
	l := NewLoader[int](nil, func(context.Context, string) (int, error) {
		calls++
		return calls, nil
	})
	_, _ = l.Get(context.Background(), "x")
	_, _ = l.Get(context.Background(), "x")
	assert.Equal(t, 2, calls)
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewManager().Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
}
