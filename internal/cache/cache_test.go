package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Kinds []string `json:"kinds"`
	Count int      `json:"count"`
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer c.Close()

	key := Key([]byte("a.ts"), []byte("base"), []byte("head"))

	var got result
	found, err := c.Get(key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := result{Kinds: []string{"loopAdded"}, Count: 1}
	require.NoError(t, c.Set(key, want))

	found, err = c.Get(key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestCacheExpiry(t *testing.T) {
	c, err := Open(t.TempDir(), time.Minute)
	require.NoError(t, err)
	defer c.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set("k", result{Count: 1}))
	require.NoError(t, c.Set("fresh", result{Count: 2}))

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.Set("fresh", result{Count: 3}))

	var got result
	found, err := c.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	found, err = c.Get("fresh", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.Count)
}

func TestKeyIsUnambiguous(t *testing.T) {
	assert.NotEqual(t, Key([]byte("ab"), []byte("c")), Key([]byte("a"), []byte("bc")))
	assert.Equal(t, Key([]byte("x")), Key([]byte("x")))
	assert.Len(t, Key(), 64)
}

func TestOpenRequiresDirectory(t *testing.T) {
	_, err := Open("", 0)
	assert.Error(t, err)
}
