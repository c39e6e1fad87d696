package gcache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Cached(t *testing.T) {
	c := NewCache(4, 0)
	calls := 0
	load := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	v, err := c.Cached("k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.Cached("k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "second call is served from cache")

	assert.True(t, c.Remove("k"))
	v, err = c.Cached("k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(4, 0)
	boom := errors.New("boom")

	_, err := c.Cached("k", func() (interface{}, error) { return nil, boom })
	assert.Equal(t, boom, err)

	v, err := c.Cached("k", func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_Expiration(t *testing.T) {
	c := NewCache(4, 20*time.Millisecond)
	n := 0
	load := func() (interface{}, error) {
		n++
		return n, nil
	}

	v, _ := c.Cached("k", load)
	assert.Equal(t, 1, v)
	time.Sleep(50 * time.Millisecond)
	v, _ = c.Cached("k", load)
	assert.Equal(t, 2, v)
}
