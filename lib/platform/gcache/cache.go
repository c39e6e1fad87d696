package gcache

import (
	"errors"
	"sync"
	"time"

	"example.com/gotorrent/lib/core/adapter/cache"

	"github.com/bluele/gcache"
)

// NewCache returns an LRU cache of size entries. Entries expire after ttl
// unless ttl is zero.
func NewCache(size int, ttl time.Duration) cache.Cache {
	c := cacheImpl{
		fallbacks: &sync.Map{},
	}
	b := gcache.New(size).LRU().LoaderFunc(c.loaderFunc)
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	c.gc = b.Build()
	return c
}

type cacheImpl struct {
	gc        gcache.Cache
	fallbacks *sync.Map
}

var _ cache.Cache = cacheImpl{}

func (c cacheImpl) loaderFunc(key interface{}) (interface{}, error) {
	v, ok := c.fallbacks.Load(key)
	if ok {
		w := v.(func() (interface{}, error))
		return w()
	}
	return nil, errors.New("no loader func")
}

func (c cacheImpl) Cached(key interface{}, fallback func() (interface{}, error)) (interface{}, error) {
	c.fallbacks.Store(key, fallback)
	return c.gc.Get(key)
}

func (c cacheImpl) Remove(key interface{}) bool {
	return c.gc.Remove(key)
}
