package cache

// Cache returns the value stored under key, calling fallback to produce it
// on a miss. Errors from fallback are returned and not cached.
type Cache interface {
	Cached(key interface{}, fallback func() (interface{}, error)) (interface{}, error)
	Remove(key interface{}) bool
}
