package persistentmetadata

import "github.com/rapidloop/skv"

// ErrNotFound is returned by Get and Delete for a missing key. It is skv's
// own sentinel so both stores report misses the same way.
var ErrNotFound = skv.ErrNotFound

type PersistentMetadata interface {
	Put(key string, value interface{}) error
	Get(key string, value interface{}) error
	Delete(key string) error
}
