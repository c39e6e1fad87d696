// Package mem is an in-memory PersistentMetadata for runs without a store
// file.
package mem

import (
	"bytes"
	"encoding/gob"
	"errors"
	"sync"

	"example.com/gotorrent/lib/core/adapter/persistentmetadata"
)

// Store gob-encodes values like skv does, so values read back are copies.
type Store struct {
	mut sync.RWMutex
	m   map[string][]byte
}

var _ persistentmetadata.PersistentMetadata = &Store{}

func NewStore() *Store {
	return &Store{m: make(map[string][]byte)}
}

func (s *Store) Put(key string, value interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	s.mut.Lock()
	defer s.mut.Unlock()
	s.m[key] = buf.Bytes()
	return nil
}

func (s *Store) Get(key string, value interface{}) error {
	s.mut.RLock()
	b, ok := s.m[key]
	s.mut.RUnlock()
	if !ok {
		return persistentmetadata.ErrNotFound
	}
	if value == nil {
		return errors.New("nil value")
	}
	return gob.NewDecoder(bytes.NewReader(b)).Decode(value)
}

func (s *Store) Delete(key string) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if _, ok := s.m[key]; !ok {
		return persistentmetadata.ErrNotFound
	}
	delete(s.m, key)
	return nil
}
