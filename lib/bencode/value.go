// Package bencode implements the canonical value encoding used by metadata
// files, tracker responses and extension messages.
package bencode

import "sort"

// Value is one of Bytes, Int, List or *Dict.
type Value interface {
	isValue()
}

// Bytes is an opaque byte string. It is not guaranteed to be UTF-8.
type Bytes []byte

// Int is a signed 64-bit integer.
type Int int64

// List is an ordered sequence of values.
type List []Value

func (Bytes) isValue() {}
func (Int) isValue()   {}
func (List) isValue()  {}
func (*Dict) isValue() {}

// Entry is one key/value pair of a Dict.
type Entry struct {
	Key   string
	Value Value
}

// Dict maps byte string keys to values. Keys are unique. Entries keep the
// order they were decoded or added in, encoding always sorts them.
type Dict struct {
	entries []Entry
	index   map[string]int

	// raw is the exact source span when the dict came out of Decode.
	raw []byte
}

// NewDict builds a dict from entries. A repeated key replaces the earlier value.
func NewDict(entries ...Entry) *Dict {
	d := &Dict{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		d.set(e.Key, e.Value)
	}
	return d
}

func (d *Dict) set(key string, v Value) {
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = v
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: v})
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns the entries in source order.
func (d *Dict) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Raw returns the bytes this dict was decoded from, or nil for a dict built
// with NewDict.
func (d *Dict) Raw() []byte {
	if d == nil {
		return nil
	}
	return d.raw
}

func (d *Dict) sortedEntries() []Entry {
	out := d.Entries()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
