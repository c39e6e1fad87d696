package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrNilValue is returned for a nil Value or a nil *Dict.
var ErrNilValue = errors.New("bencode: nil value")

// Encode returns the canonical encoding of v. Dict keys are written in
// ascending byte order whatever order they were decoded in.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encoder writes canonical encodings to an io.Writer.
type Encoder struct {
	w       io.Writer
	scratch [20]byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the canonical encoding of v.
func (e *Encoder) Encode(v Value) error {
	switch t := v.(type) {
	case nil:
		return ErrNilValue
	case Bytes:
		return e.bytes(t)
	case Int:
		if err := e.write([]byte{'i'}); err != nil {
			return err
		}
		if err := e.write(strconv.AppendInt(e.scratch[:0], int64(t), 10)); err != nil {
			return err
		}
		return e.write([]byte{'e'})
	case List:
		if err := e.write([]byte{'l'}); err != nil {
			return err
		}
		for _, item := range t {
			if err := e.Encode(item); err != nil {
				return err
			}
		}
		return e.write([]byte{'e'})
	case *Dict:
		if t == nil {
			return ErrNilValue
		}
		if err := e.write([]byte{'d'}); err != nil {
			return err
		}
		for _, entry := range t.sortedEntries() {
			if err := e.bytes([]byte(entry.Key)); err != nil {
				return err
			}
			if err := e.Encode(entry.Value); err != nil {
				return fmt.Errorf("key %q: %w", entry.Key, err)
			}
		}
		return e.write([]byte{'e'})
	}
	return fmt.Errorf("bencode: unsupported value %T", v)
}

func (e *Encoder) bytes(b []byte) error {
	head := strconv.AppendInt(e.scratch[:0], int64(len(b)), 10)
	head = append(head, ':')
	if err := e.write(head); err != nil {
		return err
	}
	return e.write(b)
}

func (e *Encoder) write(b []byte) error {
	_, err := e.w.Write(b)
	return err
}
