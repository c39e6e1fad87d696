package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrPieceIndex = errors.New("piece index out of range")

// SchemaError is returned for well-formed input missing a required field or
// holding a field of the wrong type.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("metadata: field %q: %s", e.Field, e.Reason)
}

// IntegrityError is returned when an assembled piece does not hash to its
// expected digest.
type IntegrityError struct {
	Index    uint32
	Expected [20]byte
	Got      [20]byte
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("piece %d: digest %s, expected %s",
		e.Index, hex.EncodeToString(e.Got[:]), hex.EncodeToString(e.Expected[:]))
}
