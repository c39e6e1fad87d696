package bencode

import (
	"fmt"
	"math"
)

// maxDepth bounds list/dict nesting.
const maxDepth = 512

// ParseError reports malformed input and where it was found.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Reason, e.Offset)
}

// Decode parses exactly one value. Bytes left over after the value are an error.
// The returned value does not alias data.
func Decode(data []byte) (Value, error) {
	d := decoder{data: append([]byte(nil), data...)}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("trailing data")
	}
	return v, nil
}

// DecodeString is Decode for text input.
func DecodeString(s string) (Value, error) {
	return Decode([]byte(s))
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return &ParseError{Offset: d.pos, Reason: fmt.Sprintf(format, args...)}
}

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.data) {
		return 0, false
	}
	return d.data[d.pos], true
}

func (d *decoder) value(depth int) (Value, error) {
	c, ok := d.peek()
	if !ok {
		return nil, d.errorf("unexpected end of input")
	}
	switch {
	case c == 'i':
		return d.integer()
	case c == 'l':
		return d.list(depth)
	case c == 'd':
		return d.dict(depth)
	case c >= '0' && c <= '9':
		return d.bytes()
	}
	return nil, d.errorf("unexpected byte %q", c)
}

func (d *decoder) integer() (Value, error) {
	d.pos++ // 'i'
	start := d.pos
	n, err := d.number('e', true)
	if err != nil {
		return nil, err
	}
	if d.pos-start == 0 {
		return nil, d.errorf("empty integer")
	}
	d.pos++ // 'e'
	return Int(n), nil
}

// number reads a decimal up to (not including) term. Leading zeros and
// negative zero are rejected.
func (d *decoder) number(term byte, signed bool) (int64, error) {
	neg := false
	if signed {
		if c, ok := d.peek(); ok && c == '-' {
			neg = true
			d.pos++
		}
	}
	digitsStart := d.pos
	var n uint64
	for {
		c, ok := d.peek()
		if !ok {
			return 0, d.errorf("missing terminator %q", term)
		}
		if c == term {
			break
		}
		if c < '0' || c > '9' {
			return 0, d.errorf("invalid digit %q", c)
		}
		if d.pos > digitsStart && d.data[digitsStart] == '0' {
			return 0, &ParseError{Offset: digitsStart, Reason: "leading zero"}
		}
		digit := uint64(c - '0')
		if n > (math.MaxUint64-digit)/10 {
			return 0, d.errorf("number overflows int64")
		}
		n = n*10 + digit
		d.pos++
	}
	if d.pos == digitsStart {
		if neg {
			return 0, d.errorf("sign without digits")
		}
		return 0, nil
	}
	if neg {
		if n == 0 {
			return 0, &ParseError{Offset: digitsStart - 1, Reason: "negative zero"}
		}
		if n > uint64(math.MaxInt64)+1 {
			return 0, d.errorf("number overflows int64")
		}
		return -int64(n-1) - 1, nil
	}
	if n > math.MaxInt64 {
		return 0, d.errorf("number overflows int64")
	}
	return int64(n), nil
}

func (d *decoder) bytes() (Bytes, error) {
	start := d.pos
	n, err := d.number(':', false)
	if err != nil {
		return nil, err
	}
	if d.pos == start {
		return nil, d.errorf("missing length")
	}
	d.pos++ // ':'
	if n > int64(len(d.data)-d.pos) {
		return nil, d.errorf("length %d exceeds remaining %d bytes", n, len(d.data)-d.pos)
	}
	b := make(Bytes, n)
	copy(b, d.data[d.pos:])
	d.pos += int(n)
	return b, nil
}

func (d *decoder) list(depth int) (Value, error) {
	if depth >= maxDepth {
		return nil, d.errorf("nesting too deep")
	}
	d.pos++ // 'l'
	l := List{}
	for {
		c, ok := d.peek()
		if !ok {
			return nil, d.errorf("unterminated list")
		}
		if c == 'e' {
			d.pos++
			return l, nil
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
}

func (d *decoder) dict(depth int) (Value, error) {
	if depth >= maxDepth {
		return nil, d.errorf("nesting too deep")
	}
	start := d.pos
	d.pos++ // 'd'
	dict := NewDict()
	for {
		c, ok := d.peek()
		if !ok {
			return nil, d.errorf("unterminated dict")
		}
		if c == 'e' {
			d.pos++
			dict.raw = d.data[start:d.pos:d.pos]
			return dict, nil
		}
		if c < '0' || c > '9' {
			return nil, d.errorf("dict key is not a byte string")
		}
		keyPos := d.pos
		key, err := d.bytes()
		if err != nil {
			return nil, err
		}
		if _, dup := dict.index[string(key)]; dup {
			return nil, &ParseError{Offset: keyPos, Reason: fmt.Sprintf("duplicate key %q", key)}
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		dict.set(string(key), v)
	}
}
