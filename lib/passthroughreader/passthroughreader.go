package passthroughreader

import "io"

// NewPassthrough reports the size of every successful read from r to fn.
// fn runs on the reading goroutine.
func NewPassthrough(r io.Reader, fn func(n int)) io.Reader {
	return passthroughImpl{r: r, fn: fn}
}

type passthroughImpl struct {
	r  io.Reader
	fn func(n int)
}

func (impl passthroughImpl) Read(b []byte) (int, error) {
	n, err := impl.r.Read(b)
	if n > 0 {
		impl.fn(n)
	}
	return n, err
}
