package passthroughreader

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func Test_NewPassthrough(t *testing.T) {
	src := bytes.Repeat([]byte("abc"), 100)
	total := 0
	calls := 0
	r := NewPassthrough(iotest.OneByteReader(bytes.NewReader(src)), func(n int) {
		total += n
		calls++
	})

	got, err := ioutil.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, src, got)
	assert.Equal(t, len(src), total)
	assert.Equal(t, len(src), calls)

	_, err = r.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, len(src), calls)
}
