package domain

import (
	"crypto/sha1"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_VerifyPiece(t *testing.T) {
	data := []byte("some piece data")
	good := sha1.Sum(data)

	p, err := VerifyPiece(3, data, good)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), p.Index)
	assert.Equal(t, data, p.Data)

	var bad [20]byte
	copy(bad[:], good[:])
	bad[0] ^= 0xff
	p, err = VerifyPiece(3, data, bad)
	var ierr *IntegrityError
	if assert.True(t, errors.As(err, &ierr)) {
		assert.Equal(t, uint32(3), ierr.Index)
		assert.Equal(t, good, ierr.Got)
		assert.Equal(t, bad, ierr.Expected)
	}
	assert.Equal(t, []byte("some piece data"), p.Data)
}
