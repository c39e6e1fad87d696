package domain

import (
	"bytes"
	"crypto/sha1"
)

type Piece struct {
	Index uint32
	Data  []byte
}

// VerifyPiece hashes data and compares it with expected. The piece is
// returned with data untouched whether or not it matches.
func VerifyPiece(index uint32, data []byte, expected [20]byte) (Piece, error) {
	p := Piece{Index: index, Data: data}
	got := sha1.Sum(data)
	if !bytes.Equal(got[:], expected[:]) {
		return p, &IntegrityError{Index: index, Expected: expected, Got: got}
	}
	return p, nil
}
