package domain

import "errors"

// PieceList is a bitfield as sent on the wire: piece 0 is the high bit of
// the first byte.
type PieceList []byte

func NewPieceList(piecesCount int) PieceList {
	return make(PieceList, (piecesCount+7)/8)
}

func (p PieceList) ContainPiece(pieceNo uint32) bool {
	i := pieceNo / 8
	if int(i) >= len(p) {
		return false
	}
	return p[i]>>(7-pieceNo%8)&1 == 1
}

func (p PieceList) SetPiece(pieceNo uint32) error {
	i := pieceNo / 8
	if int(i) >= len(p) {
		return errors.New("out of bound")
	}
	p[i] |= 1 << (7 - pieceNo%8)
	return nil
}

// Count returns how many pieces are set.
func (p PieceList) Count() int {
	n := 0
	for _, b := range p {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}
