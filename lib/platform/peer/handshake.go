package peer

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	protoBitTorrent = "BitTorrent protocol"
	handshakeLen    = 1 + len(protoBitTorrent) + 8 + 20 + 20
)

var (
	ErrProtocolTag      = errors.New("unexpected protocol tag")
	ErrInfoHashMismatch = errors.New("info hash mismatch")
)

type handshake struct {
	proto    string
	reserved [8]byte
	infoHash [20]byte
	peerID   [20]byte
}

func (h handshake) matches(v handshake) error {
	if h.proto != v.proto {
		return fmt.Errorf("%w: %q", ErrProtocolTag, v.proto)
	}
	if !bytes.Equal(h.infoHash[:], v.infoHash[:]) {
		return fmt.Errorf("%w: got %x", ErrInfoHashMismatch, v.infoHash)
	}
	return nil
}

func (h handshake) getBytes() []byte {
	b := make([]byte, 0, 1+len(h.proto)+48)
	b = append(b, byte(len(h.proto)))
	b = append(b, h.proto...)
	b = append(b, h.reserved[:]...)
	b = append(b, h.infoHash[:]...)
	b = append(b, h.peerID[:]...)
	return b
}

// newHandshake parses a handshake read off the wire. b must hold the whole
// message.
func newHandshake(b []byte) (handshake, error) {
	var h handshake
	if len(b) == 0 {
		return h, errors.New("empty handshake")
	}
	protoLen := int(b[0])
	if len(b) != 1+protoLen+48 {
		return h, fmt.Errorf("handshake of %d bytes for protocol tag of %d", len(b), protoLen)
	}
	n := 1
	h.proto = string(b[n : n+protoLen])
	n += protoLen
	n += copy(h.reserved[:], b[n:])
	n += copy(h.infoHash[:], b[n:])
	copy(h.peerID[:], b[n:])
	return h, nil
}

type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return "handshake: " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
