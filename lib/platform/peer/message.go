package peer

import (
	"encoding/binary"
	"fmt"
	"io"
)

type MessageID uint8

const (
	MsgChoke MessageID = iota
	MsgUnchoke
	MsgInterested
	MsgNotInterested
	MsgHave
	MsgBitfield
	MsgRequest
	MsgPiece
	MsgCancel
)

var messageNames = [...]string{
	MsgChoke:         "choke",
	MsgUnchoke:       "unchoke",
	MsgInterested:    "interested",
	MsgNotInterested: "not interested",
	MsgHave:          "have",
	MsgBitfield:      "bitfield",
	MsgRequest:       "request",
	MsgPiece:         "piece",
	MsgCancel:        "cancel",
}

func (id MessageID) String() string {
	if int(id) < len(messageNames) {
		return messageNames[id]
	}
	return fmt.Sprintf("unknown(%d)", uint8(id))
}

type message struct {
	ID      MessageID
	Payload []byte
}

// writeMessage frames msg as <length><id><payload>. A nil msg is a keep-alive.
func writeMessage(w io.Writer, msg *message) error {
	if msg == nil {
		_, err := w.Write(make([]byte, 4))
		return err
	}
	buf := make([]byte, 4+1+len(msg.Payload))
	binary.BigEndian.PutUint32(buf[0:], uint32(len(msg.Payload)+1))
	buf[4] = byte(msg.ID)
	copy(buf[5:], msg.Payload)
	_, err := w.Write(buf)
	return err
}

// readMessage reads one frame. It returns nil, nil for a keep-alive.
func readMessage(r io.Reader, maxFrame int) (*message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	msgLen := binary.BigEndian.Uint32(lenBuf[:])
	if msgLen == 0 {
		return nil, nil
	}
	if maxFrame > 0 && uint64(msgLen) > uint64(maxFrame) {
		return nil, &ProtocolError{Reason: fmt.Sprintf("frame of %d bytes exceeds %d", msgLen, maxFrame)}
	}
	msgBuf := make([]byte, msgLen)
	if _, err := io.ReadFull(r, msgBuf); err != nil {
		return nil, err
	}
	id := MessageID(msgBuf[0])
	if id > MsgCancel {
		return nil, &ProtocolError{Reason: fmt.Sprintf("unknown message id %d", msgBuf[0])}
	}
	return &message{ID: id, Payload: msgBuf[1:]}, nil
}

func requestPayload(index, begin, length uint32) []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint32(b[0:], index)
	binary.BigEndian.PutUint32(b[4:], begin)
	binary.BigEndian.PutUint32(b[8:], length)
	return b
}

func parsePiece(payload []byte) (index, begin uint32, block []byte, err error) {
	if len(payload) < 8 {
		return 0, 0, nil, &ProtocolError{Reason: fmt.Sprintf("piece payload of %d bytes", len(payload))}
	}
	return binary.BigEndian.Uint32(payload[0:4]), binary.BigEndian.Uint32(payload[4:8]), payload[8:], nil
}

func parseHave(payload []byte) (uint32, error) {
	if len(payload) != 4 {
		return 0, &ProtocolError{Reason: fmt.Sprintf("have payload of %d bytes", len(payload))}
	}
	return binary.BigEndian.Uint32(payload), nil
}
