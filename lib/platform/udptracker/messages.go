package udptracker

import (
	"encoding/binary"
	"fmt"

	"example.com/gotorrent/lib/core/domain"
)

const (
	protocolID = 0x41727101980

	actionConnect  = 0
	actionAnnounce = 1
	actionError    = 3

	connectLen         = 16
	announceReqLen     = 98
	announceRespMinLen = 20
)

type connectRequest struct {
	protocolID    uint64
	action        uint32
	transactionID uint32
}

func newConnectRequest(txn uint32) connectRequest {
	return connectRequest{
		protocolID:    protocolID,
		action:        actionConnect,
		transactionID: txn,
	}
}

func newConnectRequestFromBytes(b []byte) (connectRequest, error) {
	if len(b) < connectLen {
		return connectRequest{}, fmt.Errorf("connect request of %d bytes", len(b))
	}
	return connectRequest{
		protocolID:    binary.BigEndian.Uint64(b[0:]),
		action:        binary.BigEndian.Uint32(b[8:]),
		transactionID: binary.BigEndian.Uint32(b[12:]),
	}, nil
}

func (u connectRequest) getBytes() []byte {
	b := make([]byte, connectLen)
	binary.BigEndian.PutUint64(b[0:], u.protocolID)
	binary.BigEndian.PutUint32(b[8:], u.action)
	binary.BigEndian.PutUint32(b[12:], u.transactionID)
	return b
}

type connectResponse struct {
	action        uint32
	transactionID uint32
	connID        uint64
}

func (u connectResponse) getBytes() []byte {
	b := make([]byte, connectLen)
	binary.BigEndian.PutUint32(b[0:], u.action)
	binary.BigEndian.PutUint32(b[4:], u.transactionID)
	binary.BigEndian.PutUint64(b[8:], u.connID)
	return b
}

func newConnectResponse(b []byte) (connectResponse, error) {
	if len(b) < connectLen {
		return connectResponse{}, fmt.Errorf("connect response of %d bytes", len(b))
	}
	return connectResponse{
		action:        binary.BigEndian.Uint32(b[0:]),
		transactionID: binary.BigEndian.Uint32(b[4:]),
		connID:        binary.BigEndian.Uint64(b[8:]),
	}, nil
}

type announceRequest struct {
	connID        uint64
	action        uint32
	transactionID uint32
	infoHash      [20]byte
	peerID        [20]byte
	downloaded    uint64
	left          uint64
	uploaded      uint64
	event         uint32
	ip            uint32
	key           uint32
	numWant       uint32
	port          uint16
}

func newAnnounceRequest() announceRequest {
	return announceRequest{
		action:  actionAnnounce,
		numWant: ^uint32(0),
	}
}

func (u announceRequest) getBytes() []byte {
	b := make([]byte, announceReqLen)
	binary.BigEndian.PutUint64(b[0:], u.connID)
	binary.BigEndian.PutUint32(b[8:], u.action)
	binary.BigEndian.PutUint32(b[12:], u.transactionID)
	copy(b[16:36], u.infoHash[:])
	copy(b[36:56], u.peerID[:])
	binary.BigEndian.PutUint64(b[56:], u.downloaded)
	binary.BigEndian.PutUint64(b[64:], u.left)
	binary.BigEndian.PutUint64(b[72:], u.uploaded)
	binary.BigEndian.PutUint32(b[80:], u.event)
	binary.BigEndian.PutUint32(b[84:], u.ip)
	binary.BigEndian.PutUint32(b[88:], u.key)
	binary.BigEndian.PutUint32(b[92:], u.numWant)
	binary.BigEndian.PutUint16(b[96:], u.port)
	return b
}

func newAnnounceRequestFromBytes(b []byte) (announceRequest, error) {
	if len(b) < announceReqLen {
		return announceRequest{}, fmt.Errorf("announce request of %d bytes", len(b))
	}
	u := announceRequest{
		connID:        binary.BigEndian.Uint64(b[0:]),
		action:        binary.BigEndian.Uint32(b[8:]),
		transactionID: binary.BigEndian.Uint32(b[12:]),
		downloaded:    binary.BigEndian.Uint64(b[56:]),
		left:          binary.BigEndian.Uint64(b[64:]),
		uploaded:      binary.BigEndian.Uint64(b[72:]),
		event:         binary.BigEndian.Uint32(b[80:]),
		ip:            binary.BigEndian.Uint32(b[84:]),
		key:           binary.BigEndian.Uint32(b[88:]),
		numWant:       binary.BigEndian.Uint32(b[92:]),
		port:          binary.BigEndian.Uint16(b[96:]),
	}
	copy(u.infoHash[:], b[16:36])
	copy(u.peerID[:], b[36:56])
	return u, nil
}

type AnnounceResponse struct {
	Action   uint32
	TxnID    uint32
	Interval uint32
	Leechers uint32
	Seeders  uint32
	Hosts    []domain.Host
}

func (u AnnounceResponse) getBytes() []byte {
	b := make([]byte, announceRespMinLen, announceRespMinLen+6*len(u.Hosts))
	binary.BigEndian.PutUint32(b[0:], u.Action)
	binary.BigEndian.PutUint32(b[4:], u.TxnID)
	binary.BigEndian.PutUint32(b[8:], u.Interval)
	binary.BigEndian.PutUint32(b[12:], u.Leechers)
	binary.BigEndian.PutUint32(b[16:], u.Seeders)
	for _, h := range u.Hosts {
		rec := make([]byte, 6)
		copy(rec, h.IP.To4())
		binary.BigEndian.PutUint16(rec[4:], h.Port)
		b = append(b, rec...)
	}
	return b
}

func newAnnounceResponse(b []byte) (AnnounceResponse, error) {
	if len(b) < announceRespMinLen {
		return AnnounceResponse{}, fmt.Errorf("announce response of %d bytes", len(b))
	}
	u := AnnounceResponse{
		Action:   binary.BigEndian.Uint32(b[0:]),
		TxnID:    binary.BigEndian.Uint32(b[4:]),
		Interval: binary.BigEndian.Uint32(b[8:]),
		Leechers: binary.BigEndian.Uint32(b[12:]),
		Seeders:  binary.BigEndian.Uint32(b[16:]),
	}
	hosts, err := domain.ParseCompactHosts(b[announceRespMinLen:])
	if err != nil {
		return AnnounceResponse{}, err
	}
	for _, h := range hosts {
		// Some trackers list the announcing client itself with port 0.
		if h.Port != 0 {
			u.Hosts = append(u.Hosts, h)
		}
	}
	return u, nil
}

// errorMessage returns the text of an action 3 response.
func errorMessage(b []byte) string {
	if len(b) <= 8 {
		return ""
	}
	return string(b[8:])
}
