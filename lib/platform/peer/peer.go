package peer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/adapter/clock"
	"example.com/gotorrent/lib/core/adapter/peer"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
	"example.com/gotorrent/lib/passthroughreader"
	"example.com/gotorrent/lib/platform/realclock"
)

var l_peer = logger.Named("peer")

type State int

const (
	StateConnected State = iota
	StateHandshakeSent
	StateHandshakeVerified
	StateAwaitingBitfield
	StateInterested
	StateAwaitingUnchoke
	StateRequesting
	StatePieceComplete
	StateAborted
)

var stateNames = [...]string{
	StateConnected:         "connected",
	StateHandshakeSent:     "handshake sent",
	StateHandshakeVerified: "handshake verified",
	StateAwaitingBitfield:  "awaiting bitfield",
	StateInterested:        "interested",
	StateAwaitingUnchoke:   "awaiting unchoke",
	StateRequesting:        "requesting",
	StatePieceComplete:     "piece complete",
	StateAborted:           "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session owns one connection to one peer. Its methods must not be called
// concurrently.
type Session struct {
	Host     domain.Host
	InfoHash domain.InfoHash

	cfg   config.Config
	clock clock.Clock
	log   *zap.Logger

	conn net.Conn
	rd   *bufio.Reader
	wr   *bufio.Writer

	state       State
	abortErr    error
	theirPeerID []byte
	theirPieces domain.PieceList
	downloaded  int64

	cancelMut sync.Mutex
	cancelled bool
}

var _ peer.Peer = &Session{}

// New returns an unconnected session. A nil clk means the wall clock.
func New(h domain.Host, infoHash domain.InfoHash, cfg config.Config, clk clock.Clock) *Session {
	if clk == nil {
		clk = realclock.RealClock{}
	}
	return &Session{
		Host:     h,
		InfoHash: infoHash,
		cfg:      cfg,
		clock:    clk,
		log:      l_peer.With(zap.String("host", h.String())),
	}
}

// NewWithConn wraps an established connection. The session is in
// StateConnected and Handshake is the next step.
func NewWithConn(conn net.Conn, infoHash domain.InfoHash, cfg config.Config, clk clock.Clock) *Session {
	var h domain.Host
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		h = domain.Host{IP: addr.IP, Port: uint16(addr.Port)}
	}
	s := New(h, infoHash, cfg, clk)
	s.attach(conn)
	return s
}

type Factory struct {
	InfoHash domain.InfoHash
	Config   config.Config
	Clock    clock.Clock
}

var _ peer.PeerFactory = Factory{}

func (f Factory) New(h domain.Host) peer.Peer {
	return New(h, f.InfoHash, f.Config, f.Clock)
}

func (s *Session) attach(conn net.Conn) {
	s.conn = conn
	counted := passthroughreader.NewPassthrough(conn, func(n int) {
		atomic.AddInt64(&s.downloaded, int64(n))
	})
	s.rd = bufio.NewReader(counted)
	s.wr = bufio.NewWriter(conn)
	s.state = StateConnected
}

func (s *Session) State() State {
	return s.state
}

// Err is the reason the session was aborted, nil otherwise.
func (s *Session) Err() error {
	return s.abortErr
}

func (s *Session) GetPeerID() []byte {
	return s.theirPeerID
}

// TheirPieces is the bitfield the peer announced, updated by Have messages.
func (s *Session) TheirPieces() domain.PieceList {
	return s.theirPieces
}

// Downloaded counts every byte read from the peer, framing included.
func (s *Session) Downloaded() int64 {
	return atomic.LoadInt64(&s.downloaded)
}

// Connect dials the peer and performs the handshake.
func (s *Session) Connect(ctx context.Context) error {
	if s.conn != nil {
		return errors.New("already connected")
	}
	ctx = logger.NewContextid(ctx)
	s.log = logger.Ctx(s.log, ctx)

	d := net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", s.Host.String())
	if err != nil {
		s.log.Sugar().Debugw("dial failed", "err", err.Error())
		return err
	}
	s.attach(conn)

	if _, err := s.Handshake(ctx); err != nil {
		return err
	}
	s.log.Sugar().Infow("connected", "peerid", fmt.Sprintf("%x", s.theirPeerID))
	return nil
}

func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Handshake exchanges the 68-byte handshake and returns the remote peer id.
func (s *Session) Handshake(ctx context.Context) ([]byte, error) {
	if s.state != StateConnected || s.conn == nil {
		return nil, s.wrongState("handshake")
	}
	defer s.watch(ctx)()

	req := handshake{
		proto:    protoBitTorrent,
		infoHash: s.InfoHash,
		peerID:   s.cfg.PeerID,
	}
	if err := s.deadline(ctx); err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	if _, err := s.wr.Write(req.getBytes()); err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	if err := s.wr.Flush(); err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	s.state = StateHandshakeSent

	if err := s.deadline(ctx); err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	protoLen, err := s.rd.ReadByte()
	if err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	respBuf := make([]byte, 1+int(protoLen)+48)
	respBuf[0] = protoLen
	if _, err := io.ReadFull(s.rd, respBuf[1:]); err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	resp, err := newHandshake(respBuf)
	if err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}
	if err := req.matches(resp); err != nil {
		return nil, s.abort(ctx, &HandshakeError{Err: err})
	}

	s.theirPeerID = append([]byte(nil), resp.peerID[:]...)
	s.state = StateHandshakeVerified
	s.log.Sugar().Debugw("handshake verified", "peerid", fmt.Sprintf("%x", s.theirPeerID))
	s.state = StateAwaitingBitfield
	return s.theirPeerID, nil
}

// Negotiate waits for the bitfield, declares interest and waits to be
// unchoked.
func (s *Session) Negotiate(ctx context.Context) error {
	if s.state != StateAwaitingBitfield {
		return s.wrongState("negotiate")
	}
	defer s.watch(ctx)()

	msg, err := s.expect(ctx, MsgBitfield)
	if err != nil {
		return s.abort(ctx, err)
	}
	s.theirPieces = domain.PieceList(msg.Payload)
	s.log.Sugar().Debugw("got bitfield", "pieces", s.theirPieces.Count())

	if err := s.send(ctx, &message{ID: MsgInterested}); err != nil {
		return s.abort(ctx, err)
	}
	s.state = StateInterested

	s.state = StateAwaitingUnchoke
	if _, err := s.expect(ctx, MsgUnchoke); err != nil {
		return s.abort(ctx, err)
	}
	s.state = StateRequesting
	s.log.Sugar().Debugw("unchoked")
	return nil
}

type blockRequest struct {
	index  uint32
	begin  uint32
	length uint32
}

// FetchPiece requests piece index in blocks, reassembles it and checks it
// against digest. A digest mismatch returns the assembled bytes with a
// *domain.IntegrityError and leaves the session usable.
func (s *Session) FetchPiece(ctx context.Context, index uint32, size int, digest [20]byte) (domain.Piece, error) {
	if s.state == StateAwaitingBitfield {
		if err := s.Negotiate(ctx); err != nil {
			return domain.Piece{}, err
		}
	}
	if s.state == StatePieceComplete {
		s.state = StateRequesting
	}
	if s.state != StateRequesting {
		return domain.Piece{}, s.wrongState("fetch piece")
	}
	if size <= 0 {
		return domain.Piece{}, fmt.Errorf("invalid piece size %d", size)
	}
	defer s.watch(ctx)()

	blockSize := s.cfg.BlockSize
	if blockSize <= 0 {
		blockSize = 1 << 14
	}
	depth := s.cfg.PipelineDepth
	if depth <= 0 {
		depth = 1
	}

	buf := make([]byte, size)
	var pending []blockRequest
	next, received := 0, 0

	for received < size {
		for len(pending) < depth && next < size {
			length := blockSize
			if size-next < length {
				length = size - next
			}
			req := blockRequest{index: index, begin: uint32(next), length: uint32(length)}
			if err := s.request(ctx, req); err != nil {
				return domain.Piece{}, s.abort(ctx, err)
			}
			pending = append(pending, req)
			next += length
		}

		msg, err := s.readMessage(ctx)
		if err != nil {
			return domain.Piece{}, s.abort(ctx, err)
		}
		switch msg.ID {
		case MsgPiece:
			want := pending[0]
			gotIndex, gotBegin, block, err := parsePiece(msg.Payload)
			if err != nil {
				return domain.Piece{}, s.abort(ctx, err)
			}
			if gotIndex != want.index || gotBegin != want.begin {
				return domain.Piece{}, s.abort(ctx, &ProtocolError{
					Reason: fmt.Sprintf("unexpected block: index %d begin %d, requested index %d begin %d",
						gotIndex, gotBegin, want.index, want.begin),
				})
			}
			if uint32(len(block)) != want.length {
				return domain.Piece{}, s.abort(ctx, &ProtocolError{
					Reason: fmt.Sprintf("block at %d has %d bytes, requested %d", want.begin, len(block), want.length),
				})
			}
			copy(buf[want.begin:], block)
			received += len(block)
			pending = pending[1:]
			s.log.Sugar().Debugw("got block", "index", index, "begin", want.begin, "length", want.length)
		case MsgHave:
			if err := s.handleHave(msg); err != nil {
				return domain.Piece{}, s.abort(ctx, err)
			}
		case MsgUnchoke, MsgInterested, MsgNotInterested:
			s.log.Sugar().Debugw("ignored while requesting", "msg", msg.ID.String())
		case MsgChoke:
			if err := s.awaitUnchoke(ctx); err != nil {
				return domain.Piece{}, s.abort(ctx, err)
			}
			// A choke discards outstanding requests on the remote side.
			for _, req := range pending {
				if err := s.request(ctx, req); err != nil {
					return domain.Piece{}, s.abort(ctx, err)
				}
			}
		default:
			return domain.Piece{}, s.abort(ctx, &ProtocolError{Expected: MsgPiece, Got: msg.ID})
		}
	}

	s.state = StatePieceComplete
	piece, err := domain.VerifyPiece(index, buf, digest)
	if err != nil {
		s.log.Sugar().Warnw("piece failed verification", "index", index, "err", err.Error())
		return piece, err
	}
	s.log.Sugar().Infow("piece verified", "index", index, "size", size, "downloaded", s.Downloaded())
	return piece, nil
}

func (s *Session) awaitUnchoke(ctx context.Context) error {
	s.state = StateAwaitingUnchoke
	s.log.Sugar().Debugw("choked while requesting")
	for {
		msg, err := s.readMessage(ctx)
		if err != nil {
			return err
		}
		switch msg.ID {
		case MsgUnchoke:
			s.state = StateRequesting
			return nil
		case MsgChoke:
		case MsgHave:
			if err := s.handleHave(msg); err != nil {
				return err
			}
		default:
			return &ProtocolError{Expected: MsgUnchoke, Got: msg.ID}
		}
	}
}

func (s *Session) handleHave(msg *message) error {
	i, err := parseHave(msg.Payload)
	if err != nil {
		return err
	}
	if int(i/8) >= len(s.theirPieces) {
		grown := make(domain.PieceList, i/8+1)
		copy(grown, s.theirPieces)
		s.theirPieces = grown
	}
	return s.theirPieces.SetPiece(i)
}

func (s *Session) request(ctx context.Context, req blockRequest) error {
	return s.send(ctx, &message{ID: MsgRequest, Payload: requestPayload(req.index, req.begin, req.length)})
}

// expect reads the next message and fails unless it has the given id.
func (s *Session) expect(ctx context.Context, id MessageID) (*message, error) {
	msg, err := s.readMessage(ctx)
	if err != nil {
		return nil, err
	}
	if msg.ID != id {
		return nil, &ProtocolError{Expected: id, Got: msg.ID}
	}
	return msg, nil
}

// readMessage returns the next message that is not a keep-alive.
func (s *Session) readMessage(ctx context.Context) (*message, error) {
	for {
		if err := s.deadline(ctx); err != nil {
			return nil, err
		}
		msg, err := readMessage(s.rd, s.cfg.MaxFrameSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var perr *ProtocolError
			if errors.As(err, &perr) {
				return nil, err
			}
			return nil, fmt.Errorf("read message: %w", err)
		}
		if msg == nil {
			s.log.Sugar().Debugw("keep alive")
			continue
		}
		return msg, nil
	}
}

func (s *Session) send(ctx context.Context, msg *message) error {
	if err := s.deadline(ctx); err != nil {
		return err
	}
	if err := writeMessage(s.wr, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.ID, err)
	}
	if err := s.wr.Flush(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("send %s: %w", msg.ID, err)
	}
	return nil
}

// deadline arms the per-operation IO deadline unless ctx is already done.
func (s *Session) deadline(ctx context.Context) error {
	s.cancelMut.Lock()
	defer s.cancelMut.Unlock()
	if s.cancelled {
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var t time.Time
	if s.cfg.IOTimeout > 0 {
		t = s.clock.Now().Add(s.cfg.IOTimeout)
	}
	return s.conn.SetDeadline(t)
}

// watch unblocks pending IO once ctx is done. The returned func stops it.
func (s *Session) watch(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
			s.cancelMut.Lock()
			s.cancelled = true
			s.conn.SetDeadline(time.Unix(1, 0))
			s.cancelMut.Unlock()
		case <-stop:
		}
	}()
	return func() {
		close(stop)
		<-done
		s.cancelMut.Lock()
		s.cancelled = false
		s.cancelMut.Unlock()
	}
}

// abort moves the session to StateAborted. Protocol errors get stamped with
// the state they happened in.
func (s *Session) abort(ctx context.Context, err error) error {
	var perr *ProtocolError
	if errors.As(err, &perr) && perr.State == 0 {
		perr.State = s.state
	}
	if e := ctx.Err(); e != nil && !errors.Is(err, e) {
		err = fmt.Errorf("%w: %v", e, err)
	}
	s.state = StateAborted
	s.abortErr = err
	s.log.Sugar().Warnw("session aborted", "err", err.Error())
	return err
}

func (s *Session) wrongState(op string) error {
	if s.state == StateAborted {
		return fmt.Errorf("%s: %w: %v", op, ErrAborted, s.abortErr)
	}
	return fmt.Errorf("%s: not allowed in state %s", op, s.state)
}
