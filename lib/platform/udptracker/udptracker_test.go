package udptracker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/domain"
)

var testHosts = []domain.Host{
	{IP: net.IPv4(10, 0, 0, 1).To4(), Port: 6881},
	{IP: net.IPv4(10, 0, 0, 2).To4(), Port: 51413},
}

type fakeTracker struct {
	conn net.PacketConn
	// drop is how many datagrams are ignored before answering.
	drop     int
	failWith string
	got      chan announceRequest
}

func startTracker(t *testing.T, ft *fakeTracker) *url.URL {
	conn, err := nettest.NewLocalPacketListener("udp")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	ft.conn = conn
	ft.got = make(chan announceRequest, 8)
	go ft.serve()

	u, err := url.Parse(fmt.Sprintf("udp://%s/announce", conn.LocalAddr().String()))
	require.NoError(t, err)
	return u
}

func (ft *fakeTracker) serve() {
	b := make([]byte, 2048)
	for {
		n, addr, err := ft.conn.ReadFrom(b)
		if err != nil {
			return
		}
		if ft.drop > 0 {
			ft.drop--
			continue
		}
		switch n {
		case connectLen:
			req, _ := newConnectRequestFromBytes(b[:n])
			if req.protocolID != protocolID {
				continue
			}
			// A stray datagram for another transaction comes first.
			stray := connectResponse{action: actionConnect, transactionID: req.transactionID + 1, connID: 1}
			ft.conn.WriteTo(stray.getBytes(), addr)
			resp := connectResponse{action: actionConnect, transactionID: req.transactionID, connID: 0xc0ffee}
			ft.conn.WriteTo(resp.getBytes(), addr)
		case announceReqLen:
			req, _ := newAnnounceRequestFromBytes(b[:n])
			ft.got <- req
			if ft.failWith != "" {
				msg := make([]byte, 8, 8+len(ft.failWith))
				msg[3] = actionError
				copy(msg[4:8], b[12:16])
				ft.conn.WriteTo(append(msg, ft.failWith...), addr)
				continue
			}
			resp := AnnounceResponse{
				Action:   actionAnnounce,
				TxnID:    req.transactionID,
				Interval: 1800,
				Seeders:  2,
				Hosts:    append([]domain.Host{{IP: net.IPv4(10, 0, 0, 9).To4(), Port: 0}}, testHosts...),
			}
			ft.conn.WriteTo(resp.getBytes(), addr)
		}
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.TrackerTimeout = 100 * time.Millisecond
	return cfg
}

func TestUdpPeerList_GetPeers(t *testing.T) {
	infoHash := domain.InfoHash{1, 2, 3}

	t.Run("connect then announce", func(t *testing.T) {
		ft := &fakeTracker{}
		u := startTracker(t, ft)
		cfg := testConfig()
		tr := New(u, infoHash, 92063, cfg, nil)

		hosts, err := tr.GetPeers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testHosts, hosts)

		req := <-ft.got
		assert.Equal(t, uint64(0xc0ffee), req.connID)
		assert.Equal(t, [20]byte(infoHash), req.infoHash)
		assert.Equal(t, cfg.PeerID, req.peerID)
		assert.Equal(t, uint64(92063), req.left)
		assert.Equal(t, cfg.Port, req.port)
	})

	t.Run("connection id is reused", func(t *testing.T) {
		ft := &fakeTracker{}
		u := startTracker(t, ft)
		tr := New(u, infoHash, 1, testConfig(), nil)

		_, err := tr.GetPeers(context.Background())
		require.NoError(t, err)
		first := tr.connID
		_, err = tr.GetPeers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, tr.connID)
	})

	t.Run("timed out request is resent", func(t *testing.T) {
		ft := &fakeTracker{drop: 1}
		u := startTracker(t, ft)
		tr := New(u, infoHash, 1, testConfig(), nil)

		hosts, err := tr.GetPeers(context.Background())
		require.NoError(t, err)
		assert.Len(t, hosts, 2)
	})

	t.Run("gives up after retries", func(t *testing.T) {
		ft := &fakeTracker{drop: 100}
		u := startTracker(t, ft)
		cfg := testConfig()
		cfg.TrackerTimeout = 20 * time.Millisecond
		tr := New(u, infoHash, 1, cfg, nil)
		tr.Retries = 1

		_, err := tr.GetPeers(context.Background())
		assert.True(t, errors.Is(err, peerlist.ErrTracker))
		var nerr net.Error
		require.True(t, errors.As(err, &nerr))
		assert.True(t, nerr.Timeout())
	})

	t.Run("error action carries the message", func(t *testing.T) {
		ft := &fakeTracker{failWith: "torrent not registered"}
		u := startTracker(t, ft)
		tr := New(u, infoHash, 1, testConfig(), nil)

		_, err := tr.GetPeers(context.Background())
		var terr *peerlist.TrackerError
		require.True(t, errors.As(err, &terr), "got %v", err)
		assert.Equal(t, "torrent not registered", terr.Reason)
		assert.True(t, errors.Is(err, peerlist.ErrTracker))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ft := &fakeTracker{drop: 100}
		u := startTracker(t, ft)
		cfg := testConfig()
		cfg.TrackerTimeout = 10 * time.Second
		tr := New(u, infoHash, 1, cfg, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := tr.GetPeers(ctx)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})
}

func TestMessages(t *testing.T) {
	t.Run("connect request layout", func(t *testing.T) {
		b := newConnectRequest(0xdeadbeef).getBytes()
		assert.Equal(t, []byte{0, 0, 0x04, 0x17, 0x27, 0x10, 0x19, 0x80, 0, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef}, b)
	})

	t.Run("announce request round trip", func(t *testing.T) {
		req := newAnnounceRequest()
		req.connID = 42
		req.transactionID = 7
		req.infoHash = [20]byte{9}
		req.port = 6881
		got, err := newAnnounceRequestFromBytes(req.getBytes())
		require.NoError(t, err)
		assert.Equal(t, req, got)
		assert.Equal(t, ^uint32(0), got.numWant)
	})

	t.Run("announce response drops port 0", func(t *testing.T) {
		resp := AnnounceResponse{Action: actionAnnounce, TxnID: 1, Hosts: []domain.Host{
			{IP: net.IPv4(1, 2, 3, 4).To4(), Port: 0},
			{IP: net.IPv4(1, 2, 3, 5).To4(), Port: 80},
		}}
		got, err := newAnnounceResponse(resp.getBytes())
		require.NoError(t, err)
		assert.Equal(t, resp.Hosts[1:], got.Hosts)
	})

	t.Run("truncated responses", func(t *testing.T) {
		_, err := newAnnounceResponse(make([]byte, 19))
		assert.Error(t, err)
		_, err = newAnnounceResponse(make([]byte, 23))
		assert.True(t, errors.Is(err, domain.ErrCompactHosts))
		_, err = newConnectResponse(make([]byte, 8))
		assert.Error(t, err)
	})

	t.Run("error message", func(t *testing.T) {
		assert.Equal(t, "", errorMessage([]byte{0, 0, 0, 3, 0, 0, 0, 1}))
		assert.Equal(t, "nope", errorMessage([]byte{0, 0, 0, 3, 0, 0, 0, 1, 'n', 'o', 'p', 'e'}))
	})
}
