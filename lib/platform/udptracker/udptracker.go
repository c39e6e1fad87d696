package udptracker

/*
 * BEP 15 UDPTracker
 */
import (
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"net"
	"net/url"
	"sync"
	"time"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/adapter/clock"
	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
	"example.com/gotorrent/lib/platform/realclock"
)

var l_udptracker = logger.Named("udptracker")

const (
	maxBackoff     = 8
	connIDLifetime = time.Minute
)

type connectionID struct {
	id      uint64
	gotTime time.Time
}

func (c connectionID) expired(now time.Time) bool {
	if c.gotTime.IsZero() {
		return true
	}
	return now.After(c.gotTime.Add(connIDLifetime))
}

type UdpPeerList struct {
	URL      *url.URL
	InfoHash domain.InfoHash
	// Left is the number of bytes still wanted.
	Left   int64
	Config config.Config
	Clock  clock.Clock
	// Retries is how many times a request that timed out is resent, each
	// time waiting twice as long.
	Retries int

	mut    sync.Mutex
	connID connectionID
}

var _ peerlist.PeerRepo = &UdpPeerList{}

func New(u *url.URL, infoHash domain.InfoHash, left int64, cfg config.Config, clk clock.Clock) *UdpPeerList {
	if clk == nil {
		clk = realclock.RealClock{}
	}
	return &UdpPeerList{
		URL:      u,
		InfoHash: infoHash,
		Left:     left,
		Config:   cfg,
		Clock:    clk,
		Retries:  2,
	}
}

func (t *UdpPeerList) GetPeers(ctx context.Context) ([]domain.Host, error) {
	ctx = logger.NewContextid(ctx)
	l := logger.Ctx(l_udptracker, ctx).Sugar()

	var d net.Dialer
	c, err := d.DialContext(ctx, "udp", t.URL.Host)
	if err != nil {
		return nil, t.fail(err)
	}
	defer c.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	for n := 0; ; n++ {
		resp, err := t.exchange(ctx, c, t.timeout(n))
		if err == nil {
			l.Infow("announced", "url", t.URL.String(), "peers", len(resp.Hosts), "interval", resp.Interval)
			return resp.Hosts, nil
		}
		if ctx.Err() != nil {
			return nil, t.fail(ctx.Err())
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() && n < t.Retries {
			l.Warnw("timed out, retrying", "url", t.URL.String(), "n", n+1)
			continue
		}
		return nil, t.fail(err)
	}
}

func (t *UdpPeerList) timeout(n int) time.Duration {
	base := t.Config.TrackerTimeout
	if base <= 0 {
		base = 15 * time.Second
	}
	if n > maxBackoff {
		n = maxBackoff
	}
	return base << n
}

func (t *UdpPeerList) fail(err error) error {
	var terr *peerlist.TrackerError
	if errors.As(err, &terr) {
		return terr
	}
	return &peerlist.TrackerError{URL: t.URL.String(), Err: err}
}

// exchange connects when the connection id has expired, then announces.
func (t *UdpPeerList) exchange(ctx context.Context, c net.Conn, timeout time.Duration) (AnnounceResponse, error) {
	l := logger.Ctx(l_udptracker, ctx).Sugar()
	t.mut.Lock()
	defer t.mut.Unlock()

	if t.connID.expired(t.Clock.Now()) {
		txn := rand.Uint32()
		b, err := t.roundTrip(c, newConnectRequest(txn).getBytes(), txn, timeout)
		if err != nil {
			return AnnounceResponse{}, err
		}
		resp, err := newConnectResponse(b)
		if err != nil {
			return AnnounceResponse{}, err
		}
		if resp.action != actionConnect {
			return AnnounceResponse{}, &peerlist.TrackerError{URL: t.URL.String(), Err: errors.New("connect response has wrong action")}
		}
		t.connID = connectionID{id: resp.connID, gotTime: t.Clock.Now()}
		l.Debugw("got connection id", "connID", resp.connID)
	}

	req := newAnnounceRequest()
	req.connID = t.connID.id
	req.transactionID = rand.Uint32()
	req.infoHash = t.InfoHash
	req.peerID = t.Config.PeerID
	req.left = uint64(t.Left)
	req.key = rand.Uint32()
	req.port = t.Config.Port

	b, err := t.roundTrip(c, req.getBytes(), req.transactionID, timeout)
	if err != nil {
		return AnnounceResponse{}, err
	}
	resp, err := newAnnounceResponse(b)
	if err != nil {
		return AnnounceResponse{}, err
	}
	if resp.Action != actionAnnounce {
		return AnnounceResponse{}, &peerlist.TrackerError{URL: t.URL.String(), Err: errors.New("announce response has wrong action")}
	}
	return resp, nil
}

// roundTrip sends req and returns the first datagram carrying txn.
// Datagrams for other transactions are dropped.
func (t *UdpPeerList) roundTrip(c net.Conn, req []byte, txn uint32, timeout time.Duration) ([]byte, error) {
	if err := c.SetDeadline(t.Clock.Now().Add(timeout)); err != nil {
		return nil, err
	}
	if _, err := c.Write(req); err != nil {
		return nil, err
	}
	buf := make([]byte, 4096)
	for {
		n, err := c.Read(buf)
		if err != nil {
			return nil, err
		}
		if n < 8 || binary.BigEndian.Uint32(buf[4:8]) != txn {
			continue
		}
		if binary.BigEndian.Uint32(buf[0:4]) == actionError {
			return nil, &peerlist.TrackerError{URL: t.URL.String(), Reason: errorMessage(buf[:n])}
		}
		return append([]byte(nil), buf[:n]...), nil
	}
}
