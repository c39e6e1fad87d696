// Package httptracker announces to HTTP trackers and decodes their compact
// peer lists.
package httptracker

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"strconv"
	"strings"

	"example.com/gotorrent/lib/bencode"
	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
)

var l_httptracker = logger.Named("httptracker")

const maxResponseSize = 1 << 20

type Response struct {
	Interval int64
	Hosts    []domain.Host
}

type Tracker struct {
	Announce string
	InfoHash domain.InfoHash
	// Left is reported as the number of bytes still wanted.
	Left   int64
	Config config.Config
	Client *http.Client
}

var _ peerlist.PeerRepo = Tracker{}

func New(announce string, infoHash domain.InfoHash, left int64, cfg config.Config) Tracker {
	return Tracker{
		Announce: announce,
		InfoHash: infoHash,
		Left:     left,
		Config:   cfg,
		Client:   &http.Client{Timeout: cfg.TrackerTimeout},
	}
}

func (t Tracker) GetPeers(ctx context.Context) ([]domain.Host, error) {
	resp, err := t.Do(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Hosts, nil
}

// Do performs one announce.
func (t Tracker) Do(ctx context.Context) (Response, error) {
	ctx = logger.NewContextid(ctx)
	l := logger.Ctx(l_httptracker, ctx).Sugar()

	u := t.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Response{}, t.fail("", err)
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	l.Debugw("announcing", "url", t.Announce)
	httpResp, err := client.Do(req)
	if err != nil {
		return Response{}, t.fail("", err)
	}
	defer httpResp.Body.Close()

	body, err := ioutil.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize+1))
	if err != nil {
		return Response{}, t.fail("", err)
	}
	if len(body) > maxResponseSize {
		return Response{}, t.fail("", fmt.Errorf("response exceeds %d bytes", maxResponseSize))
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return Response{}, t.fail(failureReason(body), fmt.Errorf("status %s", httpResp.Status))
	}

	resp, err := parseResponse(body)
	if err != nil {
		return Response{}, t.fail(failureReason(body), err)
	}
	l.Infow("announced", "url", t.Announce, "peers", len(resp.Hosts), "interval", resp.Interval)
	return resp, nil
}

// URL is the announce address with the query appended. Binary parameters
// are percent-encoded byte by byte.
func (t Tracker) URL() string {
	var sb strings.Builder
	sb.WriteString(t.Announce)
	if strings.Contains(t.Announce, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	sb.WriteString("info_hash=")
	sb.WriteString(escapeBytes(t.InfoHash[:]))
	sb.WriteString("&peer_id=")
	sb.WriteString(escapeBytes(t.Config.PeerID[:]))
	sb.WriteString("&port=")
	sb.WriteString(strconv.Itoa(int(t.Config.Port)))
	sb.WriteString("&uploaded=0&downloaded=0&left=")
	sb.WriteString(strconv.FormatInt(t.Left, 10))
	sb.WriteString("&compact=1")
	return sb.String()
}

func (t Tracker) fail(reason string, err error) error {
	if reason != "" {
		err = nil
	}
	return &peerlist.TrackerError{URL: t.Announce, Reason: reason, Err: err}
}

func escapeBytes(b []byte) string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, 3*len(b))
	for _, c := range b {
		out = append(out, '%', hex[c>>4], hex[c&0xf])
	}
	return string(out)
}

func failureReason(body []byte) string {
	v, err := bencode.Decode(body)
	if err != nil {
		return ""
	}
	d, ok := v.(*bencode.Dict)
	if !ok {
		return ""
	}
	r, ok := d.Get("failure reason")
	if !ok {
		return ""
	}
	if b, ok := r.(bencode.Bytes); ok {
		return string(b)
	}
	return ""
}

func parseResponse(body []byte) (Response, error) {
	v, err := bencode.Decode(body)
	if err != nil {
		return Response{}, err
	}
	d, ok := v.(*bencode.Dict)
	if !ok {
		return Response{}, fmt.Errorf("response is not a dict")
	}
	if _, failed := d.Get("failure reason"); failed {
		return Response{}, fmt.Errorf("tracker reported failure")
	}

	var resp Response
	iv, ok := d.Get("interval")
	if !ok {
		return Response{}, &domain.SchemaError{Field: "interval", Reason: "missing"}
	}
	n, ok := iv.(bencode.Int)
	if !ok {
		return Response{}, &domain.SchemaError{Field: "interval", Reason: "not an integer"}
	}
	resp.Interval = int64(n)

	pv, ok := d.Get("peers")
	if !ok {
		return Response{}, &domain.SchemaError{Field: "peers", Reason: "missing"}
	}
	switch peers := pv.(type) {
	case bencode.Bytes:
		resp.Hosts, err = domain.ParseCompactHosts(peers)
		if err != nil {
			return Response{}, err
		}
	case bencode.List:
		// Trackers ignoring compact=1 send a list of dicts.
		for _, p := range peers {
			h, err := dictHost(p)
			if err != nil {
				return Response{}, err
			}
			resp.Hosts = append(resp.Hosts, h)
		}
	default:
		return Response{}, &domain.SchemaError{Field: "peers", Reason: "not a byte string or list"}
	}
	return resp, nil
}

func dictHost(v bencode.Value) (domain.Host, error) {
	d, ok := v.(*bencode.Dict)
	if !ok {
		return domain.Host{}, &domain.SchemaError{Field: "peers", Reason: "entry is not a dict"}
	}
	ipV, _ := d.Get("ip")
	portV, _ := d.Get("port")
	ipB, ok1 := ipV.(bencode.Bytes)
	port, ok2 := portV.(bencode.Int)
	if !ok1 || !ok2 || port < 0 || port > 65535 {
		return domain.Host{}, &domain.SchemaError{Field: "peers", Reason: "entry needs ip and port"}
	}
	ip := net.ParseIP(string(ipB))
	if ip == nil {
		return domain.Host{}, &domain.SchemaError{Field: "peers", Reason: fmt.Sprintf("invalid ip %q", string(ipB))}
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return domain.Host{IP: ip, Port: uint16(port)}, nil
}
