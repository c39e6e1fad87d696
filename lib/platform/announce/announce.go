// Package announce picks a tracker client per announce URL and falls back
// through every tracker of a metadata file.
package announce

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/multierr"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/adapter/clock"
	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
	"example.com/gotorrent/lib/platform/httptracker"
	"example.com/gotorrent/lib/platform/udptracker"
)

var l_announce = logger.Named("announce")

// MultiTracker asks each tracker in order and returns the first non-empty
// answer.
type MultiTracker struct {
	URLs     []string
	Trackers []peerlist.PeerRepo
}

var _ peerlist.PeerRepo = MultiTracker{}

// ForMetadata builds a MultiTracker over m.Trackers(). Unsupported or
// malformed URLs are reported once GetPeers runs out of working trackers.
func ForMetadata(m domain.Metadata, cfg config.Config, clk clock.Clock) MultiTracker {
	var mt MultiTracker
	for _, raw := range m.Trackers() {
		mt.URLs = append(mt.URLs, raw)
		mt.Trackers = append(mt.Trackers, NewTracker(raw, m.InfoHash, m.Info.Length, cfg, clk))
	}
	return mt
}

// NewTracker returns the client for raw's scheme.
func NewTracker(raw string, infoHash domain.InfoHash, left int64, cfg config.Config, clk clock.Clock) peerlist.PeerRepo {
	u, err := url.Parse(raw)
	if err != nil {
		return failing{&peerlist.TrackerError{URL: raw, Err: err}}
	}
	switch u.Scheme {
	case "http", "https":
		return httptracker.New(raw, infoHash, left, cfg)
	case "udp":
		return udptracker.New(u, infoHash, left, cfg, clk)
	}
	return failing{&peerlist.TrackerError{URL: raw, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}}
}

func (mt MultiTracker) GetPeers(ctx context.Context) ([]domain.Host, error) {
	ctx = logger.NewContextid(ctx)
	l := logger.Ctx(l_announce, ctx).Sugar()

	if len(mt.Trackers) == 0 {
		return nil, fmt.Errorf("%w: no trackers", peerlist.ErrTracker)
	}
	var errs error
	for i, t := range mt.Trackers {
		hosts, err := t.GetPeers(ctx)
		if err == nil && len(hosts) == 0 {
			err = fmt.Errorf("%w: %s returned no peers", peerlist.ErrTracker, mt.name(i))
		}
		if err == nil {
			return hosts, nil
		}
		l.Warnw("tracker failed", "tracker", mt.name(i), "err", err.Error())
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errs
}

func (mt MultiTracker) name(i int) string {
	if i < len(mt.URLs) {
		return mt.URLs[i]
	}
	return fmt.Sprintf("tracker %d", i)
}

type failing struct {
	err error
}

func (f failing) GetPeers(context.Context) ([]domain.Host, error) {
	return nil, f.err
}
