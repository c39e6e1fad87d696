package peerlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/gotorrent/lib/core/adapter/cache"
	"example.com/gotorrent/lib/core/adapter/clock"
	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/adapter/persistentmetadata"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
)

var l_peerlist = logger.Named("peerlist")

var (
	ErrNoHosts = errors.New("no hosts")
	errExpired = errors.New("persisted hosts expired")
)

type Service interface {
	GetHosts(ctx context.Context) ([]domain.Host, error)
	// Refresh skips both caches and announces again.
	Refresh(ctx context.Context) ([]domain.Host, error)
}

// Impl serves hosts from the in-memory cache, then the persistent store
// while younger than TTL, then the tracker.
type Impl struct {
	InfoHash           domain.InfoHash
	Cache              cache.Cache
	PersistentMetadata persistentmetadata.PersistentMetadata
	PeerList           peerlist.PeerRepo
	Clock              clock.Clock
	TTL                time.Duration
}

var _ Service = Impl{}

type hostsWithTimestamp struct {
	Hosts []domain.Host
	Time  time.Time
}

func (impl Impl) key() string {
	return "hosts/" + impl.InfoHash.String()
}

func (impl Impl) GetHosts(ctx context.Context) ([]domain.Host, error) {
	ctx = logger.NewContextid(ctx)
	v, err := impl.Cache.Cached(impl.key(), func() (interface{}, error) {
		hosts, err := impl.getHostsFromStore(ctx)
		if err == nil {
			return hosts, nil
		}
		return impl.getHostsFromAnnounce(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Host), nil
}

func (impl Impl) Refresh(ctx context.Context) ([]domain.Host, error) {
	ctx = logger.NewContextid(ctx)
	impl.Cache.Remove(impl.key())
	hosts, err := impl.getHostsFromAnnounce(ctx)
	if err != nil {
		return nil, err
	}
	v, err := impl.Cache.Cached(impl.key(), func() (interface{}, error) {
		return hosts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Host), nil
}

func (impl Impl) getHostsFromStore(ctx context.Context) ([]domain.Host, error) {
	l := logger.Ctx(l_peerlist, ctx).Sugar()

	var persisted hostsWithTimestamp
	if err := impl.PersistentMetadata.Get(impl.key(), &persisted); err != nil {
		return nil, err
	}
	expires := persisted.Time.Add(impl.TTL)
	if !impl.Clock.Now().Before(expires) {
		l.Debugw("persisted hosts expired", "expired", expires.Format(time.RFC3339))
		return nil, errExpired
	}
	if len(persisted.Hosts) == 0 {
		return nil, ErrNoHosts
	}
	l.Debugw("using persisted hosts", "count", len(persisted.Hosts), "expires", expires.Format(time.RFC3339))
	return persisted.Hosts, nil
}

func (impl Impl) getHostsFromAnnounce(ctx context.Context) ([]domain.Host, error) {
	l := logger.Ctx(l_peerlist, ctx).Sugar()

	hosts, err := impl.PeerList.GetPeers(ctx)
	if err != nil {
		return nil, err
	}
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	l.Infow("got hosts from announce", "count", len(hosts))
	if err := impl.setHostsToStore(hosts); err != nil {
		l.Warnw("persisting hosts failed", "err", err.Error())
	}
	return hosts, nil
}

func (impl Impl) setHostsToStore(hosts []domain.Host) error {
	persisted := hostsWithTimestamp{
		Hosts: hosts,
		Time:  impl.Clock.Now(),
	}
	if err := impl.PersistentMetadata.Put(impl.key(), persisted); err != nil {
		return fmt.Errorf("persist hosts: %w", err)
	}
	return nil
}
