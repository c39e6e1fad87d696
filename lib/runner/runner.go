// Package runner wires the stores, trackers and services for one metadata
// file.
package runner

import (
	"fmt"

	"github.com/rapidloop/skv"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/adapter/persistentmetadata"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/core/service/download"
	peerlistsvc "example.com/gotorrent/lib/core/service/peerlist"
	"example.com/gotorrent/lib/platform/announce"
	"example.com/gotorrent/lib/platform/gcache"
	"example.com/gotorrent/lib/platform/mem"
	"example.com/gotorrent/lib/platform/peer"
	"example.com/gotorrent/lib/platform/realclock"
)

const hostCacheSize = 16

type Runner struct {
	Config   config.Config
	Metadata domain.Metadata
	Store    persistentmetadata.PersistentMetadata
	Hosts    peerlistsvc.Service
	Peers    peer.Factory
	Download download.Impl

	closeFn func() error
}

// New wires everything for m. With static hosts the trackers are never
// asked and nothing is persisted.
func New(cfg config.Config, m domain.Metadata, static ...domain.Host) (*Runner, error) {
	r := &Runner{Config: cfg, Metadata: m}
	clk := realclock.RealClock{}

	var repo peerlist.PeerRepo = announce.ForMetadata(m, cfg, clk)
	if len(static) > 0 {
		repo = announce.StaticPeerList(static)
		r.Store = mem.NewStore()
	} else if cfg.StorePath != "" {
		kv, err := skv.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.StorePath, err)
		}
		r.Store = kv
		r.closeFn = kv.Close
	} else {
		r.Store = mem.NewStore()
	}

	r.Hosts = peerlistsvc.Impl{
		InfoHash:           m.InfoHash,
		Cache:              gcache.NewCache(hostCacheSize, cfg.PeerCacheTTL),
		PersistentMetadata: r.Store,
		PeerList:           repo,
		Clock:              clk,
		TTL:                cfg.PeerCacheTTL,
	}
	r.Peers = peer.Factory{InfoHash: m.InfoHash, Config: cfg, Clock: clk}
	r.Download = download.Impl{Metadata: m, Hosts: r.Hosts, PeerFactory: r.Peers}
	return r, nil
}

func (r *Runner) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}
