// Package config holds the client settings threaded into trackers and peer
// sessions.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const peerIDPrefix = "-GO0001-"

type Config struct {
	PeerID [20]byte
	// Port is reported to trackers. Nothing listens on it.
	Port uint16

	DialTimeout time.Duration
	// IOTimeout is the deadline applied to every read and write on a peer
	// connection.
	IOTimeout     time.Duration
	BlockSize     int
	PipelineDepth int
	MaxFrameSize  int

	TrackerTimeout time.Duration
	// StorePath is the skv database file. Empty means in-memory.
	StorePath    string
	PeerCacheTTL time.Duration

	LogRule string
}

func Default() Config {
	return Config{
		PeerID:         NewPeerID(),
		Port:           6881,
		DialTimeout:    3 * time.Second,
		IOTimeout:      30 * time.Second,
		BlockSize:      1 << 14,
		PipelineDepth:  1,
		MaxFrameSize:   1 << 20,
		TrackerTimeout: 15 * time.Second,
		PeerCacheTTL:   30 * time.Minute,
		LogRule:        "*",
	}
}

// NewPeerID returns the client prefix followed by 12 random hex digits.
func NewPeerID() [20]byte {
	var id [20]byte
	copy(id[:], peerIDPrefix)
	r := make([]byte, 6)
	if _, err := rand.Read(r); err != nil {
		panic(err)
	}
	hex.Encode(id[len(peerIDPrefix):], r)
	return id
}

// FromEnv overlays GOTORRENT_* variables found through lookup (usually
// os.LookupEnv) on top of base.
func FromEnv(base Config, lookup func(string) (string, bool)) (Config, error) {
	c := base
	if v, ok := lookup("GOTORRENT_PEER_ID"); ok {
		if len(v) != len(c.PeerID) {
			return c, fmt.Errorf("GOTORRENT_PEER_ID: must be %d bytes, got %d", len(c.PeerID), len(v))
		}
		copy(c.PeerID[:], v)
	}
	if v, ok := lookup("GOTORRENT_PORT"); ok {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return c, fmt.Errorf("GOTORRENT_PORT: %w", err)
		}
		c.Port = uint16(port)
	}
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"GOTORRENT_DIAL_TIMEOUT", &c.DialTimeout},
		{"GOTORRENT_IO_TIMEOUT", &c.IOTimeout},
		{"GOTORRENT_TRACKER_TIMEOUT", &c.TrackerTimeout},
		{"GOTORRENT_PEER_CACHE_TTL", &c.PeerCacheTTL},
	}
	for _, d := range durations {
		if v, ok := lookup(d.name); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return c, fmt.Errorf("%s: %w", d.name, err)
			}
			*d.dst = parsed
		}
	}
	ints := []struct {
		name string
		dst  *int
		min  int
	}{
		{"GOTORRENT_BLOCK_SIZE", &c.BlockSize, 1},
		{"GOTORRENT_PIPELINE_DEPTH", &c.PipelineDepth, 1},
		{"GOTORRENT_MAX_FRAME_SIZE", &c.MaxFrameSize, 1},
	}
	for _, n := range ints {
		if v, ok := lookup(n.name); ok {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("%s: %w", n.name, err)
			}
			if parsed < n.min {
				return c, fmt.Errorf("%s: must be at least %d", n.name, n.min)
			}
			*n.dst = parsed
		}
	}
	if v, ok := lookup("GOTORRENT_STORE"); ok {
		c.StorePath = v
	}
	if v, ok := lookup("GOTORRENT_LOG"); ok {
		c.LogRule = v
	}
	return c, nil
}
