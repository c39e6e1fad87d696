package runner

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/platform/mem"
	"example.com/gotorrent/lib/testutil"
)

func testMetadata(t *testing.T) domain.Metadata {
	m, err := domain.ParseMetadata(testutil.Torrent("http://127.0.0.1:1/announce", "f", testutil.Content(1, 100), 64))
	require.NoError(t, err)
	return m
}

func TestNew_Static(t *testing.T) {
	h := domain.Host{IP: net.IPv4(127, 0, 0, 1).To4(), Port: 6881}
	r, err := New(config.Default(), testMetadata(t), h)
	require.NoError(t, err)
	defer r.Close()

	assert.IsType(t, &mem.Store{}, r.Store)
	hosts, err := r.Hosts.GetHosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Host{h}, hosts)
}

func TestNew_Store(t *testing.T) {
	cfg := config.Default()
	cfg.StorePath = filepath.Join(t.TempDir(), "gotorrent.db")
	m := testMetadata(t)

	r, err := New(cfg, m)
	require.NoError(t, err)
	require.NoError(t, r.Store.Put("k", "v"))
	require.NoError(t, r.Close())

	r, err = New(cfg, m)
	require.NoError(t, err)
	defer r.Close()
	var v string
	require.NoError(t, r.Store.Get("k", &v))
	assert.Equal(t, "v", v)
	assert.Equal(t, m.InfoHash, r.Peers.InfoHash)
}

func TestNew_BadStore(t *testing.T) {
	cfg := config.Default()
	cfg.StorePath = filepath.Join(t.TempDir(), "missing", "dir", "db")
	_, err := New(cfg, testMetadata(t))
	assert.Error(t, err)
}
