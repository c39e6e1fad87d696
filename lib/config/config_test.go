package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func Test_NewPeerID(t *testing.T) {
	a := NewPeerID()
	b := NewPeerID()
	assert.True(t, strings.HasPrefix(string(a[:]), peerIDPrefix))
	assert.NotEqual(t, a, b)
}

func Test_FromEnv(t *testing.T) {
	c, err := FromEnv(Default(), envOf(map[string]string{
		"GOTORRENT_PEER_ID":        "00112233445566778899",
		"GOTORRENT_PORT":           "6999",
		"GOTORRENT_IO_TIMEOUT":     "2s",
		"GOTORRENT_PIPELINE_DEPTH": "4",
		"GOTORRENT_STORE":          "/tmp/x.db",
		"GOTORRENT_LOG":            "warn+:*",
	}))
	require.NoError(t, err)
	assert.Equal(t, "00112233445566778899", string(c.PeerID[:]))
	assert.Equal(t, uint16(6999), c.Port)
	assert.Equal(t, 2*time.Second, c.IOTimeout)
	assert.Equal(t, 4, c.PipelineDepth)
	assert.Equal(t, 1<<14, c.BlockSize)
	assert.Equal(t, "/tmp/x.db", c.StorePath)
	assert.Equal(t, "warn+:*", c.LogRule)
}

func Test_FromEnvErrors(t *testing.T) {
	testCases := map[string]string{
		"GOTORRENT_PEER_ID":        "short",
		"GOTORRENT_PORT":           "70000",
		"GOTORRENT_DIAL_TIMEOUT":   "soon",
		"GOTORRENT_BLOCK_SIZE":     "x",
		"GOTORRENT_PIPELINE_DEPTH": "0",
	}
	for name, val := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(Default(), envOf(map[string]string{name: val}))
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}
