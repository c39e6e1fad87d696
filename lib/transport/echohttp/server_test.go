package echohttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"example.com/gotorrent/lib/core/adapter/peerlist"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/testutil"
)

type stubHosts struct {
	hosts     []domain.Host
	err       error
	refreshed bool
}

func (s *stubHosts) GetHosts(context.Context) ([]domain.Host, error) { return s.hosts, s.err }

func (s *stubHosts) Refresh(context.Context) ([]domain.Host, error) {
	s.refreshed = true
	return s.hosts, s.err
}

type stubDownload func(index int) (domain.Piece, error)

func (f stubDownload) FetchPiece(_ context.Context, index int) (domain.Piece, error) {
	return f(index)
}

var content = testutil.Content(5, 3000)

func newServer(t *testing.T, hosts *stubHosts, dl stubDownload) *HTTPServe {
	m, err := domain.ParseMetadata(testutil.Torrent("http://t.example/announce", "sample.bin", content, 2048))
	require.NoError(t, err)
	return &HTTPServe{Metadata: m, Hosts: hosts, Download: dl}
}

func do(h *HTTPServe, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newServer(t, &stubHosts{}, nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetadata(t *testing.T) {
	h := newServer(t, &stubHosts{}, nil)
	rec := do(h, http.MethodGet, "/metadata")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp metadataResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "http://t.example/announce", resp.Announce)
	assert.Equal(t, "sample.bin", resp.Name)
	assert.Equal(t, int64(3000), resp.Length)
	assert.Equal(t, h.Metadata.InfoHash.String(), resp.InfoHash)
	assert.Len(t, resp.PieceHashes, 2)
	assert.Equal(t, []string{"/pieces/0", "/pieces/1"}, resp.Pieces)
}

func TestMetadata_SeparateServers(t *testing.T) {
	first := newServer(t, &stubHosts{}, nil)
	first.Echo()
	second := newServer(t, &stubHosts{}, nil)
	second.Echo()
	assert.NotEmpty(t, first.pieceRoute)

	rec := do(first, http.MethodGet, "/metadata")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp metadataResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"/pieces/0", "/pieces/1"}, resp.Pieces)
}

func TestPeers(t *testing.T) {
	t.Run("lists hosts", func(t *testing.T) {
		hosts := &stubHosts{hosts: []domain.Host{{IP: net.IPv4(10, 0, 0, 1).To4(), Port: 6881}}}
		rec := do(newServer(t, hosts, nil), http.MethodGet, "/peers")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"peers":["10.0.0.1:6881"]}`, rec.Body.String())
		assert.False(t, hosts.refreshed)
	})

	t.Run("refresh", func(t *testing.T) {
		hosts := &stubHosts{}
		rec := do(newServer(t, hosts, nil), http.MethodGet, "/peers?refresh=1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"peers":[]}`, rec.Body.String())
		assert.True(t, hosts.refreshed)
	})

	t.Run("tracker failure", func(t *testing.T) {
		hosts := &stubHosts{err: &peerlist.TrackerError{URL: "http://t", Reason: "down"}}
		rec := do(newServer(t, hosts, nil), http.MethodGet, "/peers")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestPiece(t *testing.T) {
	tests := []struct {
		name   string
		target string
		dl     stubDownload
		code   int
		body   []byte
	}{
		{
			name:   "verified piece",
			target: "/pieces/1",
			dl: func(index int) (domain.Piece, error) {
				return domain.Piece{Index: uint32(index), Data: content[2048:]}, nil
			},
			code: http.StatusOK,
			body: content[2048:],
		},
		{
			name:   "integrity failure",
			target: "/pieces/0",
			dl: func(index int) (domain.Piece, error) {
				return domain.Piece{Data: []byte{1}}, multierr.Append(errors.New("refused"), &domain.IntegrityError{Index: 0})
			},
			code: http.StatusUnprocessableEntity,
		},
		{
			name:   "peer failure",
			target: "/pieces/0",
			dl: func(index int) (domain.Piece, error) {
				return domain.Piece{}, errors.New("refused")
			},
			code: http.StatusBadGateway,
		},
		{
			name:   "not a number",
			target: "/pieces/abc",
			code:   http.StatusBadRequest,
		},
		{
			name:   "out of range",
			target: "/pieces/2",
			code:   http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl := tt.dl
			if dl == nil {
				dl = func(int) (domain.Piece, error) { return domain.Piece{}, fmt.Errorf("unexpected call") }
			}
			rec := do(newServer(t, &stubHosts{}, dl), http.MethodGet, tt.target)
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != nil {
				assert.Equal(t, tt.body, rec.Body.Bytes())
				assert.NotEmpty(t, rec.Header().Get("X-Piece-Hash"))
			}
		})
	}
}

func TestPieceAllows(t *testing.T) {
	rec := do(newServer(t, &stubHosts{}, nil), http.MethodHead, "/pieces/0")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "get", rec.Header().Get("Allow"))
}
