//go:generate mockgen -destination ../../../mocks/peer/peer.go example.com/gotorrent/lib/core/adapter/peer Peer,PeerFactory
package peer

import (
	"context"

	"example.com/gotorrent/lib/core/domain"
)

// Peer is one connection to one remote peer.
type Peer interface {
	Connect(ctx context.Context) error
	// GetPeerID is the remote id from the handshake, nil before Connect.
	GetPeerID() []byte
	// FetchPiece downloads and verifies one piece. On a digest mismatch the
	// assembled bytes are returned along with a *domain.IntegrityError.
	FetchPiece(ctx context.Context, index uint32, size int, digest [20]byte) (domain.Piece, error)
	Close() error
}

type PeerFactory interface {
	New(h domain.Host) Peer
}
