package download

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"example.com/gotorrent/lib/core/adapter/peer"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/core/service/peerlist"
	"example.com/gotorrent/lib/logger"
)

var l_download = logger.Named("download")

var ErrNoPeers = errors.New("no peer could serve the piece")

type Service interface {
	FetchPiece(ctx context.Context, index int) (domain.Piece, error)
}

type Impl struct {
	Metadata    domain.Metadata
	Hosts       peerlist.Service
	PeerFactory peer.PeerFactory
}

var _ Service = Impl{}

// FetchPiece tries every known host in turn, each with a fresh session, and
// returns the first verified piece. When all of them fail, the error lists
// every failure and the piece holds the last bytes that failed
// verification, if any.
func (impl Impl) FetchPiece(ctx context.Context, index int) (domain.Piece, error) {
	ctx = logger.NewContextid(ctx)
	l := logger.Ctx(l_download, ctx).Sugar()

	size, err := impl.Metadata.PieceSize(index)
	if err != nil {
		return domain.Piece{}, err
	}
	digest, err := impl.Metadata.PieceHash(index)
	if err != nil {
		return domain.Piece{}, err
	}

	hosts, err := impl.Hosts.GetHosts(ctx)
	if err != nil {
		return domain.Piece{}, fmt.Errorf("get hosts: %w", err)
	}

	var errs error
	var last domain.Piece
	for _, h := range hosts {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		piece, err := impl.fetchFrom(ctx, h, uint32(index), int(size), digest)
		if err == nil {
			l.Infow("piece downloaded", "index", index, "host", h.String())
			return piece, nil
		}
		var ierr *domain.IntegrityError
		if errors.As(err, &ierr) {
			last = piece
		}
		l.Warnw("peer failed", "host", h.String(), "err", err.Error())
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", h, err))
	}
	if errs == nil {
		errs = ErrNoPeers
	}
	return last, errs
}

func (impl Impl) fetchFrom(ctx context.Context, h domain.Host, index uint32, size int, digest [20]byte) (domain.Piece, error) {
	p := impl.PeerFactory.New(h)
	defer p.Close()

	if err := p.Connect(ctx); err != nil {
		return domain.Piece{}, err
	}
	return p.FetchPiece(ctx, index, size, digest)
}
