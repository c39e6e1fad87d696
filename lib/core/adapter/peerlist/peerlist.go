//go:generate mockgen -destination ../../../mocks/peerlist/peerlist.go example.com/gotorrent/lib/core/adapter/peerlist PeerRepo
package peerlist

import (
	"context"
	"errors"
	"fmt"

	"example.com/gotorrent/lib/core/domain"
)

// ErrTracker is matched by every tracker failure: unreachable, non-success
// status or malformed response.
var ErrTracker = errors.New("tracker error")

type PeerRepo interface {
	GetPeers(ctx context.Context) ([]domain.Host, error)
}

// TrackerError is a failed announce. Reason is the tracker's own failure
// message when it sent one.
type TrackerError struct {
	URL    string
	Reason string
	Err    error
}

func (e *TrackerError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("tracker %s: failure reason: %s", e.URL, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("tracker %s: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("tracker %s: failed", e.URL)
}

func (e *TrackerError) Unwrap() error {
	return e.Err
}

func (e *TrackerError) Is(target error) bool {
	return target == ErrTracker
}
