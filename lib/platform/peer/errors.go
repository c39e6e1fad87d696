package peer

import (
	"errors"
	"fmt"
)

var ErrAborted = errors.New("session aborted")

// ProtocolError is a message the peer should not have sent at this point.
type ProtocolError struct {
	State    State
	Expected MessageID
	Got      MessageID
	Reason   string
}

func (e *ProtocolError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("protocol: %s: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("protocol: %s: expected %s, got %s", e.State, e.Expected, e.Got)
}
