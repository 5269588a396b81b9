package call

import (
	"errors"
	"fmt"
)

var (
	ErrSignalingClosed = errors.New("signaling connection closed")
	ErrLinkClosed      = errors.New("link closed")
)

// CallError annotates a failure with the operation and, when relevant, the
// remote peer it concerned. A failed operation abandons that one link; the
// rest of the session keeps going.
type CallError struct {
	Op   string
	Peer string
	Err  error
}

func (e *CallError) Error() string {
	if e.Peer != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *CallError {
	return &CallError{Op: op, Err: err}
}

func peerError(op, peer string, err error) *CallError {
	return &CallError{Op: op, Peer: peer, Err: err}
}
