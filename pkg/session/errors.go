package session

import (
    "context"
    "errors"
    "fmt"

    "wtclient/pkg/transport"
)

var (
    // Connect failures.
    ErrCreateFailed    = errors.New("create session failed")
    ErrHandshakeFailed = errors.New("session handshake failed")

    // Send failures.
    ErrWriteFailed      = errors.New("write failed")
    ErrOpenFailed       = errors.New("open stream failed")
    ErrInvalidSelection = errors.New("invalid selection")

    ErrNotConnected     = errors.New("not connected")
    ErrAlreadyConnected = errors.New("already connected")
)

func wrap(sentinel, cause error) error {
    if cause == nil { return sentinel }
    return fmt.Errorf("%w: %w", sentinel, cause)
}

// cancelled reports errors caused by the session (or its task context)
// going away rather than by a transport fault.
func cancelled(err error) bool {
    return errors.Is(err, transport.ErrSessionClosed) || errors.Is(err, context.Canceled)
}
