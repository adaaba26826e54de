package transport

import (
    "context"
    "fmt"
    "io"
    "net"
)

// Kind identifies the primitive backing a Session.
type Kind int

const (
    KindUnknown Kind = iota
    KindQUIC
    KindWebTransport
    KindMem
)

func (k Kind) String() string {
    switch k {
    case KindQUIC:
        return "quic"
    case KindWebTransport:
        return "webtransport"
    case KindMem:
        return "mem"
    default:
        return "unknown"
    }
}

// ErrorCode is an application error code carried by session close and
// stream cancellation.
type ErrorCode uint32

const (
    // CodeNoError closes a session gracefully.
    CodeNoError ErrorCode = 0
    // CodeCancelled aborts one direction of a stream.
    CodeCancelled ErrorCode = 0x10
    // CodeTooLarge aborts a receive half that exceeded its buffer cap.
    CodeTooLarge ErrorCode = 0x11
)

// SendStream is the outbound half of a stream. Close finishes the stream
// cleanly; CancelWrite aborts it.
type SendStream interface {
    io.Writer
    Close() error
    CancelWrite(code ErrorCode)
}

// RecvStream is the inbound half of a stream. Read returns io.EOF once the
// peer has finished the stream.
type RecvStream interface {
    io.Reader
    CancelRead(code ErrorCode)
}

// Stream is a bidirectional stream: both halves opened together.
type Stream interface {
    SendStream
    RecvStream
}

// CloseOutcome describes how a session ended.
type CloseOutcome struct {
    Abrupt bool
    Cause  error
}

// Normal is the outcome of a graceful close.
func Normal() CloseOutcome { return CloseOutcome{} }

// Abrupt is the outcome of a session torn down by an error.
func Abrupt(cause error) CloseOutcome { return CloseOutcome{Abrupt: true, Cause: cause} }

func (o CloseOutcome) String() string {
    if !o.Abrupt {
        return "normal"
    }
    return fmt.Sprintf("abrupt: %v", o.Cause)
}

// Session is one multiplexed connection offering datagrams, unidirectional
// and bidirectional streams. A Session returned by Dialer.Create is not usable
// until Ready succeeds; I/O before that fails with ErrNotReady.
//
// Once the session is closed every pending and future call fails with an
// error matching ErrSessionClosed.
type Session interface {
    Kind() Kind
    URL() string

    // Ready performs the handshake and blocks until the session is usable.
    Ready(ctx context.Context) error
    // Closed blocks until the session is closed and reports how. The error is
    // non-nil only when ctx ends first.
    Closed(ctx context.Context) (CloseOutcome, error)

    SendDatagram(ctx context.Context, b []byte) error
    ReceiveDatagram(ctx context.Context) ([]byte, error)

    OpenUniStream(ctx context.Context) (SendStream, error)
    OpenStream(ctx context.Context) (Stream, error)
    AcceptUniStream(ctx context.Context) (RecvStream, error)
    AcceptStream(ctx context.Context) (Stream, error)

    LocalAddr() net.Addr
    RemoteAddr() net.Addr

    // CloseWithError closes the entire session. CodeNoError is a graceful close.
    CloseWithError(code ErrorCode, msg string) error
}

// Dialer constructs client sessions for a URL. Create only validates and
// prepares; the handshake happens in Session.Ready.
type Dialer interface {
    Kind() Kind
    Create(rawURL string) (Session, error)
}

// Listener accepts peer sessions.
type Listener interface {
    // Accept blocks until an inbound session is available or ctx is done.
    Accept(ctx context.Context) (Session, error)
    Addr() net.Addr
    // Close stops the listener and unblocks Accept.
    Close() error
}
