// Package webtransport adapts WebTransport-over-HTTP/3 sessions to the
// transport primitive. Only the client side is provided; peer-initiated
// bidirectional streams are still exposed through AcceptStream.
package webtransport

import (
    "context"
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "sync"
    "time"

    quicgo "github.com/quic-go/quic-go"
    wt "github.com/quic-go/webtransport-go"

    "wtclient/pkg/transport"
)

// Scheme is the URL scheme served by Transport, e.g. https://localhost:4433/wt.
const Scheme = "https"

// Options tunes the TLS and QUIC layers under WebTransport.
type Options struct {
    InsecureSkipVerify bool
    RootCAs            *x509.CertPool
    Header             http.Header

    HandshakeTimeout time.Duration
    MaxIdleTimeout   time.Duration
    KeepAlive        time.Duration
}

// Transport implements transport.Dialer. One Transport shares a single
// webtransport.Dialer across the sessions it creates.
type Transport struct {
    opts   Options
    dialer *wt.Dialer
}

func New(opts Options) *Transport {
    d := &wt.Dialer{
        TLSClientConfig: &tls.Config{
            InsecureSkipVerify: opts.InsecureSkipVerify,
            RootCAs:            opts.RootCAs,
            MinVersion:         tls.VersionTLS13,
        },
        QUICConfig: &quicgo.Config{
            EnableDatagrams:      true,
            HandshakeIdleTimeout: opts.HandshakeTimeout,
            MaxIdleTimeout:       opts.MaxIdleTimeout,
            KeepAlivePeriod:      opts.KeepAlive,
        },
    }
    return &Transport{opts: opts, dialer: d}
}

func (t *Transport) Kind() transport.Kind { return transport.KindWebTransport }

// Close releases the shared dialer; sessions it created stay open.
func (t *Transport) Close() error { return t.dialer.Close() }

func (t *Transport) Create(rawURL string) (transport.Session, error) {
    if _, err := transport.ParseURL(rawURL, Scheme); err != nil { return nil, err }
    return &session{url: rawURL, t: t}, nil
}

type session struct {
    url string
    t   *Transport

    mu    sync.Mutex
    sess  *wt.Session
    local bool
}

func (s *session) Kind() transport.Kind { return transport.KindWebTransport }
func (s *session) URL() string          { return s.url }

func (s *session) LocalAddr() net.Addr {
    if c, err := s.c(); err == nil { return c.LocalAddr() }
    return nil
}

func (s *session) RemoteAddr() net.Addr {
    if c, err := s.c(); err == nil { return c.RemoteAddr() }
    return nil
}

func (s *session) Ready(ctx context.Context) error {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.sess != nil { return nil }
    rsp, sess, err := s.t.dialer.Dial(ctx, s.url, s.t.opts.Header.Clone())
    if err != nil {
        if rsp != nil { return fmt.Errorf("webtransport: %s: %w", rsp.Status, err) }
        return err
    }
    s.sess = sess
    return nil
}

func (s *session) c() (*wt.Session, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.sess == nil { return nil, transport.ErrNotReady }
    return s.sess, nil
}

func (s *session) wrap(err error) error {
    if err == nil || err == io.EOF { return err }
    var se *wt.SessionError
    if errors.As(err, &se) { return transport.Closed(err) }
    if c, cerr := s.c(); cerr == nil && c.Context().Err() != nil { return transport.Closed(err) }
    return err
}

func (s *session) Closed(ctx context.Context) (transport.CloseOutcome, error) {
    c, err := s.c()
    if err != nil { return transport.CloseOutcome{}, err }
    select {
    case <-c.Context().Done():
    case <-ctx.Done():
        return transport.CloseOutcome{}, ctx.Err()
    }
    s.mu.Lock(); local := s.local; s.mu.Unlock()
    cause := context.Cause(c.Context())
    var se *wt.SessionError
    switch {
    case errors.As(cause, &se):
        if se.ErrorCode == 0 { return transport.Normal(), nil }
        return transport.Abrupt(se), nil
    case local, cause == nil, errors.Is(cause, context.Canceled):
        return transport.Normal(), nil
    default:
        return transport.Abrupt(cause), nil
    }
}

func (s *session) CloseWithError(code transport.ErrorCode, msg string) error {
    c, err := s.c()
    if err != nil { return nil }
    s.mu.Lock(); s.local = code == transport.CodeNoError; s.mu.Unlock()
    return c.CloseWithError(wt.SessionErrorCode(code), msg)
}

func (s *session) SendDatagram(_ context.Context, b []byte) error {
    c, err := s.c()
    if err != nil { return err }
    return s.wrap(c.SendDatagram(b))
}

func (s *session) ReceiveDatagram(ctx context.Context) ([]byte, error) {
    c, err := s.c()
    if err != nil { return nil, err }
    b, err := c.ReceiveDatagram(ctx)
    return b, s.wrap(err)
}

func (s *session) OpenUniStream(ctx context.Context) (transport.SendStream, error) {
    c, err := s.c()
    if err != nil { return nil, err }
    st, err := c.OpenUniStreamSync(ctx)
    if err != nil { return nil, s.wrap(err) }
    return &sendStream{s: st, parent: s}, nil
}

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
    c, err := s.c()
    if err != nil { return nil, err }
    st, err := c.OpenStreamSync(ctx)
    if err != nil { return nil, s.wrap(err) }
    return &stream{&sendStream{s: st, parent: s}, &recvStream{s: st, parent: s}}, nil
}

func (s *session) AcceptUniStream(ctx context.Context) (transport.RecvStream, error) {
    c, err := s.c()
    if err != nil { return nil, err }
    st, err := c.AcceptUniStream(ctx)
    if err != nil { return nil, s.wrap(err) }
    return &recvStream{s: st, parent: s}, nil
}

func (s *session) AcceptStream(ctx context.Context) (transport.Stream, error) {
    c, err := s.c()
    if err != nil { return nil, err }
    st, err := c.AcceptStream(ctx)
    if err != nil { return nil, s.wrap(err) }
    return &stream{&sendStream{s: st, parent: s}, &recvStream{s: st, parent: s}}, nil
}

type wtSend interface {
    io.Writer
    Close() error
    CancelWrite(wt.StreamErrorCode)
}

type wtRecv interface {
    io.Reader
    CancelRead(wt.StreamErrorCode)
}

type sendStream struct {
    s      wtSend
    parent *session
}

func (st *sendStream) Write(b []byte) (int, error) {
    n, err := st.s.Write(b)
    return n, st.parent.wrap(err)
}

func (st *sendStream) Close() error { return st.parent.wrap(st.s.Close()) }

func (st *sendStream) CancelWrite(code transport.ErrorCode) {
    st.s.CancelWrite(wt.StreamErrorCode(code))
}

type recvStream struct {
    s      wtRecv
    parent *session
}

func (st *recvStream) Read(b []byte) (int, error) {
    n, err := st.s.Read(b)
    return n, st.parent.wrap(err)
}

func (st *recvStream) CancelRead(code transport.ErrorCode) {
    st.s.CancelRead(wt.StreamErrorCode(code))
}

type stream struct {
    *sendStream
    *recvStream
}

var (
    _ transport.Dialer  = (*Transport)(nil)
    _ transport.Session = (*session)(nil)
)
