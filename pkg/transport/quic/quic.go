package quic

import (
    "context"
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "io"
    "net"
    "sync"
    "time"

    quicgo "github.com/quic-go/quic-go"

    "wtclient/pkg/transport"
)

const (
    // Scheme is the URL scheme served by Transport, e.g. quic://localhost:4433.
    Scheme = "quic"
    // DefaultPort is used when the URL carries no port.
    DefaultPort = "4433"
    // DefaultALPN is negotiated when Options.ALPN is empty.
    DefaultALPN = "wtclient"
)

// Options tunes TLS and QUIC for both dialing and listening.
type Options struct {
    ALPN               []string
    InsecureSkipVerify bool
    RootCAs            *x509.CertPool
    // Certificates are served by Listen; a self-signed one is generated when empty.
    Certificates []tls.Certificate

    HandshakeTimeout time.Duration
    MaxIdleTimeout   time.Duration
    KeepAlive        time.Duration
}

// Transport implements transport.Dialer over raw QUIC connections with
// datagrams enabled. Each transport stream maps to one QUIC stream.
type Transport struct {
    opts     Options
    quicConf *quicgo.Config
}

func New(opts Options) *Transport {
    if len(opts.ALPN) == 0 { opts.ALPN = []string{DefaultALPN} }
    qconf := &quicgo.Config{
        EnableDatagrams:      true,
        HandshakeIdleTimeout: opts.HandshakeTimeout,
        MaxIdleTimeout:       opts.MaxIdleTimeout,
        KeepAlivePeriod:      opts.KeepAlive,
    }
    return &Transport{opts: opts, quicConf: qconf}
}

func (t *Transport) Kind() transport.Kind { return transport.KindQUIC }

// Create validates a quic:// URL and prepares the client TLS config. The
// handshake runs in Ready.
func (t *Transport) Create(rawURL string) (transport.Session, error) {
    u, err := transport.ParseURL(rawURL, Scheme)
    if err != nil { return nil, err }
    tlsClient := &tls.Config{
        ServerName:         u.Hostname(),
        InsecureSkipVerify: t.opts.InsecureSkipVerify,
        RootCAs:            t.opts.RootCAs,
        NextProtos:         t.opts.ALPN,
        MinVersion:         tls.VersionTLS13,
    }
    return &session{
        url:      rawURL,
        addr:     transport.HostPort(u, DefaultPort),
        tlsConf:  tlsClient,
        quicConf: t.quicConf,
    }, nil
}

// Listen accepts QUIC connections on address and hands them out as ready sessions.
func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
    certs := t.opts.Certificates
    if len(certs) == 0 {
        cert, err := selfSignedCert()
        if err != nil { return nil, fmt.Errorf("quic: self-signed cert: %w", err) }
        certs = []tls.Certificate{cert}
    }
    tlsConf := &tls.Config{
        Certificates: certs,
        NextProtos:   t.opts.ALPN,
        MinVersion:   tls.VersionTLS13,
    }
    l, err := quicgo.ListenAddr(address, tlsConf, t.quicConf)
    if err != nil { return nil, err }
    ql := &listener{l: l}
    go func() { <-ctx.Done(); _ = ql.Close() }()
    return ql, nil
}

// ---- Listener ----

type listener struct {
    l *quicgo.Listener
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }
func (l *listener) Close() error   { return l.l.Close() }

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
    conn, err := l.l.Accept(ctx)
    if err != nil { return nil, err }
    return &session{url: "quic://" + conn.RemoteAddr().String(), conn: conn}, nil
}

// ---- Session ----

type session struct {
    url      string
    addr     string
    tlsConf  *tls.Config
    quicConf *quicgo.Config

    mu   sync.Mutex
    conn quicgo.Connection
}

func (s *session) Kind() transport.Kind { return transport.KindQUIC }
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
    if s.conn != nil { return nil }
    c, err := quicgo.DialAddr(ctx, s.addr, s.tlsConf, s.quicConf)
    if err != nil { return err }
    if !c.ConnectionState().SupportsDatagrams {
        _ = c.CloseWithError(0, "datagrams not supported")
        return errors.New("quic: peer does not support datagrams")
    }
    s.conn = c
    return nil
}

func (s *session) c() (quicgo.Connection, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.conn == nil { return nil, transport.ErrNotReady }
    return s.conn, nil
}

// wrap maps errors observed after the connection died to ErrSessionClosed.
func (s *session) wrap(err error) error {
    if err == nil || err == io.EOF { return err }
    c, cerr := s.c()
    if cerr == nil && c.Context().Err() != nil { return transport.Closed(err) }
    return err
}

func (s *session) Closed(ctx context.Context) (transport.CloseOutcome, error) {
    c, err := s.c()
    if err != nil { return transport.CloseOutcome{}, err }
    select {
    case <-c.Context().Done():
        return outcome(context.Cause(c.Context())), nil
    case <-ctx.Done():
        return transport.CloseOutcome{}, ctx.Err()
    }
}

func outcome(cause error) transport.CloseOutcome {
    var appErr *quicgo.ApplicationError
    if errors.As(cause, &appErr) {
        if appErr.ErrorCode == 0 { return transport.Normal() }
        return transport.Abrupt(appErr)
    }
    if cause == nil || errors.Is(cause, context.Canceled) { return transport.Normal() }
    return transport.Abrupt(cause)
}

func (s *session) CloseWithError(code transport.ErrorCode, msg string) error {
    c, err := s.c()
    if err != nil { return nil }
    return c.CloseWithError(quicgo.ApplicationErrorCode(code), msg)
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
    return wrapStream(st, s), nil
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
    return wrapStream(st, s), nil
}

// ---- Streams ----

type sendStream struct {
    s      quicgo.SendStream
    parent *session
}

func (st *sendStream) Write(b []byte) (int, error) {
    n, err := st.s.Write(b)
    return n, st.parent.wrap(err)
}

// Close finishes the send direction only.
func (st *sendStream) Close() error { return st.parent.wrap(st.s.Close()) }

func (st *sendStream) CancelWrite(code transport.ErrorCode) {
    st.s.CancelWrite(quicgo.StreamErrorCode(code))
}

type recvStream struct {
    s      quicgo.ReceiveStream
    parent *session
}

func (st *recvStream) Read(b []byte) (int, error) {
    n, err := st.s.Read(b)
    return n, st.parent.wrap(err)
}

func (st *recvStream) CancelRead(code transport.ErrorCode) {
    st.s.CancelRead(quicgo.StreamErrorCode(code))
}

type stream struct {
    *sendStream
    *recvStream
}

func wrapStream(st quicgo.Stream, parent *session) *stream {
    return &stream{
        sendStream: &sendStream{s: st, parent: parent},
        recvStream: &recvStream{s: st, parent: parent},
    }
}

var (
    _ transport.Dialer  = (*Transport)(nil)
    _ transport.Session = (*session)(nil)
    _ transport.Stream  = (*stream)(nil)
)
