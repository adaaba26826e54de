package mem

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net"
    "sync"

    "wtclient/pkg/transport"
)

const (
    // Scheme is the URL scheme served by Network, e.g. mem://echo.
    Scheme = "mem"

    datagramQueue = 64
    acceptQueue   = 16
)

// CloseError is the cause reported when a session is closed with a non-zero code.
type CloseError struct {
    Code    transport.ErrorCode
    Message string
}

func (e *CloseError) Error() string {
    return fmt.Sprintf("mem: closed with code %d: %s", e.Code, e.Message)
}

// Network is an in-process transport built on io.Pipe. Useful for tests and
// local demos: peers Listen on a name and clients dial mem://<name>.
type Network struct {
    mu        sync.Mutex
    listeners map[string]*listener
}

func New() *Network { return &Network{listeners: make(map[string]*listener)} }

func (n *Network) Kind() transport.Kind { return transport.KindMem }

func (n *Network) Listen(ctx context.Context, name string) (transport.Listener, error) {
    n.mu.Lock(); defer n.mu.Unlock()
    if _, ok := n.listeners[name]; ok {
        return nil, errors.New("mem: listener already exists")
    }
    l := &listener{name: name, newCh: make(chan *session, 8), closeCh: make(chan struct{})}
    l.onClose = func() { n.mu.Lock(); delete(n.listeners, name); n.mu.Unlock() }
    n.listeners[name] = l
    go func() {
        select {
        case <-ctx.Done():
            _ = l.Close()
        case <-l.closeCh:
        }
    }()
    return l, nil
}

// Create validates a mem:// URL. The listener is looked up in Ready.
func (n *Network) Create(rawURL string) (transport.Session, error) {
    u, err := transport.ParseURL(rawURL, Scheme)
    if err != nil { return nil, err }
    return &session{network: n, url: rawURL, name: u.Host, in: newInbox()}, nil
}

type listener struct {
    name    string
    newCh   chan *session
    closeCh chan struct{}
    once    sync.Once
    onClose func()
}

func (l *listener) Addr() net.Addr { return memAddr(l.name) }

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, errors.New("mem listener closed")
    case s := <-l.newCh:
        return s, nil
    }
}

func (l *listener) Close() error {
    l.once.Do(func() {
        close(l.closeCh)
        if l.onClose != nil { l.onClose() }
    })
    return nil
}

type memAddr string
func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

// link is the state shared by both ends of a connected pair.
type link struct {
    mu      sync.Mutex
    done    chan struct{}
    outcome transport.CloseOutcome
    pipes   []interface{ CloseWithError(error) error }
}

func newLink() *link { return &link{done: make(chan struct{})} }

func (k *link) closed() bool {
    select {
    case <-k.done:
        return true
    default:
        return false
    }
}

// track registers pipe writers that must fail once the link closes. Closing
// the writer unblocks both ends; a writer already closed keeps its io.EOF.
func (k *link) track(p ...interface{ CloseWithError(error) error }) bool {
    k.mu.Lock(); defer k.mu.Unlock()
    if k.closed() { return false }
    k.pipes = append(k.pipes, p...)
    return true
}

func (k *link) close(code transport.ErrorCode, msg string) {
    k.mu.Lock(); defer k.mu.Unlock()
    if k.closed() { return }
    if code == transport.CodeNoError {
        k.outcome = transport.Normal()
    } else {
        k.outcome = transport.Abrupt(&CloseError{Code: code, Message: msg})
    }
    close(k.done)
    for _, p := range k.pipes { _ = p.CloseWithError(transport.ErrSessionClosed) }
    k.pipes = nil
}

type inbox struct {
    dgrams chan []byte
    uni    chan *recvHalf
    bi     chan *stream
}

func newInbox() *inbox {
    return &inbox{
        dgrams: make(chan []byte, datagramQueue),
        uni:    make(chan *recvHalf, acceptQueue),
        bi:     make(chan *stream, acceptQueue),
    }
}

type session struct {
    network *Network
    url     string
    name    string
    in      *inbox

    mu   sync.Mutex
    peer *session
    lk   *link
}

func (s *session) Kind() transport.Kind { return transport.KindMem }
func (s *session) URL() string          { return s.url }
func (s *session) LocalAddr() net.Addr  { return memAddr("client:" + s.name) }
func (s *session) RemoteAddr() net.Addr { return memAddr(s.name) }

func (s *session) Ready(ctx context.Context) error {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.lk != nil { return nil }
    if s.network == nil { return errors.New("mem: session has no network") }
    s.network.mu.Lock(); l := s.network.listeners[s.name]; s.network.mu.Unlock()
    if l == nil { return fmt.Errorf("mem: no listener %q", s.name) }

    lk := newLink()
    srv := &session{url: s.url, name: s.name, in: newInbox(), peer: s, lk: lk}
    select {
    case l.newCh <- srv:
    case <-l.closeCh:
        return errors.New("mem listener closed")
    case <-ctx.Done():
        return ctx.Err()
    }
    s.peer, s.lk = srv, lk
    return nil
}

func (s *session) state() (*session, *link, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.lk == nil { return nil, nil, transport.ErrNotReady }
    if s.lk.closed() { return nil, nil, transport.ErrSessionClosed }
    return s.peer, s.lk, nil
}

func (s *session) Closed(ctx context.Context) (transport.CloseOutcome, error) {
    s.mu.Lock(); lk := s.lk; s.mu.Unlock()
    if lk == nil { return transport.CloseOutcome{}, transport.ErrNotReady }
    select {
    case <-lk.done:
        lk.mu.Lock(); defer lk.mu.Unlock()
        return lk.outcome, nil
    case <-ctx.Done():
        return transport.CloseOutcome{}, ctx.Err()
    }
}

func (s *session) CloseWithError(code transport.ErrorCode, msg string) error {
    s.mu.Lock(); lk := s.lk; s.mu.Unlock()
    if lk != nil { lk.close(code, msg) }
    return nil
}

// SendDatagram never blocks: a full peer queue drops the datagram.
func (s *session) SendDatagram(_ context.Context, b []byte) error {
    peer, _, err := s.state()
    if err != nil { return err }
    select {
    case peer.in.dgrams <- append([]byte(nil), b...):
    default:
    }
    return nil
}

func (s *session) ReceiveDatagram(ctx context.Context) ([]byte, error) {
    _, lk, err := s.state()
    if err != nil { return nil, err }
    select {
    case <-lk.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    case b := <-s.in.dgrams:
        return b, nil
    }
}

func (s *session) OpenUniStream(ctx context.Context) (transport.SendStream, error) {
    peer, lk, err := s.state()
    if err != nil { return nil, err }
    pr, pw := io.Pipe()
    if !lk.track(pw) { return nil, transport.ErrSessionClosed }
    select {
    case peer.in.uni <- &recvHalf{r: pr, lk: lk}:
        return &sendHalf{w: pw, lk: lk}, nil
    case <-lk.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
    peer, lk, err := s.state()
    if err != nil { return nil, err }
    outR, outW := io.Pipe()
    inR, inW := io.Pipe()
    if !lk.track(outW, inW) { return nil, transport.ErrSessionClosed }
    local := &stream{sendHalf: &sendHalf{w: outW, lk: lk}, recvHalf: &recvHalf{r: inR, lk: lk}}
    remote := &stream{sendHalf: &sendHalf{w: inW, lk: lk}, recvHalf: &recvHalf{r: outR, lk: lk}}
    select {
    case peer.in.bi <- remote:
        return local, nil
    case <-lk.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (s *session) AcceptUniStream(ctx context.Context) (transport.RecvStream, error) {
    _, lk, err := s.state()
    if err != nil { return nil, err }
    select {
    case <-lk.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    case r := <-s.in.uni:
        return r, nil
    }
}

func (s *session) AcceptStream(ctx context.Context) (transport.Stream, error) {
    _, lk, err := s.state()
    if err != nil { return nil, err }
    select {
    case <-lk.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    case st := <-s.in.bi:
        return st, nil
    }
}

type sendHalf struct {
    w  *io.PipeWriter
    lk *link
}

func (h *sendHalf) Write(b []byte) (int, error) {
    n, err := h.w.Write(b)
    if err != nil && h.lk.closed() { err = transport.Closed(err) }
    return n, err
}

func (h *sendHalf) Close() error {
    if h.lk.closed() { return transport.ErrSessionClosed }
    return h.w.Close()
}

func (h *sendHalf) CancelWrite(code transport.ErrorCode) {
    _ = h.w.CloseWithError(fmt.Errorf("%w: code %d", transport.ErrStreamCancelled, code))
}

type recvHalf struct {
    r  *io.PipeReader
    lk *link
}

func (h *recvHalf) Read(b []byte) (int, error) {
    n, err := h.r.Read(b)
    if err != nil && err != io.EOF && h.lk.closed() { err = transport.Closed(err) }
    return n, err
}

func (h *recvHalf) CancelRead(code transport.ErrorCode) {
    _ = h.r.CloseWithError(fmt.Errorf("%w: code %d", transport.ErrStreamCancelled, code))
}

type stream struct {
    *sendHalf
    *recvHalf
}

var (
    _ transport.Dialer  = (*Network)(nil)
    _ transport.Session = (*session)(nil)
    _ transport.Stream  = (*stream)(nil)
)
