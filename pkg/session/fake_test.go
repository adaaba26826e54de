package session

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "net"
    "sync"

    "wtclient/pkg/transport"
)

// fakeDialer hands out scripted sessions built by next.
type fakeDialer struct {
    createErr error
    next      func() *fakeSession

    mu       sync.Mutex
    sessions []*fakeSession
}

func (d *fakeDialer) Kind() transport.Kind { return transport.KindUnknown }

func (d *fakeDialer) Create(rawURL string) (transport.Session, error) {
    if d.createErr != nil { return nil, d.createErr }
    s := newFakeSession()
    if d.next != nil { s = d.next() }
    s.url = rawURL
    d.mu.Lock(); d.sessions = append(d.sessions, s); d.mu.Unlock()
    return s, nil
}

func (d *fakeDialer) last() *fakeSession {
    d.mu.Lock(); defer d.mu.Unlock()
    return d.sessions[len(d.sessions)-1]
}

// fakeSession records every primitive call in order.
type fakeSession struct {
    url       string
    readyErr  error
    readyFn   func(context.Context) error
    recvErr   error
    acceptErr error
    sendErr   error
    openErr   error
    writeErr  error
    loopback  bool
    bidiReply []byte

    dgrams chan []byte
    uni    chan transport.RecvStream
    done   chan struct{}
    once   sync.Once

    mu          sync.Mutex
    calls       []string
    outcome     transport.CloseOutcome
    recvCalls   int
    acceptCalls int
}

func newFakeSession() *fakeSession {
    return &fakeSession{
        dgrams: make(chan []byte, 16),
        uni:    make(chan transport.RecvStream, 16),
        done:   make(chan struct{}),
    }
}

func (s *fakeSession) record(format string, args ...any) {
    s.mu.Lock(); defer s.mu.Unlock()
    s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *fakeSession) Calls() []string {
    s.mu.Lock(); defer s.mu.Unlock()
    return append([]string(nil), s.calls...)
}

// finish resolves Closed with out and fails every pending operation.
func (s *fakeSession) finish(out transport.CloseOutcome) {
    s.once.Do(func() {
        s.mu.Lock(); s.outcome = out; s.mu.Unlock()
        close(s.done)
    })
}

func (s *fakeSession) Kind() transport.Kind  { return transport.KindUnknown }
func (s *fakeSession) URL() string           { return s.url }
func (s *fakeSession) LocalAddr() net.Addr   { return nil }
func (s *fakeSession) RemoteAddr() net.Addr  { return nil }
func (s *fakeSession) Ready(ctx context.Context) error {
    if s.readyFn != nil { return s.readyFn(ctx) }
    return s.readyErr
}

// loopCalls reports how often the inbound loops polled the session.
func (s *fakeSession) loopCalls() (recv, accept int) {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.recvCalls, s.acceptCalls
}

func (s *fakeSession) Closed(ctx context.Context) (transport.CloseOutcome, error) {
    select {
    case <-s.done:
        s.mu.Lock(); defer s.mu.Unlock()
        return s.outcome, nil
    case <-ctx.Done():
        return transport.CloseOutcome{}, ctx.Err()
    }
}

func (s *fakeSession) CloseWithError(code transport.ErrorCode, msg string) error {
    s.record("close_session:%d", code)
    if code == transport.CodeNoError {
        s.finish(transport.Normal())
    } else {
        s.finish(transport.Abrupt(errors.New(msg)))
    }
    return nil
}

func (s *fakeSession) SendDatagram(_ context.Context, b []byte) error {
    s.record("send_datagram:%s", b)
    if s.sendErr != nil { return s.sendErr }
    if s.loopback { s.dgrams <- append([]byte(nil), b...) }
    return nil
}

func (s *fakeSession) ReceiveDatagram(ctx context.Context) ([]byte, error) {
    s.mu.Lock(); s.recvCalls++; s.mu.Unlock()
    if s.recvErr != nil { return nil, s.recvErr }
    select {
    case b := <-s.dgrams:
        return b, nil
    case <-s.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (s *fakeSession) OpenUniStream(context.Context) (transport.SendStream, error) {
    s.record("open_uni")
    if s.openErr != nil { return nil, s.openErr }
    return &fakeSend{s: s}, nil
}

func (s *fakeSession) OpenStream(context.Context) (transport.Stream, error) {
    s.record("open_bidi")
    if s.openErr != nil { return nil, s.openErr }
    return &fakeStream{fakeSend: &fakeSend{s: s}, fakeRecv: newFakeRecv(s.bidiReply, nil)}, nil
}

func (s *fakeSession) AcceptUniStream(ctx context.Context) (transport.RecvStream, error) {
    s.mu.Lock(); s.acceptCalls++; s.mu.Unlock()
    if s.acceptErr != nil { return nil, s.acceptErr }
    select {
    case r := <-s.uni:
        return r, nil
    case <-s.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (s *fakeSession) AcceptStream(ctx context.Context) (transport.Stream, error) {
    select {
    case <-s.done:
        return nil, transport.ErrSessionClosed
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

type fakeSend struct{ s *fakeSession }

func (w *fakeSend) Write(b []byte) (int, error) {
    w.s.record("write:%s", b)
    if w.s.writeErr != nil { return 0, w.s.writeErr }
    return len(b), nil
}

func (w *fakeSend) Close() error                          { w.s.record("close_stream"); return nil }
func (w *fakeSend) CancelWrite(code transport.ErrorCode)  { w.s.record("cancel_write:%d", code) }

// fakeRecv yields data and then err, or io.EOF when err is nil.
type fakeRecv struct {
    r   *bytes.Reader
    err error

    mu        sync.Mutex
    cancelled []transport.ErrorCode
}

func newFakeRecv(data []byte, err error) *fakeRecv {
    return &fakeRecv{r: bytes.NewReader(data), err: err}
}

func (r *fakeRecv) Read(b []byte) (int, error) {
    n, err := r.r.Read(b)
    if err != nil && r.err != nil { return n, r.err }
    return n, err
}

func (r *fakeRecv) CancelRead(code transport.ErrorCode) {
    r.mu.Lock(); defer r.mu.Unlock()
    r.cancelled = append(r.cancelled, code)
}

type fakeStream struct {
    *fakeSend
    *fakeRecv
}

var (
    _ transport.Dialer  = (*fakeDialer)(nil)
    _ transport.Session = (*fakeSession)(nil)
    _ transport.Stream  = (*fakeStream)(nil)
)
