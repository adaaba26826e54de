package session

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "go.uber.org/zap"

    "wtclient/pkg/config"
    "wtclient/pkg/eventlog"
    "wtclient/pkg/transport"
)

const (
    DefaultReadChunkSize  = 1024
    DefaultMaxStreamBytes = 1 << 20

    // closeGrace bounds how long Close waits for the transport to report
    // closure before it cancels the tasks itself.
    closeGrace = 2 * time.Second
)

// Operation names attached to event log entries.
const (
    opConnect   = "connect"
    opSession   = "session"
    opDatagrams = "datagrams"
    opAccept    = "accept"
    opDrain     = "drain"
    opSend      = "send"
)

// State is the lifecycle of the manager's current session.
type State int

const (
    Idle State = iota
    Connecting
    Ready
    Closed
)

func (s State) String() string {
    switch s {
    case Connecting:
        return "connecting"
    case Ready:
        return "ready"
    case Closed:
        return "closed"
    default:
        return "idle"
    }
}

// Affordances receives enable/disable notifications for the UI's send and
// connect controls.
type Affordances interface {
    SetSendEnabled(bool)
    SetConnectEnabled(bool)
}

type noAffordances struct{}

func (noAffordances) SetSendEnabled(bool)    {}
func (noAffordances) SetConnectEnabled(bool) {}

// Options configures a Manager. Dialer is required.
type Options struct {
    Dialer      transport.Dialer
    Sink        eventlog.Sink
    Affordances Affordances
    // IDs is shared by every stream the manager labels; nil allocates one.
    IDs *IDAllocator

    // MaxStreamBytes caps how much one drained stream may buffer. Zero
    // means unbounded; negative selects DefaultMaxStreamBytes.
    MaxStreamBytes int64
    // ReadChunkSize is the read buffer size of a drain; <= 0 selects the default.
    ReadChunkSize int
    // ConnectTimeout bounds Ready; zero leaves it to the caller's context.
    ConnectTimeout time.Duration

    Logger *zap.Logger
}

// WithConfig copies the session settings of c into o.
func (o Options) WithConfig(c config.SessionConfig) Options {
    o.MaxStreamBytes = int64(c.MaxStreamBytes)
    o.ReadChunkSize = c.ReadChunkSize
    o.ConnectTimeout = time.Duration(c.ConnectTimeoutMS) * time.Millisecond
    return o
}

// Manager owns at most one live session at a time.
type Manager struct {
    dialer   transport.Dialer
    sink     eventlog.Sink
    aff      Affordances
    ids      *IDAllocator
    maxBytes int64
    chunk    int
    timeout  time.Duration
    log      *zap.Logger

    mu    sync.Mutex
    state State
    cur   *live
    // abort, connDone and closing track a Connect in progress. closing is
    // set by Close and keeps that Connect from publishing its session.
    abort    context.CancelFunc
    connDone chan struct{}
    closing  bool
}

// live is the handle and task set of one established session. The handle
// is written once, before any task starts.
type live struct {
    s      transport.Session
    ctx    context.Context
    cancel context.CancelFunc
    closed chan struct{}

    mu      sync.Mutex
    stopped bool
    wg      sync.WaitGroup
}

func New(opts Options) (*Manager, error) {
    if opts.Dialer == nil { return nil, errors.New("session: dialer is required") }
    m := &Manager{
        dialer:   opts.Dialer,
        sink:     opts.Sink,
        aff:      opts.Affordances,
        ids:      opts.IDs,
        maxBytes: opts.MaxStreamBytes,
        chunk:    opts.ReadChunkSize,
        timeout:  opts.ConnectTimeout,
        log:      opts.Logger,
    }
    if m.log == nil { m.log = zap.L() }
    m.log = m.log.Named("session")
    if m.sink == nil { m.sink = eventlog.NewZapSink(m.log) }
    if m.aff == nil { m.aff = noAffordances{} }
    if m.ids == nil { m.ids = NewIDAllocator() }
    if m.maxBytes < 0 { m.maxBytes = DefaultMaxStreamBytes }
    if m.chunk <= 0 { m.chunk = DefaultReadChunkSize }
    return m, nil
}

func (m *Manager) State() State {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.state
}

// Connect dials url and, once the session is ready, starts the closure
// watcher and both inbound loops. A second Connect while a session is
// connecting or ready fails with ErrAlreadyConnected; after the session
// closed, Connect may be called again.
func (m *Manager) Connect(ctx context.Context, url string) error {
    m.mu.Lock()
    if m.state == Connecting || m.state == Ready {
        m.mu.Unlock()
        m.errorf(opConnect, 0, "Already connected. Close the current session first.")
        return ErrAlreadyConnected
    }
    m.state = Connecting
    cctx, cancel := context.WithCancel(ctx)
    done := make(chan struct{})
    m.abort, m.connDone, m.closing = cancel, done, false
    m.mu.Unlock()
    defer close(done)
    defer cancel()

    s, err := m.dialer.Create(url)
    if err != nil {
        m.connectFailed()
        m.errorf(opConnect, 0, "Failed to create connection object. %v", err)
        return wrap(ErrCreateFailed, err)
    }

    m.infof(opConnect, 0, "Initiating connection...")
    if m.timeout > 0 {
        var tcancel context.CancelFunc
        cctx, tcancel = context.WithTimeout(cctx, m.timeout)
        defer tcancel()
    }
    taskCtx, taskCancel := context.WithCancel(context.Background())
    l := &live{s: s, ctx: taskCtx, cancel: taskCancel, closed: make(chan struct{})}
    err = s.Ready(cctx)
    if err == nil {
        m.mu.Lock()
        if m.closing {
            err = context.Canceled
        } else {
            m.cur, m.state, m.abort = l, Ready, nil
        }
        m.mu.Unlock()
    }
    if err != nil {
        taskCancel()
        _ = s.CloseWithError(transport.CodeCancelled, "handshake failed")
        m.connectFailed()
        m.errorf(opConnect, 0, "Connection failed. %v", err)
        return wrap(ErrHandshakeFailed, err)
    }
    m.infof(opConnect, 0, "Connection ready.")
    m.log.Debug("session ready", zap.String("url", url), zap.Stringer("kind", s.Kind()), zap.Any("remote", s.RemoteAddr()))

    m.aff.SetSendEnabled(true)
    m.aff.SetConnectEnabled(false)

    l.spawn(m, opSession, func() { m.watch(l) })
    l.spawn(m, opDatagrams, func() { m.receiveDatagrams(l) })
    l.spawn(m, opAccept, func() { m.acceptUniStreams(l) })
    return nil
}

// Close tears the current session down with a normal close, then waits for
// every task of that session to exit. Pending reads resolve with
// transport.ErrSessionClosed. A connect in progress is aborted and never
// publishes its session, even when its handshake completes concurrently.
func (m *Manager) Close() error {
    m.mu.Lock()
    l, abort, done := m.cur, m.abort, m.connDone
    if abort != nil { m.closing = true }
    m.mu.Unlock()
    if abort != nil {
        abort()
        select {
        case <-done:
        case <-time.After(closeGrace):
            m.log.Warn("connect did not observe abort in time", zap.Duration("grace", closeGrace))
        }
        return nil
    }
    if l == nil { return nil }

    err := l.s.CloseWithError(transport.CodeNoError, "")
    select {
    case <-l.closed:
    case <-time.After(closeGrace):
        m.log.Warn("transport did not report closure in time", zap.Duration("grace", closeGrace))
    }
    l.cancel()
    l.stop()
    m.mu.Lock()
    if m.cur == l { m.state = Closed }
    m.mu.Unlock()
    return err
}

// ready returns the live session or nil when the manager is not Ready.
func (m *Manager) ready() *live {
    m.mu.Lock()
    defer m.mu.Unlock()
    if m.state != Ready { return nil }
    return m.cur
}

func (m *Manager) connectFailed() {
    m.mu.Lock()
    m.state, m.abort, m.closing = Idle, nil, false
    m.mu.Unlock()
}

// watch waits for the session to close and reports how it ended.
func (m *Manager) watch(l *live) {
    defer close(l.closed)
    out, err := l.s.Closed(l.ctx)
    switch {
    case err != nil:
        m.log.Debug("closure watcher stopped", zap.Error(err))
    case out.Abrupt:
        m.errorf(opSession, 0, "Connection closed abruptly: %v", out.Cause)
    default:
        m.infof(opSession, 0, "Connection closed normally.")
    }
    l.cancel()

    m.mu.Lock()
    if m.cur == l { m.state = Closed }
    m.mu.Unlock()
    m.aff.SetSendEnabled(false)
    m.aff.SetConnectEnabled(true)
}

// spawn runs f as a task of l unless l was stopped. A panic in f is reported
// and contained to the task.
func (l *live) spawn(m *Manager, op string, f func()) bool {
    l.mu.Lock()
    defer l.mu.Unlock()
    if l.stopped { return false }
    l.wg.Add(1)
    go func() {
        defer l.wg.Done()
        defer func() {
            if r := recover(); r != nil {
                m.log.Error("task panicked", zap.String("op", op), zap.Any("panic", r), zap.Stack("stack"))
                m.errorf(op, 0, "Task %s failed: %v", op, r)
            }
        }()
        f()
    }()
    return true
}

// stop refuses new tasks and waits for running ones.
func (l *live) stop() {
    l.mu.Lock()
    l.stopped = true
    l.mu.Unlock()
    l.wg.Wait()
}

func (m *Manager) emit(sev eventlog.Severity, op string, id StreamID, format string, args ...any) {
    m.sink.Emit(eventlog.Entry{
        Time:     time.Now(),
        Severity: sev,
        Message:  fmt.Sprintf(format, args...),
        Op:       op,
        Stream:   uint32(id),
    })
}

func (m *Manager) infof(op string, id StreamID, format string, args ...any) {
    m.emit(eventlog.Info, op, id, format, args...)
}

func (m *Manager) errorf(op string, id StreamID, format string, args ...any) {
    m.emit(eventlog.Error, op, id, format, args...)
}
