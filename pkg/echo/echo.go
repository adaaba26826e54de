// Package echo is the peer side used by wtecho and the integration tests.
// It mirrors every datagram, answers each unidirectional stream with a new
// unidirectional stream carrying the same bytes, and writes each
// bidirectional stream's data back on the same stream.
package echo

import (
    "context"
    "errors"
    "io"
    "sync"

    "go.uber.org/zap"

    "wtclient/pkg/transport"
)

// MaxStreamBytes bounds how much of one stream is echoed back.
const MaxStreamBytes = 1 << 20

// Serve echoes on s until the session closes or ctx ends. It returns nil
// when the session closed, otherwise the first loop error.
func Serve(ctx context.Context, s transport.Session) error {
    ctx, cancel := context.WithCancel(ctx)
    defer cancel()
    log := zap.L().Named("echo").With(zap.Any("remote", s.RemoteAddr()))

    var (
        wg      sync.WaitGroup
        errOnce sync.Once
        first   error
    )
    fail := func(err error) {
        if err == nil || errors.Is(err, transport.ErrSessionClosed) || errors.Is(err, context.Canceled) { return }
        errOnce.Do(func() { first = err; cancel() })
    }
    run := func(f func() error) {
        wg.Add(1)
        go func() { defer wg.Done(); fail(f()) }()
    }

    run(func() error {
        for {
            b, err := s.ReceiveDatagram(ctx)
            if err != nil { return err }
            log.Debug("datagram", zap.Int("bytes", len(b)))
            if err := s.SendDatagram(ctx, b); err != nil { return err }
        }
    })
    run(func() error {
        for {
            r, err := s.AcceptUniStream(ctx)
            if err != nil { return err }
            run(func() error { return quiet(replyUni(ctx, s, r, log), "uni", log) })
        }
    })
    run(func() error {
        for {
            st, err := s.AcceptStream(ctx)
            if err != nil { return err }
            run(func() error { return quiet(replyBidi(st, log), "bidi", log) })
        }
    })
    go func() {
        _, _ = s.Closed(ctx)
        cancel()
    }()

    wg.Wait()
    return first
}

// quiet keeps a single stream's failure from ending the whole session.
func quiet(err error, kind string, log *zap.Logger) error {
    if err != nil && !errors.Is(err, transport.ErrSessionClosed) {
        log.Warn("echo stream failed", zap.String("kind", kind), zap.Error(err))
    }
    return nil
}

func readAll(r transport.RecvStream) ([]byte, error) {
    b, err := io.ReadAll(io.LimitReader(r, MaxStreamBytes+1))
    if err != nil { return nil, err }
    if len(b) > MaxStreamBytes {
        r.CancelRead(transport.CodeTooLarge)
        return nil, errors.New("echo: stream too large")
    }
    return b, nil
}

func replyUni(ctx context.Context, s transport.Session, r transport.RecvStream, log *zap.Logger) error {
    b, err := readAll(r)
    if err != nil {
        log.Warn("read uni stream", zap.Error(err))
        return nil
    }
    w, err := s.OpenUniStream(ctx)
    if err != nil { return err }
    if _, err := w.Write(b); err != nil {
        w.CancelWrite(transport.CodeCancelled)
        return err
    }
    log.Debug("echoed uni stream", zap.Int("bytes", len(b)))
    return w.Close()
}

func replyBidi(st transport.Stream, log *zap.Logger) error {
    b, err := readAll(st)
    if err != nil {
        log.Warn("read bidi stream", zap.Error(err))
        st.CancelWrite(transport.CodeCancelled)
        return nil
    }
    if _, err := st.Write(b); err != nil {
        st.CancelWrite(transport.CodeCancelled)
        return err
    }
    log.Debug("echoed bidi stream", zap.Int("bytes", len(b)))
    return st.Close()
}
