package mem

import (
    "context"
    "errors"
    "io"
    "testing"
    "time"

    "wtclient/pkg/transport"
)

func pair(t *testing.T) (client, server transport.Session) {
    t.Helper()
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    t.Cleanup(cancel)

    n := New()
    l, err := n.Listen(ctx, "peer")
    if err != nil { t.Fatalf("listen: %v", err) }
    t.Cleanup(func() { _ = l.Close() })

    c, err := n.Create("mem://peer")
    if err != nil { t.Fatalf("create: %v", err) }
    if err := c.Ready(ctx); err != nil { t.Fatalf("ready: %v", err) }
    s, err := l.Accept(ctx)
    if err != nil { t.Fatalf("accept: %v", err) }
    return c, s
}

func TestCreateRejectsBadURL(t *testing.T) {
    n := New()
    if _, err := n.Create("quic://peer"); !errors.Is(err, transport.ErrUnsupportedScheme) {
        t.Fatalf("err = %v", err)
    }
    if _, err := n.Create(""); !errors.Is(err, transport.ErrInvalidURL) {
        t.Fatalf("err = %v", err)
    }
}

func TestReadyWithoutListener(t *testing.T) {
    s, err := New().Create("mem://nobody")
    if err != nil { t.Fatalf("create: %v", err) }
    if err := s.Ready(context.Background()); err == nil {
        t.Fatalf("expected ready to fail")
    }
    if _, err := s.ReceiveDatagram(context.Background()); !errors.Is(err, transport.ErrNotReady) {
        t.Fatalf("err = %v", err)
    }
}

func TestDatagramsAndStreams(t *testing.T) {
    c, s := pair(t)
    ctx := context.Background()

    if err := c.SendDatagram(ctx, []byte("ping")); err != nil { t.Fatalf("send: %v", err) }
    b, err := s.ReceiveDatagram(ctx)
    if err != nil || string(b) != "ping" { t.Fatalf("receive = %q, %v", b, err) }

    w, err := c.OpenUniStream(ctx)
    if err != nil { t.Fatalf("open uni: %v", err) }
    r, err := s.AcceptUniStream(ctx)
    if err != nil { t.Fatalf("accept uni: %v", err) }
    go func() { _, _ = w.Write([]byte("abc")); _ = w.Close() }()
    got, err := io.ReadAll(r)
    if err != nil || string(got) != "abc" { t.Fatalf("uni = %q, %v", got, err) }

    st, err := c.OpenStream(ctx)
    if err != nil { t.Fatalf("open bidi: %v", err) }
    peer, err := s.AcceptStream(ctx)
    if err != nil { t.Fatalf("accept bidi: %v", err) }
    go func() {
        in, _ := io.ReadAll(peer)
        _, _ = peer.Write(append(in, '!'))
        _ = peer.Close()
    }()
    if _, err := st.Write([]byte("hi")); err != nil { t.Fatalf("write: %v", err) }
    if err := st.Close(); err != nil { t.Fatalf("close: %v", err) }
    reply, err := io.ReadAll(st)
    if err != nil || string(reply) != "hi!" { t.Fatalf("reply = %q, %v", reply, err) }
}

func TestCloseResolvesPendingReads(t *testing.T) {
    c, s := pair(t)
    ctx := context.Background()

    w, err := s.OpenUniStream(ctx)
    if err != nil { t.Fatalf("open: %v", err) }
    r, err := c.AcceptUniStream(ctx)
    if err != nil { t.Fatalf("accept: %v", err) }
    _ = w

    readErr := make(chan error, 1)
    go func() { _, err := r.Read(make([]byte, 8)); readErr <- err }()
    dgramErr := make(chan error, 1)
    go func() { _, err := c.ReceiveDatagram(ctx); dgramErr <- err }()

    if err := c.CloseWithError(transport.CodeNoError, ""); err != nil { t.Fatalf("close: %v", err) }
    for _, ch := range []chan error{readErr, dgramErr} {
        select {
        case err := <-ch:
            if !errors.Is(err, transport.ErrSessionClosed) { t.Fatalf("err = %v", err) }
        case <-time.After(2 * time.Second):
            t.Fatalf("pending operation not resolved")
        }
    }

    out, err := s.Closed(ctx)
    if err != nil || out.Abrupt { t.Fatalf("server outcome = %v, %v", out, err) }
}

func TestAbruptOutcome(t *testing.T) {
    c, s := pair(t)
    _ = s.CloseWithError(7, "bye")
    out, err := c.Closed(context.Background())
    if err != nil || !out.Abrupt { t.Fatalf("outcome = %v, %v", out, err) }
    var ce *CloseError
    if !errors.As(out.Cause, &ce) || ce.Code != 7 || ce.Message != "bye" {
        t.Fatalf("cause = %v", out.Cause)
    }
}
