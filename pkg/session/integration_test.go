package session

import (
    "context"
    "testing"
    "time"

    "wtclient/pkg/echo"
    "wtclient/pkg/eventlog"
    "wtclient/pkg/transport"
    "wtclient/pkg/transport/mem"
)

func memEcho(t *testing.T) *mem.Network {
    t.Helper()
    ctx, cancel := context.WithCancel(context.Background())
    t.Cleanup(cancel)
    n := mem.New()
    l, err := n.Listen(ctx, "echo")
    if err != nil { t.Fatalf("listen: %v", err) }
    go func() {
        for {
            s, err := l.Accept(ctx)
            if err != nil { return }
            go func() { _ = echo.Serve(ctx, s) }()
        }
    }()
    return n
}

func TestMemEchoRoundTrips(t *testing.T) {
    m, rec := newTestManager(t, memEcho(t), nil)
    ctx := context.Background()
    if err := m.Connect(ctx, "mem://echo"); err != nil { t.Fatalf("connect: %v", err) }

    if err := m.SendText(ctx, "datagram", "hello"); err != nil { t.Fatalf("datagram: %v", err) }
    waitFor(t, rec, hasMessage("Datagram received: hello"))

    if err := m.SendText(ctx, "unidi", "abc"); err != nil { t.Fatalf("unidi: %v", err) }
    waitFor(t, rec, hasMessage("Data received: abc"))

    if err := m.SendText(ctx, "bidi", "xyz"); err != nil { t.Fatalf("bidi: %v", err) }
    entries := waitFor(t, rec, hasMessage("Data received: xyz"))

    // the echoed uni stream took id 1, the bidi stream id 2
    for _, msg := range []string{
        "New incoming unidirectional stream #1",
        "Stream #1 closed",
        "Opened bidirectional stream #2 with data: xyz",
        "Stream #2 closed",
    } {
        if indexOf(entries, msg) < 0 { t.Fatalf("missing %q in %q", msg, messages(entries)) }
    }
    if indexOf(entries, "Opened bidirectional stream #2 with data: xyz") > indexOf(entries, "Stream #2 closed") {
        t.Fatalf("send entry after drain entry: %q", messages(entries))
    }

    if err := m.Close(); err != nil { t.Fatalf("close: %v", err) }
    if n := countSeverity(rec.Entries(), eventlog.Error); n != 0 {
        t.Fatalf("unexpected errors: %q", messages(rec.Entries()))
    }
}

func TestCloseCancelsPendingDrain(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    n := mem.New()
    l, err := n.Listen(ctx, "stall")
    if err != nil { t.Fatalf("listen: %v", err) }

    // the peer opens a stream, writes a little and never finishes it
    go func() {
        s, err := l.Accept(ctx)
        if err != nil { return }
        w, err := s.OpenUniStream(ctx)
        if err != nil { return }
        _, _ = w.Write([]byte("part"))
        <-ctx.Done()
    }()

    m, rec := newTestManager(t, n, nil)
    if err := m.Connect(ctx, "mem://stall"); err != nil { t.Fatalf("connect: %v", err) }
    waitFor(t, rec, hasMessage("New incoming unidirectional stream #1"))

    done := make(chan error, 1)
    go func() { done <- m.Close() }()
    select {
    case err := <-done:
        if err != nil { t.Fatalf("close: %v", err) }
    case <-time.After(3 * time.Second):
        t.Fatalf("close did not return")
    }

    entries := rec.Entries()
    i := indexOf(entries, "Stream #1 cancelled: session closed")
    if i < 0 || entries[i].Severity != eventlog.Error {
        t.Fatalf("entries = %q", messages(entries))
    }
    if indexOf(entries, "Connection closed normally.") < 0 {
        t.Fatalf("missing close entry: %q", messages(entries))
    }
}

func TestRemoteAbruptClose(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    n := mem.New()
    l, err := n.Listen(ctx, "kick")
    if err != nil { t.Fatalf("listen: %v", err) }
    go func() {
        s, err := l.Accept(ctx)
        if err != nil { return }
        _ = s.CloseWithError(transport.CodeCancelled, "go away")
    }()

    m, rec := newTestManager(t, n, nil)
    if err := m.Connect(ctx, "mem://kick"); err != nil { t.Fatalf("connect: %v", err) }
    waitFor(t, rec, func(es []eventlog.Entry) bool { return countSeverity(es, eventlog.Error) == 1 })
    if m.State() != Closed {
        deadline := time.Now().Add(time.Second)
        for m.State() != Closed && time.Now().Before(deadline) { time.Sleep(5 * time.Millisecond) }
    }
    if m.State() != Closed { t.Fatalf("state = %v", m.State()) }
}
