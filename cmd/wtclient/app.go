package main

import (
    "bufio"
    "context"
    "fmt"
    "io"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/spf13/viper"
    "go.uber.org/zap"

    "wtclient/pkg/codec"
    "wtclient/pkg/config"
    "wtclient/pkg/echo"
    "wtclient/pkg/eventlog"
    "wtclient/pkg/netstack"
    "wtclient/pkg/observability"
    "wtclient/pkg/session"
    "wtclient/pkg/transport"
    "wtclient/pkg/transport/mem"
)

const loopbackURL = "mem://echo"

// run is the main entry point after CLI parsing.
func run(ctx context.Context, v *viper.Viper, opts Options, in io.Reader, out io.Writer) error {
    if ctx == nil { ctx = context.Background() }
    ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    cfg, err := config.LoadWith(v, opts.ConfigPath)
    if err != nil { return fmt.Errorf("load config: %w", err) }

    logger, err := observability.SetupLogger(cfg.Log, cfg.AppName)
    if err != nil { return fmt.Errorf("setup logger: %w", err) }
    defer func() { _ = logger.Sync() }()
    zap.L().Debug("effective configuration", zap.Any("config", cfg))

    codecs, err := codec.NewRegistry()
    if err != nil { return err }
    exportCodec := codecs.Get(cfg.EventLog.ExportFormat)
    if exportCodec == nil { return fmt.Errorf("unknown export format %q", cfg.EventLog.ExportFormat) }

    router, err := netstack.FromConfig(cfg.Transport)
    if err != nil { return err }
    defer func() { _ = router.Close() }()

    url := cfg.URL
    if opts.Loopback {
        n := mem.New()
        l, err := n.Listen(ctx, "echo")
        if err != nil { return err }
        defer l.Close()
        go netstack.AcceptLoop(ctx, l, func(ctx context.Context, s transport.Session) { _ = echo.Serve(ctx, s) })
        router.Register(mem.Scheme, n)
        url = loopbackURL
    }

    term := newTerminal(out)
    rec := eventlog.NewRecorder(cfg.EventLog.Capacity)
    m, err := session.New(session.Options{
        Dialer:      router,
        Sink:        eventlog.Tee(rec, term, eventlog.NewZapSink(logger)),
        Affordances: term,
        Logger:      logger,
    }.WithConfig(cfg.Session))
    if err != nil { return err }

    defer func() {
        if cfg.EventLog.ExportPath == "" { return }
        if err := eventlog.ExportFile(cfg.EventLog.ExportPath, rec.Entries(), exportCodec); err != nil {
            zap.L().Error("export event log", zap.String("path", cfg.EventLog.ExportPath), zap.Error(err))
            return
        }
        zap.L().Info("event log exported", zap.String("path", cfg.EventLog.ExportPath), zap.String("format", exportCodec.Name()), zap.Uint64("dropped", rec.Dropped()))
    }()

    if err := m.Connect(ctx, url); err != nil { return err }
    defer func() { _ = m.Close() }()

    lines := make(chan string)
    go func() {
        defer close(lines)
        sc := bufio.NewScanner(in)
        for sc.Scan() {
            select {
            case lines <- sc.Text():
            case <-ctx.Done():
                return
            }
        }
    }()

    for {
        select {
        case <-ctx.Done():
            return nil
        case line, ok := <-lines:
            if !ok {
                linger(ctx, opts.Linger)
                return nil
            }
            if done := handleLine(ctx, m, term, line); done { return nil }
            if m.State() == session.Closed {
                term.Printf("session closed")
                return nil
            }
        }
    }
}

// handleLine runs one input line; it reports true when the user asked to quit.
func handleLine(ctx context.Context, m *session.Manager, term *terminal, line string) bool {
    line = strings.TrimSpace(line)
    switch line {
    case "":
        return false
    case "/quit":
        return true
    case "/state":
        term.Printf("state: %s", m.State())
        return false
    }
    sel, text := parseLine(line)
    // errors are already in the event log
    _ = m.SendText(ctx, sel, text)
    return false
}

// parseLine splits "<selector> <payload>"; the payload keeps inner spaces.
func parseLine(line string) (selector, payload string) {
    selector, payload, _ = strings.Cut(strings.TrimSpace(line), " ")
    return selector, payload
}

func linger(ctx context.Context, d time.Duration) {
    if d <= 0 { return }
    select {
    case <-ctx.Done():
    case <-time.After(d):
    }
}
