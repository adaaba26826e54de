// Command wtecho is a raw QUIC echo peer for wtclient. It mirrors
// datagrams, answers unidirectional streams with a new unidirectional
// stream and echoes bidirectional streams in place.
package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"
    "github.com/spf13/viper"
    "go.uber.org/zap"

    "wtclient/pkg/config"
    "wtclient/pkg/echo"
    "wtclient/pkg/netstack"
    "wtclient/pkg/observability"
    "wtclient/pkg/transport"
)

func main() {
    if err := newRootCmd().Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "Error:", err)
        os.Exit(1)
    }
}

func newRootCmd() *cobra.Command {
    var configPath string
    v := viper.New()
    cmd := &cobra.Command{
        Use:           "wtecho",
        Short:         "QUIC echo peer for wtclient",
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE: func(cmd *cobra.Command, _ []string) error {
            return run(cmd.Context(), v, configPath)
        },
    }
    f := cmd.Flags()
    f.StringVar(&configPath, "config", "", "path to YAML config file")
    f.String("listen", "", "UDP address to listen on")
    f.String("cert", "", "PEM certificate (self-signed when empty)")
    f.String("key", "", "PEM private key")
    f.String("log-level", "", "log level: debug, info, warn, error")
    _ = v.BindPFlag("transport.listen", f.Lookup("listen"))
    _ = v.BindPFlag("transport.cert_file", f.Lookup("cert"))
    _ = v.BindPFlag("transport.key_file", f.Lookup("key"))
    _ = v.BindPFlag("log.level", f.Lookup("log-level"))
    return cmd
}

func run(ctx context.Context, v *viper.Viper, configPath string) error {
    if ctx == nil { ctx = context.Background() }
    ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    cfg, err := config.LoadWith(v, configPath)
    if err != nil { return fmt.Errorf("load config: %w", err) }
    logger, err := observability.SetupLogger(cfg.Log, "wtecho")
    if err != nil { return fmt.Errorf("setup logger: %w", err) }
    defer func() { _ = logger.Sync() }()

    l, err := netstack.ListenQUIC(ctx, cfg.Transport)
    if err != nil { return fmt.Errorf("listen: %w", err) }
    defer l.Close()

    netstack.AcceptLoop(ctx, l, func(ctx context.Context, s transport.Session) {
        if err := echo.Serve(ctx, s); err != nil {
            zap.L().Warn("echo session ended", zap.Error(err))
        }
    })
    zap.L().Info("wtecho stopped")
    return nil
}
