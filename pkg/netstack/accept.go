package netstack

import (
    "context"

    "go.uber.org/zap"

    "wtclient/pkg/config"
    "wtclient/pkg/transport"
    tquic "wtclient/pkg/transport/quic"
)

// ListenQUIC starts a raw QUIC listener on tc.Listen.
func ListenQUIC(ctx context.Context, tc config.TransportConfig) (transport.Listener, error) {
    opts, err := QUICOptions(tc)
    if err != nil { return nil, err }
    l, err := tquic.New(opts).Listen(ctx, tc.Listen)
    if err != nil { return nil, err }
    zap.L().Info("listening", zap.String("kind", transport.KindQUIC.String()), zap.String("addr", l.Addr().String()))
    return l, nil
}

// AcceptLoop hands every accepted session to handle on its own goroutine
// until ctx ends or the listener fails.
func AcceptLoop(ctx context.Context, l transport.Listener, handle func(context.Context, transport.Session)) {
    for {
        s, err := l.Accept(ctx)
        if err != nil {
            select {
            case <-ctx.Done():
                return
            default:
            }
            zap.L().Warn("accept failed", zap.String("addr", l.Addr().String()), zap.Error(err))
            return
        }
        zap.L().Info("inbound session", zap.String("kind", s.Kind().String()), zap.Any("raddr", s.RemoteAddr()))
        go handle(ctx, s)
    }
}
