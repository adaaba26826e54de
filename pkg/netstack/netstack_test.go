package netstack

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "wtclient/pkg/config"
    "wtclient/pkg/transport"
    "wtclient/pkg/transport/mem"
)

func TestFromConfigSchemes(t *testing.T) {
    r, err := FromConfig(config.TransportConfig{InsecureSkipVerify: true})
    if err != nil { t.Fatalf("from config: %v", err) }
    defer r.Close()
    if got := strings.Join(r.Schemes(), ","); got != "https,quic" {
        t.Fatalf("schemes = %s", got)
    }
    for _, u := range []string{"quic://localhost:4433", "https://localhost:4433/wt"} {
        s, err := r.Create(u)
        if err != nil { t.Fatalf("create %s: %v", u, err) }
        if s.URL() != u { t.Fatalf("url = %s", s.URL()) }
    }
}

func TestRouterUnknownScheme(t *testing.T) {
    r := NewRouter()
    _, err := r.Create("gopher://example.test")
    var unknown ErrUnknownScheme
    if !errors.As(err, &unknown) || !errors.Is(err, transport.ErrUnsupportedScheme) {
        t.Fatalf("err = %v", err)
    }
    if _, err := r.Create("not a url"); !errors.Is(err, transport.ErrInvalidURL) {
        t.Fatalf("err = %v", err)
    }
}

func TestRouterDispatchesMem(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    n := mem.New()
    l, err := n.Listen(ctx, "peer")
    if err != nil { t.Fatalf("listen: %v", err) }
    defer l.Close()

    r := NewRouter()
    r.Register("MEM", n)
    s, err := r.Create("mem://peer")
    if err != nil { t.Fatalf("create: %v", err) }
    if err := s.Ready(ctx); err != nil { t.Fatalf("ready: %v", err) }
    if s.Kind() != transport.KindMem { t.Fatalf("kind = %v", s.Kind()) }
}

func TestNewByScheme(t *testing.T) {
    for _, scheme := range []string{"quic", "https", "mem"} {
        if _, err := NewByScheme(scheme, config.TransportConfig{}); err != nil {
            t.Fatalf("%s: %v", scheme, err)
        }
    }
    if _, err := NewByScheme("tcp", config.TransportConfig{}); err == nil {
        t.Fatalf("expected error for tcp")
    }
}

func TestQUICOptionsBadCAFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "ca.pem")
    if err := os.WriteFile(path, []byte("not a pem"), 0o644); err != nil { t.Fatalf("write: %v", err) }
    if _, err := QUICOptions(config.TransportConfig{CAFile: path}); err == nil {
        t.Fatalf("expected error for invalid ca file")
    }
    if _, err := QUICOptions(config.TransportConfig{CAFile: filepath.Join(t.TempDir(), "missing.pem")}); err == nil {
        t.Fatalf("expected error for missing ca file")
    }
    opts, err := QUICOptions(config.TransportConfig{HandshakeTimeoutMS: 1500, ALPN: []string{"x"}})
    if err != nil { t.Fatalf("options: %v", err) }
    if opts.HandshakeTimeout != 1500*time.Millisecond || opts.ALPN[0] != "x" {
        t.Fatalf("opts = %+v", opts)
    }
}
