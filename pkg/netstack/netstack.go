// Package netstack builds the transport dialers and listeners named by
// configuration and routes session URLs to them by scheme.
package netstack

import (
    "crypto/x509"
    "errors"
    "fmt"
    "io"
    "os"
    "sort"
    "strings"
    "sync"
    "time"

    "go.uber.org/zap"

    "wtclient/pkg/config"
    "wtclient/pkg/transport"
    "wtclient/pkg/transport/mem"
    tquic "wtclient/pkg/transport/quic"
    "wtclient/pkg/transport/webtransport"
)

// ErrUnknownScheme reports a URL scheme with no registered dialer. It
// matches transport.ErrUnsupportedScheme.
type ErrUnknownScheme string

func (e ErrUnknownScheme) Error() string { return "unknown transport scheme: " + string(e) }
func (e ErrUnknownScheme) Unwrap() error { return transport.ErrUnsupportedScheme }

// Router is a transport.Dialer that hands each URL to the dialer
// registered for its scheme.
type Router struct {
    mu       sync.RWMutex
    byScheme map[string]transport.Dialer
}

func NewRouter() *Router { return &Router{byScheme: make(map[string]transport.Dialer)} }

// Register binds scheme to d, replacing any previous binding.
func (r *Router) Register(scheme string, d transport.Dialer) {
    r.mu.Lock(); defer r.mu.Unlock()
    r.byScheme[strings.ToLower(scheme)] = d
}

func (r *Router) Kind() transport.Kind { return transport.KindUnknown }

func (r *Router) Create(rawURL string) (transport.Session, error) {
    u, err := transport.ParseURL(rawURL)
    if err != nil { return nil, err }
    scheme := strings.ToLower(u.Scheme)
    r.mu.RLock(); d := r.byScheme[scheme]; r.mu.RUnlock()
    if d == nil { return nil, ErrUnknownScheme(scheme) }
    return d.Create(rawURL)
}

// Schemes lists the registered schemes in order.
func (r *Router) Schemes() []string {
    r.mu.RLock(); defer r.mu.RUnlock()
    out := make([]string, 0, len(r.byScheme))
    for s := range r.byScheme { out = append(out, s) }
    sort.Strings(out)
    return out
}

// Close closes every registered dialer that holds resources.
func (r *Router) Close() error {
    r.mu.Lock(); defer r.mu.Unlock()
    var errs []error
    for s, d := range r.byScheme {
        if c, ok := d.(io.Closer); ok {
            if err := c.Close(); err != nil { errs = append(errs, fmt.Errorf("%s: %w", s, err)) }
        }
    }
    return errors.Join(errs...)
}

// NewByScheme constructs the dialer for one scheme.
func NewByScheme(scheme string, tc config.TransportConfig) (transport.Dialer, error) {
    switch strings.ToLower(scheme) {
    case tquic.Scheme:
        opts, err := QUICOptions(tc)
        if err != nil { return nil, err }
        return tquic.New(opts), nil
    case webtransport.Scheme:
        opts, err := WebTransportOptions(tc)
        if err != nil { return nil, err }
        return webtransport.New(opts), nil
    case mem.Scheme:
        return mem.New(), nil
    default:
        return nil, ErrUnknownScheme(scheme)
    }
}

// FromConfig returns a router serving quic:// and https:// (WebTransport).
func FromConfig(tc config.TransportConfig) (*Router, error) {
    r := NewRouter()
    for _, scheme := range []string{tquic.Scheme, webtransport.Scheme} {
        d, err := NewByScheme(scheme, tc)
        if err != nil { return nil, fmt.Errorf("%s transport: %w", scheme, err) }
        r.Register(scheme, d)
        zap.L().Debug("transport registered", zap.String("scheme", scheme), zap.Stringer("kind", d.Kind()))
    }
    return r, nil
}

// QUICOptions maps transport config to raw QUIC options, loading the CA
// bundle and the listener certificate when configured.
func QUICOptions(tc config.TransportConfig) (tquic.Options, error) {
    pool, err := loadCAs(tc.CAFile)
    if err != nil { return tquic.Options{}, err }
    certs, err := tquic.LoadCertificates(tc.CertFile, tc.KeyFile)
    if err != nil { return tquic.Options{}, fmt.Errorf("load certificate: %w", err) }
    return tquic.Options{
        ALPN:               tc.ALPN,
        InsecureSkipVerify: tc.InsecureSkipVerify,
        RootCAs:            pool,
        Certificates:       certs,
        HandshakeTimeout:   ms(tc.HandshakeTimeoutMS),
        MaxIdleTimeout:     ms(tc.MaxIdleTimeoutMS),
        KeepAlive:          ms(tc.KeepAliveMS),
    }, nil
}

func WebTransportOptions(tc config.TransportConfig) (webtransport.Options, error) {
    pool, err := loadCAs(tc.CAFile)
    if err != nil { return webtransport.Options{}, err }
    return webtransport.Options{
        InsecureSkipVerify: tc.InsecureSkipVerify,
        RootCAs:            pool,
        HandshakeTimeout:   ms(tc.HandshakeTimeoutMS),
        MaxIdleTimeout:     ms(tc.MaxIdleTimeoutMS),
        KeepAlive:          ms(tc.KeepAliveMS),
    }, nil
}

func loadCAs(path string) (*x509.CertPool, error) {
    if path == "" { return nil, nil }
    pem, err := os.ReadFile(path)
    if err != nil { return nil, fmt.Errorf("read ca file: %w", err) }
    pool := x509.NewCertPool()
    if !pool.AppendCertsFromPEM(pem) { return nil, fmt.Errorf("ca file %q: no certificates", path) }
    return pool, nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
