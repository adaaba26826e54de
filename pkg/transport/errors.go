package transport

import (
    "errors"
    "fmt"
    "net"
    "net/url"
    "strings"
)

var (
    // ErrSessionClosed is returned by every pending or later operation on a
    // closed session, including reads on streams the session owned.
    ErrSessionClosed = errors.New("session closed")
    // ErrNotReady is returned by I/O attempted before Ready succeeded.
    ErrNotReady = errors.New("session not ready")
    // ErrInvalidURL reports a URL that cannot name an endpoint.
    ErrInvalidURL = errors.New("invalid url")
    // ErrUnsupportedScheme reports a URL scheme no dialer handles.
    ErrUnsupportedScheme = errors.New("unsupported scheme")
    // ErrStreamCancelled is observed by the other half of a cancelled stream.
    ErrStreamCancelled = errors.New("stream cancelled")
)

// Closed wraps err so that it matches ErrSessionClosed while keeping the
// underlying cause in the message.
func Closed(err error) error {
    if err == nil || errors.Is(err, ErrSessionClosed) {
        return err
    }
    return fmt.Errorf("%w: %v", ErrSessionClosed, err)
}

// ParseURL parses rawURL and checks that its scheme is one of schemes.
// An empty schemes list accepts any scheme.
func ParseURL(rawURL string, schemes ...string) (*url.URL, error) {
    if strings.TrimSpace(rawURL) == "" {
        return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
    }
    u, err := url.Parse(rawURL)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
    }
    if u.Scheme == "" || u.Host == "" {
        return nil, fmt.Errorf("%w: %q needs scheme and host", ErrInvalidURL, rawURL)
    }
    if len(schemes) == 0 {
        return u, nil
    }
    for _, s := range schemes {
        if strings.EqualFold(u.Scheme, s) {
            return u, nil
        }
    }
    return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// HostPort returns u's host with defPort appended when no port is present.
func HostPort(u *url.URL, defPort string) string {
    if u.Port() != "" {
        return u.Host
    }
    return net.JoinHostPort(u.Hostname(), defPort)
}
