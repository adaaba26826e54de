package session

import (
    "fmt"
    "strings"
    "unicode/utf8"
)

// Selector picks the transport primitive used by one send.
type Selector int

const (
    Datagram Selector = iota + 1
    Unidirectional
    Bidirectional
)

func (s Selector) String() string {
    switch s {
    case Datagram:
        return "datagram"
    case Unidirectional:
        return "unidi"
    case Bidirectional:
        return "bidi"
    default:
        return fmt.Sprintf("selector(%d)", int(s))
    }
}

func (s Selector) valid() bool { return s >= Datagram && s <= Bidirectional }

// ParseSelector accepts the short names datagram, unidi and bidi as well as
// the long forms. Matching is case-insensitive.
func ParseSelector(v string) (Selector, error) {
    switch strings.ToLower(strings.TrimSpace(v)) {
    case "datagram", "dgram":
        return Datagram, nil
    case "unidi", "uni", "unidirectional":
        return Unidirectional, nil
    case "bidi", "bi", "bidirectional":
        return Bidirectional, nil
    }
    return 0, fmt.Errorf("%w: %q", ErrInvalidSelection, v)
}

// Payload is the data of one outbound send and the primitive to use.
type Payload struct {
    Selector Selector
    Data     []byte
}

// Text decodes b as UTF-8. Each maximal invalid subpart becomes one U+FFFD,
// so "a\xff\xfeb" decodes to two replacement characters and a truncated
// "\xe2\x82" to one.
func Text(b []byte) string {
    if utf8.Valid(b) { return string(b) }
    var sb strings.Builder
    sb.Grow(len(b) + 8)
    for i := 0; i < len(b); {
        r, size := utf8.DecodeRune(b[i:])
        if r != utf8.RuneError || size > 1 {
            sb.Write(b[i : i+size])
            i += size
            continue
        }
        sb.WriteRune(utf8.RuneError)
        i += invalidPrefix(b[i:])
    }
    return sb.String()
}

// invalidPrefix returns the length of the maximal subpart at the start of p:
// a lead byte plus the continuation bytes that could still have completed it.
func invalidPrefix(p []byte) int {
    lo, hi := byte(0x80), byte(0xBF)
    var need int
    switch c := p[0]; {
    case c >= 0xC2 && c <= 0xDF:
        need = 1
    case c == 0xE0:
        need, lo = 2, 0xA0
    case c == 0xED:
        need, hi = 2, 0x9F
    case c >= 0xE1 && c <= 0xEF:
        need = 2
    case c == 0xF0:
        need, lo = 3, 0x90
    case c >= 0xF1 && c <= 0xF3:
        need = 3
    case c == 0xF4:
        need, hi = 3, 0x8F
    default:
        return 1
    }
    n := 1
    for n <= need && n < len(p) {
        if p[n] < lo || p[n] > hi { break }
        n++
        lo, hi = 0x80, 0xBF
    }
    return n
}
