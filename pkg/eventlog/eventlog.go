// Package eventlog is the append-only event sink the session core reports
// to. Entries are human-readable status lines with a severity; sinks must
// tolerate concurrent Emit calls from independent goroutines and order
// entries by arrival only.
package eventlog

import (
    "time"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// Severity of an entry.
type Severity int

const (
    Info Severity = iota
    Error
)

func (s Severity) String() string {
    if s == Error {
        return "error"
    }
    return "info"
}

// Class is the style class a renderer applies to the severity.
func (s Severity) Class() string { return "log-" + s.String() }

// Entry is one event log line. Op and Stream are optional context for
// diagnosing failures: the operation name and the local stream id (0 = none).
type Entry struct {
    Time     time.Time
    Severity Severity
    Message  string
    Op       string
    Stream   uint32
}

// Sink receives entries. Emit is fire-and-forget and must not block for long.
type Sink interface {
    Emit(Entry)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Entry)

func (f SinkFunc) Emit(e Entry) { f(e) }

// Discard drops every entry.
var Discard Sink = SinkFunc(func(Entry) {})

type tee []Sink

func (t tee) Emit(e Entry) {
    for _, s := range t {
        s.Emit(e)
    }
}

// Tee fans every entry out to all sinks in order. Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
    out := make(tee, 0, len(sinks))
    for _, s := range sinks {
        if s != nil {
            out = append(out, s)
        }
    }
    return out
}

type zapSink struct{ l *zap.Logger }

// NewZapSink mirrors entries to a zap logger; Error entries log at error
// level without stack traces.
func NewZapSink(l *zap.Logger) Sink {
    if l == nil {
        l = zap.L()
    }
    return zapSink{l: l.WithOptions(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.FatalLevel))}
}

func (z zapSink) Emit(e Entry) {
    fields := make([]zap.Field, 0, 2)
    if e.Op != "" {
        fields = append(fields, zap.String("op", e.Op))
    }
    if e.Stream != 0 {
        fields = append(fields, zap.Uint32("stream", e.Stream))
    }
    if e.Severity == Error {
        z.l.Error(e.Message, fields...)
        return
    }
    z.l.Info(e.Message, fields...)
}
