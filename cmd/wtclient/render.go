package main

import (
    "fmt"
    "io"
    "sync"

    "github.com/charmbracelet/lipgloss"

    "wtclient/pkg/eventlog"
)

var (
    timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
    infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
    errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
    stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Italic(true)
)

// terminal renders the event log and affordance changes to w.
type terminal struct {
    mu sync.Mutex
    w  io.Writer

    send    bool
    connect bool
}

func newTerminal(w io.Writer) *terminal { return &terminal{w: w, connect: true} }

func (t *terminal) Emit(e eventlog.Entry) {
    line := render(e)
    t.mu.Lock(); defer t.mu.Unlock()
    fmt.Fprintln(t.w, line)
}

func render(e eventlog.Entry) string {
    style := infoStyle
    if e.Severity == eventlog.Error { style = errorStyle }
    return timeStyle.Render(e.Time.Format("15:04:05.000")) + " " + style.Render(e.Message)
}

func (t *terminal) SetSendEnabled(v bool) {
    t.mu.Lock(); defer t.mu.Unlock()
    if t.send == v { return }
    t.send = v
    if v {
        fmt.Fprintln(t.w, stateStyle.Render("ready: <datagram|unidi|bidi> <payload>"))
    }
}

func (t *terminal) SetConnectEnabled(v bool) {
    t.mu.Lock(); defer t.mu.Unlock()
    t.connect = v
}

func (t *terminal) Printf(format string, args ...any) {
    t.mu.Lock(); defer t.mu.Unlock()
    fmt.Fprintln(t.w, stateStyle.Render(fmt.Sprintf(format, args...)))
}
