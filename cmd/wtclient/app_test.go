package main

import (
    "bytes"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "go.uber.org/zap"
)

func TestParseLine(t *testing.T) {
    cases := []struct{ in, sel, payload string }{
        {"datagram hello", "datagram", "hello"},
        {"  bidi hello world ", "bidi", "hello world"},
        {"unidi", "unidi", ""},
    }
    for _, c := range cases {
        sel, payload := parseLine(c.in)
        if sel != c.sel || payload != c.payload {
            t.Errorf("parseLine(%q) = %q, %q", c.in, sel, payload)
        }
    }
}

func TestRunLoopback(t *testing.T) {
    prev := zap.L()
    t.Cleanup(func() { zap.ReplaceGlobals(prev) })

    export := filepath.Join(t.TempDir(), "events.json")
    var out bytes.Buffer
    cmd := newRootCmd()
    cmd.SetIn(strings.NewReader("datagram hello\nbidi xyz\nmulticast nope\n/state\n"))
    cmd.SetOut(&out)
    cmd.SetArgs([]string{"--loopback", "--log-level", "error", "--export", export})
    if err := cmd.Execute(); err != nil { t.Fatalf("execute: %v", err) }

    text := out.String()
    for _, want := range []string{
        "Connection ready.",
        "Sent datagram: hello",
        "Opened bidirectional stream #1 with data: xyz",
        "Unexpected selection: multicast",
        "state: ready",
        "Connection closed normally.",
    } {
        if !strings.Contains(text, want) { t.Fatalf("output missing %q:\n%s", want, text) }
    }

    b, err := os.ReadFile(export)
    if err != nil { t.Fatalf("read export: %v", err) }
    var entries []map[string]any
    if err := json.Unmarshal(b, &entries); err != nil { t.Fatalf("decode export: %v", err) }
    if len(entries) == 0 || entries[0]["message"] != "Initiating connection..." {
        t.Fatalf("unexpected export: %s", b)
    }
}

func TestRunConnectFailure(t *testing.T) {
    prev := zap.L()
    t.Cleanup(func() { zap.ReplaceGlobals(prev) })

    var out bytes.Buffer
    cmd := newRootCmd()
    cmd.SetIn(strings.NewReader(""))
    cmd.SetOut(&out)
    cmd.SetArgs([]string{"--log-level", "error", "gopher://example.test"})
    if err := cmd.Execute(); err == nil { t.Fatalf("expected connect error") }
    if !strings.Contains(out.String(), "Failed to create connection object.") {
        t.Fatalf("output = %s", out.String())
    }
}
