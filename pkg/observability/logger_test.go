package observability

import (
    "os"
    "path/filepath"
    "strings"
    "testing"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "wtclient/pkg/config"
)

func TestSetupLoggerFileOutput(t *testing.T) {
    prev := zap.L()
    t.Cleanup(func() { zap.ReplaceGlobals(prev) })

    path := filepath.Join(t.TempDir(), "logs", "client.log")
    logger, err := SetupLogger(config.LogConfig{Level: "debug", Format: "json", Outputs: []string{path}}, "wtclient-test")
    if err != nil { t.Fatalf("setup: %v", err) }
    logger.Debug("hello file", zap.Int("n", 1))
    _ = logger.Sync()

    b, err := os.ReadFile(path)
    if err != nil { t.Fatalf("read log: %v", err) }
    out := string(b)
    if !strings.Contains(out, `"msg":"hello file"`) || !strings.Contains(out, `"app":"wtclient-test"`) {
        t.Fatalf("unexpected log output: %s", out)
    }
}

func TestSetupLoggerRotation(t *testing.T) {
    prev := zap.L()
    t.Cleanup(func() { zap.ReplaceGlobals(prev) })

    dir := t.TempDir()
    rotated := filepath.Join(dir, "rotated.log")
    c := config.LogConfig{
        Level:    "info",
        Outputs:  []string{filepath.Join(dir, "ignored.log")},
        Rotation: config.RotationConfig{Enable: true, Filename: rotated},
    }
    logger, err := SetupLogger(c, "")
    if err != nil { t.Fatalf("setup: %v", err) }
    logger.Info("rotating")
    _ = logger.Sync()
    if _, err := os.Stat(rotated); err != nil { t.Fatalf("expected rotated file: %v", err) }
}

func TestParseLevel(t *testing.T) {
    cases := map[string]zapcore.Level{
        "debug": zap.DebugLevel, "WARNING": zap.WarnLevel, "error": zap.ErrorLevel, "": zap.InfoLevel, "bogus": zap.InfoLevel,
    }
    for in, want := range cases {
        if got := ParseLevel(in); got != want {
            t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
        }
    }
}
