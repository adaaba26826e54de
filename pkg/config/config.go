// Package config provides YAML-based configuration loading for wtclient.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name used in logs
    AppName string `mapstructure:"app_name"`

    // URL is the endpoint dialed on connect: quic://, https:// or mem://
    URL string `mapstructure:"url"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    Transport TransportConfig `mapstructure:"transport"`
    Session   SessionConfig   `mapstructure:"session"`
    EventLog  EventLogConfig  `mapstructure:"eventlog"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "wtclient",
        URL:     "quic://localhost:4433",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stderr"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/wtclient.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Transport: TransportConfig{
            ALPN:               []string{"wtclient"},
            Listen:             "localhost:4433",
            HandshakeTimeoutMS: 10000,
            MaxIdleTimeoutMS:   30000,
        },
        Session: SessionConfig{
            MaxStreamBytes:   1 << 20,
            ReadChunkSize:    1024,
            ConnectTimeoutMS: 15000,
        },
        EventLog: EventLogConfig{Capacity: 1000, ExportFormat: "json"},
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix WTCLIENT and `.`/`-` are replaced with `_`.
// Example: WTCLIENT_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
    v := viper.New()
    return LoadWith(v, path)
}

// LoadWith is Load on a caller-provided viper instance, so CLI flags bound
// with v.BindPFlag take precedence over file and env values.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
    cfg := Default()

    v.SetConfigType("yaml")
    v.SetEnvPrefix("WTCLIENT")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("url", cfg.URL)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    // Transport defaults
    v.SetDefault("transport.insecure_skip_verify", cfg.Transport.InsecureSkipVerify)
    v.SetDefault("transport.ca_file", cfg.Transport.CAFile)
    v.SetDefault("transport.alpn", cfg.Transport.ALPN)
    v.SetDefault("transport.listen", cfg.Transport.Listen)
    v.SetDefault("transport.cert_file", cfg.Transport.CertFile)
    v.SetDefault("transport.key_file", cfg.Transport.KeyFile)
    v.SetDefault("transport.handshake_timeout_ms", cfg.Transport.HandshakeTimeoutMS)
    v.SetDefault("transport.max_idle_timeout_ms", cfg.Transport.MaxIdleTimeoutMS)
    v.SetDefault("transport.keep_alive_ms", cfg.Transport.KeepAliveMS)
    // Session defaults
    v.SetDefault("session.max_stream_bytes", cfg.Session.MaxStreamBytes)
    v.SetDefault("session.read_chunk_size", cfg.Session.ReadChunkSize)
    v.SetDefault("session.connect_timeout_ms", cfg.Session.ConnectTimeoutMS)
    // Event log defaults
    v.SetDefault("eventlog.capacity", cfg.EventLog.Capacity)
    v.SetDefault("eventlog.export_path", cfg.EventLog.ExportPath)
    v.SetDefault("eventlog.export_format", cfg.EventLog.ExportFormat)

    // Choose config file
    if path == "" {
        // Allow override via env var
        if envPath := os.Getenv("WTCLIENT_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `wtclient`
        v.SetConfigName("wtclient")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".wtclient"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stderr"}
    }
    if c.Session.MaxStreamBytes < 0 {
        return fmt.Errorf("invalid session.max_stream_bytes: %d", c.Session.MaxStreamBytes)
    }
    if c.Session.ReadChunkSize <= 0 {
        c.Session.ReadChunkSize = 1024
    }
    if c.EventLog.Capacity < 0 {
        return fmt.Errorf("invalid eventlog.capacity: %d", c.EventLog.Capacity)
    }
    c.EventLog.ExportFormat = strings.ToLower(strings.TrimSpace(c.EventLog.ExportFormat))
    switch c.EventLog.ExportFormat {
    case "":
        c.EventLog.ExportFormat = "json"
    case "json", "cbor", "proto":
    default:
        return fmt.Errorf("invalid eventlog.export_format: %q", c.EventLog.ExportFormat)
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
