package config

// SessionConfig holds limits applied by the session manager.
type SessionConfig struct {
    // MaxStreamBytes caps the bytes buffered while draining one inbound
    // stream; 0 disables the cap.
    MaxStreamBytes  int `mapstructure:"max_stream_bytes"`
    ReadChunkSize   int `mapstructure:"read_chunk_size"`
    ConnectTimeoutMS int `mapstructure:"connect_timeout_ms"`
}

// EventLogConfig controls the in-memory event history and its export on exit.
type EventLogConfig struct {
    // Capacity bounds the retained entries; 0 keeps everything.
    Capacity     int    `mapstructure:"capacity"`
    ExportPath   string `mapstructure:"export_path"`
    // ExportFormat: json, cbor or proto
    ExportFormat string `mapstructure:"export_format"`
}
