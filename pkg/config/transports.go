package config

// TransportConfig tunes the QUIC/WebTransport primitives.
// Example YAML:
// transport:
//   insecure_skip_verify: true
//   ca_file: "certs/ca.pem"
//   alpn: ["wtclient"]
//   listen: "localhost:4433"   # wtecho only
//   cert_file: "certs/server.pem"
//   key_file: "certs/server.key"
//   handshake_timeout_ms: 10000
type TransportConfig struct {
    InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
    CAFile             string   `mapstructure:"ca_file"`
    ALPN               []string `mapstructure:"alpn"`

    // Listen, CertFile and KeyFile are only used by the echo peer.
    Listen   string `mapstructure:"listen"`
    CertFile string `mapstructure:"cert_file"`
    KeyFile  string `mapstructure:"key_file"`

    HandshakeTimeoutMS int `mapstructure:"handshake_timeout_ms"`
    MaxIdleTimeoutMS   int `mapstructure:"max_idle_timeout_ms"`
    KeepAliveMS        int `mapstructure:"keep_alive_ms"`
}
