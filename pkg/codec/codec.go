// Package codec provides the serializers used to export event logs.
package codec

import (
    "fmt"
    "strings"
)

// Codec defines a simple interface for marshaling typed messages.
// Implementations should be deterministic.
type Codec interface {
    Name() string
    ContentType() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// Registry maps short names and content types to codecs.
type Registry struct{ byKey map[string]Codec }

// NewRegistry constructs a registry preloaded with JSON, CBOR and Protobuf.
func NewRegistry() (*Registry, error) {
    r := &Registry{byKey: make(map[string]Codec)}
    r.Register(JSON())
    r.Register(Proto())
    c, err := CBOR()
    if err != nil { return nil, fmt.Errorf("cbor codec: %w", err) }
    r.Register(c)
    return r, nil
}

// Register adds a codec under both its name and content type.
func (r *Registry) Register(c Codec) {
    r.byKey[c.Name()] = c
    r.byKey[c.ContentType()] = c
}

// Get returns a codec by name or content type, or nil.
func (r *Registry) Get(key string) Codec { return r.byKey[strings.ToLower(strings.TrimSpace(key))] }
