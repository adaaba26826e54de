package eventlog

import (
    "fmt"
    "io"
    "os"
    "time"

    "google.golang.org/protobuf/types/known/structpb"

    "wtclient/pkg/codec"
)

// record is the serialized shape of an Entry.
type record struct {
    Time     time.Time `json:"time" cbor:"time"`
    Severity string    `json:"severity" cbor:"severity"`
    Message  string    `json:"message" cbor:"message"`
    Op       string    `json:"op,omitempty" cbor:"op,omitempty"`
    Stream   uint32    `json:"stream,omitempty" cbor:"stream,omitempty"`
}

func toRecords(entries []Entry) []record {
    out := make([]record, len(entries))
    for i, e := range entries {
        out[i] = record{Time: e.Time.UTC(), Severity: e.Severity.String(), Message: e.Message, Op: e.Op, Stream: e.Stream}
    }
    return out
}

// toList converts entries to a protobuf ListValue of Structs.
func toList(entries []Entry) (*structpb.ListValue, error) {
    items := make([]any, len(entries))
    for i, e := range entries {
        m := map[string]any{
            "time":     e.Time.UTC().Format(time.RFC3339Nano),
            "severity": e.Severity.String(),
            "message":  e.Message,
        }
        if e.Op != "" {
            m["op"] = e.Op
        }
        if e.Stream != 0 {
            m["stream"] = e.Stream
        }
        items[i] = m
    }
    return structpb.NewList(items)
}

// Export writes entries to w using c. The proto codec receives a
// structpb.ListValue; other codecs receive a list of records.
func Export(w io.Writer, entries []Entry, c codec.Codec) error {
    var v any = toRecords(entries)
    if c.Name() == "proto" {
        l, err := toList(entries)
        if err != nil {
            return fmt.Errorf("eventlog: build proto list: %w", err)
        }
        v = l
    }
    b, err := c.Marshal(v)
    if err != nil {
        return fmt.Errorf("eventlog: marshal %s: %w", c.Name(), err)
    }
    _, err = w.Write(b)
    return err
}

// ExportFile writes entries to path, replacing any existing file.
func ExportFile(path string, entries []Entry, c codec.Codec) error {
    f, err := os.Create(path)
    if err != nil {
        return err
    }
    if err := Export(f, entries, c); err != nil {
        _ = f.Close()
        return err
    }
    return f.Close()
}
