package session

import "sync"

// StreamID is a locally assigned stream label used to correlate log entries.
// It is unrelated to the transport's wire-level stream ids.
type StreamID uint32

// IDAllocator hands out StreamIDs starting at 1. Unidirectional and
// bidirectional streams share one allocator. The zero value is ready to use.
type IDAllocator struct {
    mu   sync.Mutex
    last StreamID
}

func NewIDAllocator() *IDAllocator { return &IDAllocator{} }

// Next returns an id strictly greater than every id returned before.
func (a *IDAllocator) Next() StreamID {
    a.mu.Lock()
    defer a.mu.Unlock()
    a.last++
    return a.last
}
