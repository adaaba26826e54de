package eventlog

import (
    "context"
    "sync"
    "time"

    "github.com/eapache/queue"
)

// Recorder keeps the most recent entries in memory. With a positive
// capacity the oldest entry is dropped once the capacity is exceeded.
type Recorder struct {
    mu       sync.Mutex
    q        *queue.Queue
    capacity int
    dropped  uint64
    changed  chan struct{}
}

func NewRecorder(capacity int) *Recorder {
    return &Recorder{q: queue.New(), capacity: capacity, changed: make(chan struct{})}
}

func (r *Recorder) Emit(e Entry) {
    if e.Time.IsZero() {
        e.Time = time.Now()
    }
    r.mu.Lock()
    defer r.mu.Unlock()
    r.q.Add(e)
    if r.capacity > 0 && r.q.Length() > r.capacity {
        r.q.Remove()
        r.dropped++
    }
    close(r.changed)
    r.changed = make(chan struct{})
}

// Entries returns a snapshot in arrival order.
func (r *Recorder) Entries() []Entry {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.snapshot()
}

func (r *Recorder) snapshot() []Entry {
    out := make([]Entry, r.q.Length())
    for i := range out {
        out[i] = r.q.Get(i).(Entry)
    }
    return out
}

func (r *Recorder) Len() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.q.Length()
}

// Dropped reports how many entries were evicted by the capacity bound.
func (r *Recorder) Dropped() uint64 {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.dropped
}

// WaitFor blocks until cond holds for the current snapshot or ctx ends.
func (r *Recorder) WaitFor(ctx context.Context, cond func([]Entry) bool) ([]Entry, error) {
    for {
        r.mu.Lock()
        entries, ch := r.snapshot(), r.changed
        r.mu.Unlock()
        if cond(entries) {
            return entries, nil
        }
        select {
        case <-ch:
        case <-ctx.Done():
            return entries, ctx.Err()
        }
    }
}
