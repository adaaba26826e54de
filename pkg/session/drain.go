package session

import (
    "errors"
    "io"

    "wtclient/pkg/transport"
)

// drain reads r to end-of-stream and reports the whole payload at once.
// Partial data is never reported. A stream that would exceed the manager's
// byte cap has its read side cancelled.
func (m *Manager) drain(r transport.RecvStream, id StreamID) {
    var data []byte
    buf := make([]byte, m.chunk)
    for {
        n, err := r.Read(buf)
        if n > 0 {
            if m.maxBytes > 0 && int64(len(data)+n) > m.maxBytes {
                r.CancelRead(transport.CodeTooLarge)
                m.errorf(opDrain, id, "Stream #%d exceeded %d bytes", id, m.maxBytes)
                return
            }
            data = append(data, buf[:n]...)
        }
        if errors.Is(err, io.EOF) { break }
        if err != nil {
            if cancelled(err) {
                m.errorf(opDrain, id, "Stream #%d cancelled: session closed", id)
            } else {
                m.errorf(opDrain, id, "Error while reading stream #%d: %v", id, err)
            }
            return
        }
    }
    m.infof(opDrain, id, "Stream #%d closed", id)
    m.infof(opDrain, id, "Data received: %s", Text(data))
}
