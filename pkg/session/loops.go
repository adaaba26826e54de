package session

import (
    "go.uber.org/zap"

    "wtclient/pkg/transport"
)

// receiveDatagrams reports every inbound datagram until the first receive
// error.
func (m *Manager) receiveDatagrams(l *live) {
    for {
        b, err := l.s.ReceiveDatagram(l.ctx)
        if err != nil {
            m.loopEnded(opDatagrams, "Error while reading datagrams: %v", err)
            return
        }
        m.infof(opDatagrams, 0, "Datagram received: %s", Text(b))
    }
}

// acceptUniStreams labels each peer-initiated unidirectional stream and
// hands it to its own drain task.
func (m *Manager) acceptUniStreams(l *live) {
    for {
        r, err := l.s.AcceptUniStream(l.ctx)
        if err != nil {
            m.loopEnded(opAccept, "Error while accepting uni streams: %v", err)
            return
        }
        id := m.ids.Next()
        m.infof(opAccept, id, "New incoming unidirectional stream #%d", id)
        if !l.spawn(m, opDrain, func() { m.drain(r, id) }) {
            r.CancelRead(transport.CodeCancelled)
            m.errorf(opDrain, id, "Stream #%d cancelled: session closed", id)
            return
        }
    }
}

// loopEnded reports a terminated inbound loop. Ends caused by the session
// closing are expected and go to the diagnostic log only.
func (m *Manager) loopEnded(op, format string, err error) {
    if cancelled(err) {
        m.log.Debug("loop ended", zap.String("op", op), zap.Error(err))
        return
    }
    m.errorf(op, 0, format, err)
}
