package session

import (
    "context"
    "fmt"

    "wtclient/pkg/transport"
)

// Send performs exactly one send of p on the current session. Failures are
// logged once and returned; nothing is retried.
func (m *Manager) Send(ctx context.Context, p Payload) error {
    if !p.Selector.valid() {
        m.errorf(opSend, 0, "Unexpected selection: %s", p.Selector)
        return fmt.Errorf("%w: %s", ErrInvalidSelection, p.Selector)
    }
    l := m.ready()
    if l == nil {
        m.errorf(opSend, 0, "Cannot send %s: not connected.", p.Selector)
        return ErrNotConnected
    }
    switch p.Selector {
    case Datagram:
        return m.sendDatagram(ctx, l, p.Data)
    case Unidirectional:
        return m.sendUni(ctx, l, p.Data)
    default:
        return m.sendBidi(ctx, l, p.Data)
    }
}

// SendText parses selector as the UI supplies it and sends text.
func (m *Manager) SendText(ctx context.Context, selector, text string) error {
    sel, err := ParseSelector(selector)
    if err != nil {
        m.errorf(opSend, 0, "Unexpected selection: %s", selector)
        return err
    }
    return m.Send(ctx, Payload{Selector: sel, Data: []byte(text)})
}

func (m *Manager) sendDatagram(ctx context.Context, l *live, data []byte) error {
    if err := l.s.SendDatagram(ctx, data); err != nil {
        m.errorf(opSend, 0, "Failed to send datagram: %v", err)
        return wrap(ErrWriteFailed, err)
    }
    m.infof(opSend, 0, "Sent datagram: %s", Text(data))
    return nil
}

func (m *Manager) sendUni(ctx context.Context, l *live, data []byte) error {
    w, err := l.s.OpenUniStream(ctx)
    if err != nil {
        m.errorf(opSend, 0, "Failed to open unidirectional stream: %v", err)
        return wrap(ErrOpenFailed, err)
    }
    if err := writeAndClose(w, data); err != nil {
        m.errorf(opSend, 0, "Failed to write unidirectional stream: %v", err)
        return wrap(ErrWriteFailed, err)
    }
    m.infof(opSend, 0, "Sent a unidirectional stream with data: %s", Text(data))
    return nil
}

// sendBidi writes data on a new bidirectional stream, then drains the reply
// half under the same id. The send-side entry is emitted before the drain
// task starts.
func (m *Manager) sendBidi(ctx context.Context, l *live, data []byte) error {
    st, err := l.s.OpenStream(ctx)
    if err != nil {
        m.errorf(opSend, 0, "Failed to open bidirectional stream: %v", err)
        return wrap(ErrOpenFailed, err)
    }
    id := m.ids.Next()
    if err := writeAndClose(st, data); err != nil {
        st.CancelRead(transport.CodeCancelled)
        m.errorf(opSend, id, "Failed to write bidirectional stream #%d: %v", id, err)
        return wrap(ErrWriteFailed, err)
    }
    m.infof(opSend, id, "Opened bidirectional stream #%d with data: %s", id, Text(data))
    if !l.spawn(m, opDrain, func() { m.drain(st, id) }) {
        st.CancelRead(transport.CodeCancelled)
        m.errorf(opDrain, id, "Stream #%d cancelled: session closed", id)
    }
    return nil
}

// writeAndClose writes all of data and closes the send side. On failure
// the write side is reset.
func writeAndClose(w transport.SendStream, data []byte) error {
    if _, err := w.Write(data); err != nil {
        w.CancelWrite(transport.CodeCancelled)
        return err
    }
    if err := w.Close(); err != nil {
        w.CancelWrite(transport.CodeCancelled)
        return err
    }
    return nil
}
