// Package transport defines the session primitive consumed by the client
// core and provides helpers shared by its implementations (quic,
// webtransport, mem).
//
// Key concepts:
// - Dialer: validates a URL and prepares an unready Session
// - Session: one multiplexed connection; Ready performs the handshake,
//   Closed reports the close outcome
// - SendStream/RecvStream/Stream: byte streams with io semantics; io.EOF on a
//   RecvStream is end-of-stream
// - Listener: the peer side, used by echo servers and tests
package transport
