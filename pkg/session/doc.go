// Package session manages one client session over a multiplexed transport.
//
// A Manager dials a transport.Session, then runs three background tasks for
// it: a closure watcher, a datagram receive loop and a unidirectional stream
// acceptor. Every accepted stream, and the reply half of every bidirectional
// stream the client opens, is drained to completion by its own goroutine.
// Background tasks report only through the eventlog.Sink; Connect and Send
// report to the sink and also return their error to the caller.
package session
