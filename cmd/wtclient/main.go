// Command wtclient connects to a multiplexed transport endpoint and sends
// lines read from stdin as datagrams, unidirectional or bidirectional
// streams, printing the session event log as it happens.
//
// Input lines have the form "<selector> <payload>" where selector is one of
// datagram, unidi or bidi. "/state" prints the session state and "/quit"
// closes the session.
package main

import (
    "fmt"
    "os"
)

func main() {
    if err := newRootCmd().Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "Error:", err)
        os.Exit(1)
    }
}
