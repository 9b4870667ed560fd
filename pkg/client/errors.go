package client

import "fmt"

// ConnectionError reports that the server could not be reached.
type ConnectionError struct {
	// Addr is the host:port that was dialed.
	Addr string

	// Err is the dial failure.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
