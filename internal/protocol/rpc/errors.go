package rpc

import (
	"errors"
	"fmt"
	"net"
)

// TransportError reports a failure moving bytes over the stream transport.
//
// It covers short reads (connection closed before a fragment header or the
// declared payload arrived), short writes, deadline expiry and oversized
// records. Expected and Received are byte counts for the step named by Op;
// both are zero when the failure is not tied to a byte count.
type TransportError struct {
	// Op names the step that failed (e.g. "read fragment header").
	Op string

	// Expected is the number of bytes the step needed.
	Expected int

	// Received is the number of bytes actually transferred.
	Received int

	// Err is the underlying cause, if any.
	Err error
}

func (e *TransportError) Error() string {
	msg := "rpc transport: " + e.Op
	if e.Expected > 0 {
		msg += fmt.Sprintf(": transferred %d of %d bytes", e.Received, e.Expected)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline expiring.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// EncodingError reports a request argument that violates an XDR or protocol
// invariant, detected before any byte is written.
type EncodingError struct {
	// Field identifies the offending argument (e.g. "compound.tag").
	Field string

	// Reason describes the violated invariant.
	Reason string

	// Err is the underlying encoder error, if any.
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encode %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("encode %s: %s", e.Field, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
