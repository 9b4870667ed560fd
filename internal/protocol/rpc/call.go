package rpc

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// callHeaderSize is the encoded size of CallHeader: 5 fields × 4 bytes.
const callHeaderSize = 20

// Call is an outgoing RPC call: the envelope and, optionally, the standard
// procedure/credential section. When Body is nil the procedure arguments
// follow the envelope directly.
type Call struct {
	Header CallHeader
	Body   *CallBody
}

// EncodeCall serializes a call followed by its already XDR-encoded arguments.
//
// The returned buffer is freshly allocated and owned by the caller; encoding
// the same call twice yields identical bytes.
//
// Returns an *EncodingError if the header fields are inconsistent or an
// authentication body exceeds MaxAuthBodySize.
func EncodeCall(call *Call, args []byte) ([]byte, error) {
	if call == nil {
		return nil, &EncodingError{Field: "call", Reason: "call is nil"}
	}
	if call.Header.MsgType != RPCCall {
		return nil, &EncodingError{Field: "call.msg_type", Reason: fmt.Sprintf("expected CALL (0), got %d", call.Header.MsgType)}
	}
	if call.Header.RPCVersion != RPCVersion {
		return nil, &EncodingError{Field: "call.rpc_version", Reason: fmt.Sprintf("expected %d, got %d", RPCVersion, call.Header.RPCVersion)}
	}

	size := callHeaderSize + len(args)
	if call.Body != nil {
		if err := validateAuth("call.cred", call.Body.Cred); err != nil {
			return nil, err
		}
		if err := validateAuth("call.verf", call.Body.Verf); err != nil {
			return nil, err
		}
		size += 20 + len(call.Body.Cred.Body) + len(call.Body.Verf.Body) + 6 // procedure, two flavor/length pairs, padding
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))

	if _, err := xdr.Marshal(buf, &call.Header); err != nil {
		return nil, &EncodingError{Field: "call.header", Reason: "marshal failed", Err: err}
	}

	if call.Body != nil {
		if _, err := xdr.Marshal(buf, call.Body); err != nil {
			return nil, &EncodingError{Field: "call.body", Reason: "marshal failed", Err: err}
		}
	}

	buf.Write(args)
	return buf.Bytes(), nil
}

func validateAuth(field string, auth OpaqueAuth) error {
	if len(auth.Body) > MaxAuthBodySize {
		return &EncodingError{
			Field:  field,
			Reason: fmt.Sprintf("auth body is %d bytes, maximum is %d", len(auth.Body), MaxAuthBodySize),
		}
	}
	return nil
}

// ReadCallHeader decodes the envelope at the start of data and returns the
// remaining bytes.
//
// It validates that the message is a CALL for RPC version 2.
func ReadCallHeader(data []byte) (*CallHeader, []byte, error) {
	if len(data) < callHeaderSize {
		return nil, nil, fmt.Errorf("call header needs %d bytes, got %d", callHeaderSize, len(data))
	}

	header := &CallHeader{}
	n, err := xdr.Unmarshal(bytes.NewReader(data), header)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal call header: %w", err)
	}

	if header.MsgType != RPCCall {
		return nil, nil, fmt.Errorf("expected CALL (0), got %d", header.MsgType)
	}
	if header.RPCVersion != RPCVersion {
		return nil, nil, fmt.Errorf("unsupported RPC version %d", header.RPCVersion)
	}

	return header, data[n:], nil
}

// ReadCallBody decodes the procedure/credential section that follows the
// envelope on a standard call and returns the remaining bytes.
func ReadCallBody(data []byte) (*CallBody, []byte, error) {
	body := &CallBody{}
	n, err := xdr.UnmarshalLimited(bytes.NewReader(data), body, MaxAuthBodySize)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal call body: %w", err)
	}
	return body, data[n:], nil
}
