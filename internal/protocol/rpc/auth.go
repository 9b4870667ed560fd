package rpc

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

const (
	// maxMachineNameLength is the AUTH_UNIX machine name limit (RFC 5531 Appendix A).
	maxMachineNameLength = 255

	// maxAuxGIDs is the AUTH_UNIX supplementary group limit (RFC 5531 Appendix A).
	maxAuxGIDs = 16
)

// Encode serializes the credentials into an AUTH_UNIX opaque_auth.
//
// Returns an *EncodingError if the machine name or the group list exceed the
// AUTH_UNIX limits.
func (a *UnixAuth) Encode() (OpaqueAuth, error) {
	if len(a.MachineName) > maxMachineNameLength {
		return OpaqueAuth{}, &EncodingError{
			Field:  "auth.machine_name",
			Reason: fmt.Sprintf("length %d exceeds %d", len(a.MachineName), maxMachineNameLength),
		}
	}
	if len(a.GIDs) > maxAuxGIDs {
		return OpaqueAuth{}, &EncodingError{
			Field:  "auth.gids",
			Reason: fmt.Sprintf("%d groups exceed the limit of %d", len(a.GIDs), maxAuxGIDs),
		}
	}

	gids := a.GIDs
	if gids == nil {
		gids = []uint32{}
	}
	wire := UnixAuth{
		Stamp:       a.Stamp,
		MachineName: a.MachineName,
		UID:         a.UID,
		GID:         a.GID,
		GIDs:        gids,
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &wire); err != nil {
		return OpaqueAuth{}, &EncodingError{Field: "auth", Reason: "marshal failed", Err: err}
	}

	return OpaqueAuth{Flavor: AuthUnix, Body: buf.Bytes()}, nil
}

// ParseUnixAuth decodes an AUTH_UNIX credential body.
//
// Returns an error if the body is truncated or exceeds the AUTH_UNIX limits.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty auth body")
	}

	auth := &UnixAuth{}
	if _, err := xdr.UnmarshalLimited(bytes.NewReader(body), auth, maxMachineNameLength); err != nil {
		return nil, fmt.Errorf("unmarshal AUTH_UNIX: %w", err)
	}

	if len(auth.GIDs) > maxAuxGIDs {
		return nil, fmt.Errorf("too many gids: %d", len(auth.GIDs))
	}

	return auth, nil
}
