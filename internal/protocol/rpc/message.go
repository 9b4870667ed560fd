package rpc

// CallHeader is the fixed envelope that opens every call this client sends.
//
// Wire Format (XDR encoding):
//   - XID:        4 bytes (transaction identifier)
//   - MsgType:    4 bytes (always 0 for CALL)
//   - RPCVersion: 4 bytes (always 2)
//   - Program:    4 bytes (program number, 100003 for NFS)
//   - Version:    4 bytes (program version, 4 for NFSv4)
//
// Reference: RFC 5531 Section 9 (RPC Protocol Specification)
type CallHeader struct {
	// XID uniquely identifies the call; the server echoes it in the reply.
	XID uint32

	// MsgType must be RPCCall.
	MsgType uint32

	// RPCVersion must be RPCVersion (2).
	RPCVersion uint32

	// Program identifies the remote service.
	Program uint32

	// Version is the version of the remote program.
	Version uint32
}

// NewCallHeader returns a CALL envelope for the given program and version.
func NewCallHeader(xid, program, version uint32) CallHeader {
	return CallHeader{
		XID:        xid,
		MsgType:    RPCCall,
		RPCVersion: RPCVersion,
		Program:    program,
		Version:    version,
	}
}

// CallBody holds the RFC 5531 fields that follow the envelope on a fully
// standard call: the procedure number and the credential/verifier pair.
//
// It is optional: when omitted the procedure arguments follow the envelope
// directly.
type CallBody struct {
	// Procedure identifies the operation within the program (1 = COMPOUND for NFSv4).
	Procedure uint32

	// Cred carries the caller's credentials.
	Cred OpaqueAuth

	// Verf carries the caller's verifier (AUTH_NULL for AUTH_NULL and AUTH_UNIX).
	Verf OpaqueAuth
}

// OpaqueAuth represents authentication credentials or verifiers.
//
// The RPC layer does not interpret Body; its meaning depends on Flavor.
//
// Reference: RFC 5531 Section 8 (Authentication)
type OpaqueAuth struct {
	// Flavor identifies the authentication scheme (AuthNull, AuthUnix).
	Flavor uint32

	// Body contains the flavor-specific authentication data.
	Body []byte `xdr:"opaque"`
}

// NullAuth returns an AUTH_NULL credential or verifier.
func NullAuth() OpaqueAuth {
	return OpaqueAuth{Flavor: AuthNull, Body: []byte{}}
}

// UnixAuth represents AUTH_UNIX (AUTH_SYS) credentials.
//
// Wire Format (XDR encoding):
//   - Stamp:       4 bytes (arbitrary id chosen by the caller)
//   - MachineName: XDR string (at most 255 bytes)
//   - UID:         4 bytes
//   - GID:         4 bytes
//   - GIDs:        XDR array of uint32 (at most 16 entries)
//
// Reference: RFC 5531 Appendix A
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// VersionRange is the low/high pair returned on PROG_MISMATCH and RPC_MISMATCH.
type VersionRange struct {
	Low  uint32
	High uint32
}

// ReplyHeader is the decoded header of an RPC reply.
//
// Only the fields relevant to the reply state are populated:
//   - MSG_ACCEPTED: Verf, AcceptStat and, on PROG_MISMATCH, Mismatch
//   - MSG_DENIED:   RejectStat and either Mismatch (RPC_MISMATCH) or AuthStat (AUTH_ERROR)
type ReplyHeader struct {
	XID        uint32
	MsgType    uint32
	ReplyState uint32

	Verf       OpaqueAuth
	AcceptStat uint32

	RejectStat uint32
	AuthStat   uint32

	Mismatch *VersionRange
}

// Accepted reports whether the server accepted and successfully executed the call.
func (h *ReplyHeader) Accepted() bool {
	return h.ReplyState == RPCMsgAccepted && h.AcceptStat == RPCSuccess
}
