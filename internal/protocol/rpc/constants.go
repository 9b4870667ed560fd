package rpc

// RPC Program Numbers
//
// These identifiers specify which RPC program a message belongs to.
// Program numbers are assigned by IANA; each program can have multiple versions.
//
// Reference: RFC 5531 (RPC Protocol Specification Version 2)
const (
	// ProgramNFS is the NFS program number (RFC 7530 Section 16).
	// NFSv4 keeps the program number used by NFSv2 and NFSv3.
	ProgramNFS = 100003
)

// RPCVersion is the only ONC-RPC protocol version in use (RFC 5531 Section 9).
const RPCVersion = 2

// RPC Message Types
//
// Reference: RFC 5531 Section 9 (RPC Message Protocol)
const (
	// RPCCall indicates an RPC call message sent from client to server.
	RPCCall = 0

	// RPCReply indicates an RPC reply message sent from server to client.
	RPCReply = 1
)

// RPC Reply States
//
// Reference: RFC 5531 Section 9 (RPC Message Protocol)
const (
	// RPCMsgAccepted indicates the server recognized the program and version
	// and attempted to execute the call. An accept_stat follows.
	RPCMsgAccepted = 0

	// RPCMsgDenied indicates the server rejected the call (RPC version
	// mismatch or authentication failure). A reject_stat follows.
	RPCMsgDenied = 1
)

// RPC Accept Status
//
// Reference: RFC 5531 Section 9 (RPC Message Protocol)
const (
	RPCSuccess      = 0 // procedure executed successfully
	RPCProgUnavail  = 1 // remote has not exported the program
	RPCProgMismatch = 2 // remote cannot support the version number; low/high follow
	RPCProcUnavail  = 3 // program cannot support the procedure
	RPCGarbageArgs  = 4 // procedure cannot decode the params
	RPCSystemErr    = 5 // memory allocation failure, etc.
)

// RPC Reject Status
const (
	// RPCMismatch means the RPC version number was not 2; low/high follow.
	RPCMismatch = 0

	// RPCAuthError means the caller could not be authenticated; an auth_stat follows.
	RPCAuthError = 1
)

// Authentication Flavors
//
// Reference: RFC 5531 Section 8.2
const (
	// AuthNull carries no credentials (AUTH_NONE).
	AuthNull = 0

	// AuthUnix carries Unix-style uid/gid credentials (AUTH_SYS).
	AuthUnix = 1
)

// MaxAuthBodySize is the largest opaque_auth body allowed on the wire (RFC 5531 Section 8.2).
const MaxAuthBodySize = 400

// Record Marking
//
// On stream transports each RPC message is sent as one or more fragments,
// each preceded by a 4-byte big-endian header. The high bit flags the last
// fragment of the record and the remaining 31 bits carry the fragment length.
//
// Reference: RFC 5531 Section 11 (Record Marking Standard)
const (
	// LastFragmentFlag is set in the header of the final fragment of a record.
	LastFragmentFlag = 0x80000000

	// FragmentLengthMask extracts the payload length from a fragment header.
	FragmentLengthMask = 0x7FFFFFFF

	// FragmentHeaderSize is the size of the fragment header in bytes.
	FragmentHeaderSize = 4
)
