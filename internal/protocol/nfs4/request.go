package nfs4

import (
	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
)

// DefaultReaddirTag is the COMPOUND tag of a default READDIR request.
const DefaultReaddirTag = "readdir"

// Request is a complete NFSv4 COMPOUND call: the RPC envelope fields and the
// COMPOUND arguments.
//
// By default the COMPOUND arguments follow the envelope directly. When
// StandardHeader is set the RFC 5531 procedure number, credential and
// verifier are inserted in between, as a conforming server expects.
type Request struct {
	XID     uint32
	Program uint32
	Version uint32

	// StandardHeader inserts procedure/cred/verf after the envelope.
	StandardHeader bool

	// Cred is sent when StandardHeader is set; the zero value means AUTH_NULL.
	Cred rpc.OpaqueAuth

	Compound Compound4Args
}

// NewRequest returns a request for the NFS program, version 4, carrying ops.
func NewRequest(xid uint32, tag string, ops ...Operation) *Request {
	return &Request{
		XID:     xid,
		Program: rpc.ProgramNFS,
		Version: Version4,
		Compound: Compound4Args{
			Tag:          tag,
			MinorVersion: MinorVersion0,
			Ops:          ops,
		},
	}
}

// NewReaddirRequest returns a single-operation READDIR request.
func NewReaddirRequest(xid uint32, tag string, args *ReaddirArgs) *Request {
	return NewRequest(xid, tag, args)
}

// DefaultReaddirRequest returns the canonical READDIR probe: xid 0, tag
// "readdir", minor version 0 and DefaultReaddirArgs.
func DefaultReaddirRequest() *Request {
	return NewReaddirRequest(0, DefaultReaddirTag, DefaultReaddirArgs())
}

// Encode returns the RPC call bytes, without record marking.
//
// The result is a fresh buffer; encoding an unchanged request twice yields
// identical bytes. Returns an *rpc.EncodingError for invalid arguments.
func (r *Request) Encode() ([]byte, error) {
	args, err := r.Compound.Encode()
	if err != nil {
		return nil, err
	}

	call := &rpc.Call{Header: rpc.NewCallHeader(r.XID, r.Program, r.Version)}
	if r.StandardHeader {
		cred := r.Cred
		if cred.Body == nil {
			cred.Body = []byte{}
		}
		call.Body = &rpc.CallBody{
			Procedure: ProcCompound,
			Cred:      cred,
			Verf:      rpc.NullAuth(),
		}
	}

	return rpc.EncodeCall(call, args)
}
