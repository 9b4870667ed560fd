package client

import (
	"fmt"
	"time"

	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
)

// Response is one reply record, kept as received.
type Response struct {
	// Raw is the reassembled record payload without record marking.
	Raw []byte

	// Duration is the round-trip time of the exchange.
	Duration time.Duration

	// BytesSent and BytesReceived count wire bytes, including record marking.
	BytesSent     int
	BytesReceived int
}

// Reply is the decoded header part of a COMPOUND reply. Everything past the
// first result head is left in Results, undecoded.
type Reply struct {
	RPC *rpc.ReplyHeader

	// Compound is nil unless the RPC layer accepted the call.
	Compound *nfs4.CompoundResHeader

	// First is the opcode/status of the first result, when there is one.
	First *nfs4.ResultHead

	// Results holds the undecoded nfs_resop4 array.
	Results []byte
}

// Decode parses the RPC reply header and, for accepted calls, the COMPOUND
// status, tag and result count. Raw is left untouched.
func (r *Response) Decode() (*Reply, error) {
	header, body, err := rpc.ParseReply(r.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode rpc reply: %w", err)
	}

	reply := &Reply{RPC: header}
	if !header.Accepted() {
		return reply, nil
	}

	compound, results, err := nfs4.DecodeCompoundResHeader(body)
	if err != nil {
		return reply, fmt.Errorf("decode compound reply: %w", err)
	}
	reply.Compound = compound
	reply.Results = results

	if compound.NumResults > 0 {
		if head, err := nfs4.PeekResultHead(results); err == nil {
			reply.First = head
		}
	}

	return reply, nil
}

// Summary returns a one-line description of the reply for logs and output.
func (r *Reply) Summary() string {
	h := r.RPC
	switch {
	case h.ReplyState == rpc.RPCMsgDenied:
		return fmt.Sprintf("xid=%d denied reject_stat=%d", h.XID, h.RejectStat)
	case !h.Accepted():
		return fmt.Sprintf("xid=%d accepted %s", h.XID, rpc.AcceptStatString(h.AcceptStat))
	case r.Compound == nil:
		return fmt.Sprintf("xid=%d accepted SUCCESS", h.XID)
	}

	s := fmt.Sprintf("xid=%d status=%s tag=%q results=%d", h.XID, r.Compound.Status, r.Compound.Tag, r.Compound.NumResults)
	if r.First != nil {
		s += fmt.Sprintf(" first=%s:%s", r.First.Opcode, r.First.Status)
	}
	return s
}
