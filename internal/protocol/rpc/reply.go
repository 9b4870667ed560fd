package rpc

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// ParseReply decodes the RPC reply header at the start of data.
//
// It returns the header and the bytes that follow it, which for an accepted,
// successful reply are the procedure results. The results are not
// interpreted here. A verifier longer than MaxAuthBodySize is rejected
// before its body is read.
//
// Reference: RFC 5531 Section 9 (reply_body, accepted_reply, rejected_reply)
func ParseReply(data []byte) (*ReplyHeader, []byte, error) {
	d := xdr.NewDecoderLimited(bytes.NewReader(data), MaxAuthBodySize)
	consumed := 0

	readUint := func(field string) (uint32, error) {
		v, n, err := d.DecodeUint()
		consumed += n
		if err != nil {
			return 0, fmt.Errorf("decode reply %s: %w", field, err)
		}
		return v, nil
	}

	var err error
	h := &ReplyHeader{}

	if h.XID, err = readUint("xid"); err != nil {
		return nil, nil, err
	}
	if h.MsgType, err = readUint("msg_type"); err != nil {
		return nil, nil, err
	}
	if h.MsgType != RPCReply {
		return nil, nil, fmt.Errorf("expected REPLY (1), got message type %d", h.MsgType)
	}
	if h.ReplyState, err = readUint("reply_stat"); err != nil {
		return nil, nil, err
	}

	switch h.ReplyState {
	case RPCMsgAccepted:
		if h.Verf.Flavor, err = readUint("verf flavor"); err != nil {
			return nil, nil, err
		}
		body, n, derr := d.DecodeOpaque()
		consumed += n
		if derr != nil {
			return nil, nil, fmt.Errorf("decode reply verf body: %w", derr)
		}
		h.Verf.Body = body

		if h.AcceptStat, err = readUint("accept_stat"); err != nil {
			return nil, nil, err
		}
		if h.AcceptStat == RPCProgMismatch {
			if h.Mismatch, err = readRange(readUint); err != nil {
				return nil, nil, err
			}
		}

	case RPCMsgDenied:
		if h.RejectStat, err = readUint("reject_stat"); err != nil {
			return nil, nil, err
		}
		switch h.RejectStat {
		case RPCMismatch:
			if h.Mismatch, err = readRange(readUint); err != nil {
				return nil, nil, err
			}
		case RPCAuthError:
			if h.AuthStat, err = readUint("auth_stat"); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, fmt.Errorf("unknown reject_stat %d", h.RejectStat)
		}

	default:
		return nil, nil, fmt.Errorf("unknown reply_stat %d", h.ReplyState)
	}

	return h, data[consumed:], nil
}

func readRange(readUint func(string) (uint32, error)) (*VersionRange, error) {
	low, err := readUint("mismatch low")
	if err != nil {
		return nil, err
	}
	high, err := readUint("mismatch high")
	if err != nil {
		return nil, err
	}
	return &VersionRange{Low: low, High: high}, nil
}

// AcceptStatString returns a human-readable name for an accept_stat value.
func AcceptStatString(stat uint32) string {
	switch stat {
	case RPCSuccess:
		return "SUCCESS"
	case RPCProgUnavail:
		return "PROG_UNAVAIL"
	case RPCProgMismatch:
		return "PROG_MISMATCH"
	case RPCProcUnavail:
		return "PROC_UNAVAIL"
	case RPCGarbageArgs:
		return "GARBAGE_ARGS"
	case RPCSystemErr:
		return "SYSTEM_ERR"
	default:
		return fmt.Sprintf("accept_stat(%d)", stat)
	}
}
