package nfs4

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
)

// Compound4Args is the argument of the COMPOUND procedure.
//
// Wire Format (XDR encoding):
//   - Tag:          XDR string (echoed by the server, may be empty)
//   - MinorVersion: 4 bytes
//   - Ops:          4-byte count, then per operation: opcode (4 bytes) + args
//
// Reference: RFC 7530 Section 16.2
type Compound4Args struct {
	Tag          string
	MinorVersion uint32
	Ops          []Operation
}

// Validate checks the tag and every operation without encoding anything.
func (c *Compound4Args) Validate() error {
	if len(c.Tag) > MaxTagLength {
		return &rpc.EncodingError{
			Field:  "compound.tag",
			Reason: fmt.Sprintf("tag of %d bytes exceeds %d", len(c.Tag), MaxTagLength),
		}
	}
	if len(c.Ops) == 0 {
		return &rpc.EncodingError{Field: "compound.argarray", Reason: "operation list is empty"}
	}
	for i, op := range c.Ops {
		if op == nil {
			return &rpc.EncodingError{Field: fmt.Sprintf("compound.argarray[%d]", i), Reason: "operation is nil"}
		}
		if !op.Opcode().Valid() {
			return &rpc.EncodingError{
				Field:  fmt.Sprintf("compound.argarray[%d]", i),
				Reason: fmt.Sprintf("opcode %d is not an NFSv4.0 operation", uint32(op.Opcode())),
			}
		}
		if err := op.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Encode validates the request and returns its XDR encoding.
//
// Returns an *rpc.EncodingError if any argument violates a protocol limit;
// no partial encoding is returned in that case.
func (c *Compound4Args) Encode() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := xdr.NewEncoder(&buf)

	if _, err := enc.EncodeString(c.Tag); err != nil {
		return nil, &rpc.EncodingError{Field: "compound.tag", Reason: "encode failed", Err: err}
	}
	if _, err := enc.EncodeUint(c.MinorVersion); err != nil {
		return nil, &rpc.EncodingError{Field: "compound.minorversion", Reason: "encode failed", Err: err}
	}
	if _, err := enc.EncodeUint(uint32(len(c.Ops))); err != nil {
		return nil, &rpc.EncodingError{Field: "compound.argarray", Reason: "encode failed", Err: err}
	}

	for i, op := range c.Ops {
		field := fmt.Sprintf("compound.argarray[%d]", i)
		if _, err := enc.EncodeUint(uint32(op.Opcode())); err != nil {
			return nil, &rpc.EncodingError{Field: field, Reason: "encode opcode failed", Err: err}
		}
		if err := op.EncodeArgs(enc); err != nil {
			return nil, &rpc.EncodingError{Field: field, Reason: op.Opcode().String() + " args", Err: err}
		}
	}

	return buf.Bytes(), nil
}

// OpNames returns the operation names in request order, e.g. ["PUTROOTFH", "READDIR"].
func (c *Compound4Args) OpNames() []string {
	names := make([]string, len(c.Ops))
	for i, op := range c.Ops {
		names[i] = op.Opcode().String()
	}
	return names
}

// CompoundArgsHeader is the fixed part of a decoded COMPOUND4args.
type CompoundArgsHeader struct {
	Tag          string
	MinorVersion uint32
	NumOps       uint32
}

// DecodeCompoundArgsHeader decodes the tag, minor version and operation
// count, returning the bytes of the operation array.
func DecodeCompoundArgsHeader(data []byte) (*CompoundArgsHeader, []byte, error) {
	dec := xdr.NewDecoderLimited(bytes.NewReader(data), MaxTagLength)
	h := &CompoundArgsHeader{}

	tag, consumed, err := decodeTag(dec)
	if err != nil {
		return nil, nil, err
	}
	h.Tag = tag

	minor, n, err := dec.DecodeUint()
	consumed += n
	if err != nil {
		return nil, nil, fmt.Errorf("decode minorversion: %w", err)
	}
	h.MinorVersion = minor

	count, n, err := dec.DecodeUint()
	consumed += n
	if err != nil {
		return nil, nil, fmt.Errorf("decode argarray length: %w", err)
	}
	h.NumOps = count

	return h, data[consumed:], nil
}

// CompoundResHeader is the fixed part of a COMPOUND4res. The per-operation
// results that follow it are left undecoded.
type CompoundResHeader struct {
	// Status is the status of the last operation executed.
	Status Status

	// Tag echoes the request tag.
	Tag string

	// NumResults is the number of operations the server executed.
	NumResults uint32
}

// DecodeCompoundResHeader decodes status, tag and result count from the
// procedure results of a COMPOUND reply and returns the remaining bytes.
func DecodeCompoundResHeader(data []byte) (*CompoundResHeader, []byte, error) {
	dec := xdr.NewDecoderLimited(bytes.NewReader(data), MaxTagLength)
	h := &CompoundResHeader{}

	status, consumed, err := dec.DecodeUint()
	if err != nil {
		return nil, nil, fmt.Errorf("decode compound status: %w", err)
	}
	h.Status = Status(status)

	tag, n, err := decodeTag(dec)
	consumed += n
	if err != nil {
		return nil, nil, err
	}
	h.Tag = tag

	count, n, err := dec.DecodeUint()
	consumed += n
	if err != nil {
		return nil, nil, fmt.Errorf("decode resarray length: %w", err)
	}
	h.NumResults = count

	return h, data[consumed:], nil
}

// ResultHead is the opcode and status that open every nfs_resop4.
type ResultHead struct {
	Opcode Opcode
	Status Status
}

// PeekResultHead decodes the opcode and status of the first result in a
// result array without consuming the rest of it.
func PeekResultHead(data []byte) (*ResultHead, error) {
	dec := xdr.NewDecoder(bytes.NewReader(data))

	op, _, err := dec.DecodeUint()
	if err != nil {
		return nil, fmt.Errorf("decode result opcode: %w", err)
	}
	status, _, err := dec.DecodeUint()
	if err != nil {
		return nil, fmt.Errorf("decode result status: %w", err)
	}

	return &ResultHead{Opcode: Opcode(op), Status: Status(status)}, nil
}

func decodeTag(dec *xdr.Decoder) (string, int, error) {
	tag, n, err := dec.DecodeString()
	if err != nil {
		return "", n, fmt.Errorf("decode tag: %w", err)
	}
	return tag, n, nil
}
