package nfs4

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
)

// Operation is one entry of a COMPOUND request.
//
// Validate is called for every operation before any byte of the request is
// encoded, so EncodeArgs may assume valid arguments.
type Operation interface {
	// Opcode identifies the operation on the wire.
	Opcode() Opcode

	// Validate checks the arguments against the protocol limits.
	Validate() error

	// EncodeArgs writes the operation-specific arguments (not the opcode).
	EncodeArgs(enc *xdr.Encoder) error
}

// ============================================================================
// READDIR
// ============================================================================

// Default READDIR sizing, in bytes.
const (
	DefaultDirCount = 32768
	DefaultMaxCount = 32768
)

// ReaddirArgs are the arguments of READDIR4args.
//
// Reference: RFC 7530 Section 16.24
type ReaddirArgs struct {
	// Cookie is the position to resume from; 0 starts at the beginning.
	Cookie uint64

	// CookieVerf must be zero when Cookie is zero, and otherwise echo the
	// verifier returned with the previous page.
	CookieVerf [VerifierSize]byte

	// DirCount is the hinted size of the directory information (names and cookies).
	DirCount uint32

	// MaxCount is the maximum size of the whole READDIR4resok.
	MaxCount uint32

	// AttrRequest selects the attributes returned for each entry.
	AttrRequest Bitmap4
}

// DefaultReaddirArgs reads from the start of the directory requesting
// DefaultReaddirAttrs.
func DefaultReaddirArgs() *ReaddirArgs {
	return &ReaddirArgs{
		DirCount:    DefaultDirCount,
		MaxCount:    DefaultMaxCount,
		AttrRequest: NewBitmap(DefaultReaddirAttrs...),
	}
}

func (a *ReaddirArgs) Opcode() Opcode { return OpReadDir }

func (a *ReaddirArgs) Validate() error {
	if a.MaxCount == 0 {
		return &rpc.EncodingError{Field: "readdir.maxcount", Reason: "must be greater than zero"}
	}
	if len(a.AttrRequest) > maxBitmapWords {
		return &rpc.EncodingError{
			Field:  "readdir.attr_request",
			Reason: fmt.Sprintf("%d bitmap words exceed %d", len(a.AttrRequest), maxBitmapWords),
		}
	}
	return nil
}

func (a *ReaddirArgs) EncodeArgs(enc *xdr.Encoder) error {
	if _, err := enc.EncodeUhyper(a.Cookie); err != nil {
		return fmt.Errorf("encode cookie: %w", err)
	}
	if _, err := enc.EncodeFixedOpaque(a.CookieVerf[:]); err != nil {
		return fmt.Errorf("encode cookieverf: %w", err)
	}
	if _, err := enc.EncodeUint(a.DirCount); err != nil {
		return fmt.Errorf("encode dircount: %w", err)
	}
	if _, err := enc.EncodeUint(a.MaxCount); err != nil {
		return fmt.Errorf("encode maxcount: %w", err)
	}
	return a.AttrRequest.Encode(enc)
}

// DecodeReaddirArgs decodes READDIR4args from the start of data and returns
// the remaining bytes.
func DecodeReaddirArgs(data []byte) (*ReaddirArgs, []byte, error) {
	dec := xdr.NewDecoder(bytes.NewReader(data))
	args := &ReaddirArgs{}
	consumed := 0

	cookie, n, err := dec.DecodeUhyper()
	consumed += n
	if err != nil {
		return nil, nil, fmt.Errorf("decode cookie: %w", err)
	}
	args.Cookie = cookie

	verf, n, err := dec.DecodeFixedOpaque(VerifierSize)
	consumed += n
	if err != nil {
		return nil, nil, fmt.Errorf("decode cookieverf: %w", err)
	}
	copy(args.CookieVerf[:], verf)

	if args.DirCount, n, err = dec.DecodeUint(); err != nil {
		return nil, nil, fmt.Errorf("decode dircount: %w", err)
	}
	consumed += n

	if args.MaxCount, n, err = dec.DecodeUint(); err != nil {
		return nil, nil, fmt.Errorf("decode maxcount: %w", err)
	}
	consumed += n

	bitmap, n, err := DecodeBitmap(dec)
	consumed += n
	if err != nil {
		return nil, nil, err
	}
	args.AttrRequest = bitmap

	return args, data[consumed:], nil
}

// ============================================================================
// Filehandle operations
// ============================================================================

// PutRootFH sets the current filehandle to the server's root.
type PutRootFH struct{}

func (PutRootFH) Opcode() Opcode                { return OpPutRootFH }
func (PutRootFH) Validate() error               { return nil }
func (PutRootFH) EncodeArgs(*xdr.Encoder) error { return nil }

// PutFH sets the current filehandle.
type PutFH struct {
	FH []byte
}

func (op *PutFH) Opcode() Opcode { return OpPutFH }

func (op *PutFH) Validate() error {
	if len(op.FH) == 0 {
		return &rpc.EncodingError{Field: "putfh.object", Reason: "filehandle is empty"}
	}
	if len(op.FH) > FHSize {
		return &rpc.EncodingError{
			Field:  "putfh.object",
			Reason: fmt.Sprintf("filehandle of %d bytes exceeds %d", len(op.FH), FHSize),
		}
	}
	return nil
}

func (op *PutFH) EncodeArgs(enc *xdr.Encoder) error {
	if _, err := enc.EncodeOpaque(op.FH); err != nil {
		return fmt.Errorf("encode filehandle: %w", err)
	}
	return nil
}

// GetFH returns the current filehandle.
type GetFH struct{}

func (GetFH) Opcode() Opcode                { return OpGetFH }
func (GetFH) Validate() error               { return nil }
func (GetFH) EncodeArgs(*xdr.Encoder) error { return nil }

// Lookup replaces the current filehandle with that of a named child.
type Lookup struct {
	Name string
}

func (op *Lookup) Opcode() Opcode { return OpLookup }

func (op *Lookup) Validate() error {
	if op.Name == "" {
		return &rpc.EncodingError{Field: "lookup.objname", Reason: "name is empty"}
	}
	if len(op.Name) > MaxNameLength {
		return &rpc.EncodingError{
			Field:  "lookup.objname",
			Reason: fmt.Sprintf("name of %d bytes exceeds %d", len(op.Name), MaxNameLength),
		}
	}
	return nil
}

func (op *Lookup) EncodeArgs(enc *xdr.Encoder) error {
	if _, err := enc.EncodeString(op.Name); err != nil {
		return fmt.Errorf("encode name: %w", err)
	}
	return nil
}

// GetAttr fetches attributes of the current filehandle.
type GetAttr struct {
	AttrRequest Bitmap4
}

func (op *GetAttr) Opcode() Opcode { return OpGetAttr }

func (op *GetAttr) Validate() error {
	if len(op.AttrRequest) > maxBitmapWords {
		return &rpc.EncodingError{
			Field:  "getattr.attr_request",
			Reason: fmt.Sprintf("%d bitmap words exceed %d", len(op.AttrRequest), maxBitmapWords),
		}
	}
	return nil
}

func (op *GetAttr) EncodeArgs(enc *xdr.Encoder) error {
	return op.AttrRequest.Encode(enc)
}

// ============================================================================
// Raw operation
// ============================================================================

// RawOp carries an opcode with pre-encoded arguments, for operations this
// package has no typed form for. Args must already be XDR aligned.
type RawOp struct {
	Code Opcode
	Args []byte
}

func (op *RawOp) Opcode() Opcode { return op.Code }

func (op *RawOp) Validate() error {
	if !op.Code.Valid() {
		return &rpc.EncodingError{
			Field:  "op.opcode",
			Reason: fmt.Sprintf("opcode %d is not an NFSv4.0 operation", uint32(op.Code)),
		}
	}
	if len(op.Args)%4 != 0 {
		return &rpc.EncodingError{
			Field:  "op.args",
			Reason: fmt.Sprintf("%d bytes of arguments are not 4-byte aligned", len(op.Args)),
		}
	}
	return nil
}

func (op *RawOp) EncodeArgs(enc *xdr.Encoder) error {
	if len(op.Args) == 0 {
		return nil
	}
	if _, err := enc.EncodeFixedOpaque(op.Args); err != nil {
		return fmt.Errorf("encode raw args: %w", err)
	}
	return nil
}
