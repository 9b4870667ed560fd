package rpc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FragmentHeader is the decoded 4-byte record marking header.
type FragmentHeader struct {
	// IsLast is set on the final fragment of a record.
	IsLast bool

	// Length is the number of payload bytes that follow the header.
	Length uint32
}

// ParseFragmentHeader decodes a raw big-endian record marking header.
func ParseFragmentHeader(raw uint32) FragmentHeader {
	return FragmentHeader{
		IsLast: raw&LastFragmentFlag != 0,
		Length: raw & FragmentLengthMask,
	}
}

// Encode returns the wire value of the header.
func (h FragmentHeader) Encode() uint32 {
	v := h.Length & FragmentLengthMask
	if h.IsLast {
		v |= LastFragmentFlag
	}
	return v
}

// WriteRecord sends payload as a single, last fragment.
//
// The header and payload are written with as many Write calls as needed;
// a writer that stops making progress yields a *TransportError reporting how
// many bytes were transferred. Payloads that cannot be described by a 31-bit
// length are rejected before anything is written.
func WriteRecord(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > FragmentLengthMask {
		return &TransportError{
			Op:  "write record",
			Err: fmt.Errorf("payload of %d bytes exceeds fragment limit %d", len(payload), FragmentLengthMask),
		}
	}

	frame := make([]byte, FragmentHeaderSize+len(payload))
	header := FragmentHeader{IsLast: true, Length: uint32(len(payload))}
	binary.BigEndian.PutUint32(frame[:FragmentHeaderSize], header.Encode())
	copy(frame[FragmentHeaderSize:], payload)

	written := 0
	for written < len(frame) {
		n, err := w.Write(frame[written:])
		written += n
		if err != nil {
			return &TransportError{Op: "write record", Expected: len(frame), Received: written, Err: err}
		}
		if n == 0 {
			return &TransportError{Op: "write record", Expected: len(frame), Received: written, Err: io.ErrShortWrite}
		}
	}

	return nil
}

// ReadFragmentHeader reads exactly FragmentHeaderSize bytes and decodes them.
//
// A stream that ends before the full header arrives yields a *TransportError.
func ReadFragmentHeader(r io.Reader) (FragmentHeader, error) {
	var buf [FragmentHeaderSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return FragmentHeader{}, &TransportError{
			Op:       "read fragment header",
			Expected: FragmentHeaderSize,
			Received: n,
			Err:      err,
		}
	}

	return ParseFragmentHeader(binary.BigEndian.Uint32(buf[:])), nil
}

// ReadFragment reads one fragment: the header followed by exactly the number
// of payload bytes it declares.
//
// The payload is never returned truncated: if the stream ends early the
// result is a *TransportError with the received and expected byte counts.
func ReadFragment(r io.Reader) (FragmentHeader, []byte, error) {
	header, err := ReadFragmentHeader(r)
	if err != nil {
		return FragmentHeader{}, nil, err
	}

	payload, err := readPayload(r, header.Length)
	if err != nil {
		return FragmentHeader{}, nil, err
	}

	return header, payload, nil
}

// ReadRecord reads fragments until the one flagged as last and returns their
// concatenated payloads.
//
// maxSize bounds the total record size and is checked against each declared
// fragment length before its payload is read. A maxSize <= 0 disables the
// bound. Payloads are read across as many reads as the stream needs and
// buffered as they arrive.
func ReadRecord(r io.Reader, maxSize int) ([]byte, error) {
	var record []byte

	for {
		header, err := ReadFragmentHeader(r)
		if err != nil {
			return nil, err
		}

		total := uint64(len(record)) + uint64(header.Length)
		if maxSize > 0 && total > uint64(maxSize) {
			return nil, &TransportError{
				Op:  "read record",
				Err: fmt.Errorf("record size %d exceeds limit %d", total, maxSize),
			}
		}

		payload, err := readPayload(r, header.Length)
		if err != nil {
			return nil, err
		}

		if record == nil && header.IsLast {
			return payload, nil
		}
		record = append(record, payload...)

		if header.IsLast {
			return record, nil
		}
	}
}

// payloadChunk is the most buffer space reserved for a payload before any of
// its bytes have arrived.
const payloadChunk = 64 * 1024

// readPayload reads exactly length bytes. The buffer grows with the bytes
// actually received, so a header declaring a huge fragment costs nothing
// until the peer sends it.
func readPayload(r io.Reader, length uint32) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(length, payloadChunk)))

	n, err := io.CopyN(&buf, r, int64(length))
	if err != nil {
		if errors.Is(err, io.EOF) && n > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, &TransportError{
			Op:       "read fragment payload",
			Expected: int(length),
			Received: int(n),
			Err:      err,
		}
	}
	return buf.Bytes(), nil
}
