package nfs4

import (
	"fmt"
	"sort"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// maxBitmapWords bounds decoded bitmaps; NFSv4.0 defines attributes up to word 2.
const maxBitmapWords = 8

// Bitmap4 is an XDR bitmap4: a counted array of 32-bit words where attribute
// n occupies bit n%32 of word n/32.
type Bitmap4 []uint32

// NewBitmap returns the smallest bitmap with the given attributes set.
func NewBitmap(attrs ...Attr) Bitmap4 {
	var b Bitmap4
	for _, a := range attrs {
		b = b.With(a)
	}
	return b
}

// With returns a copy of the bitmap that additionally has attr set. The
// receiver is never modified.
func (b Bitmap4) With(attr Attr) Bitmap4 {
	word := int(attr / 32)
	out := make(Bitmap4, max(len(b), word+1))
	copy(out, b)
	out[word] |= 1 << (attr % 32)
	return out
}

// IsSet reports whether attr is present in the bitmap.
func (b Bitmap4) IsSet(attr Attr) bool {
	word := int(attr / 32)
	if word >= len(b) {
		return false
	}
	return b[word]&(1<<(attr%32)) != 0
}

// Attrs lists the set attributes in ascending order.
func (b Bitmap4) Attrs() []Attr {
	var attrs []Attr
	for w, word := range b {
		for bit := 0; bit < 32; bit++ {
			if word&(1<<bit) != 0 {
				attrs = append(attrs, Attr(w*32+bit))
			}
		}
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// Encode writes the word count followed by each word.
func (b Bitmap4) Encode(enc *xdr.Encoder) error {
	if _, err := enc.EncodeUint(uint32(len(b))); err != nil {
		return fmt.Errorf("encode bitmap length: %w", err)
	}
	for i, word := range b {
		if _, err := enc.EncodeUint(word); err != nil {
			return fmt.Errorf("encode bitmap word %d: %w", i, err)
		}
	}
	return nil
}

// DecodeBitmap reads a bitmap4 and returns it with the number of bytes consumed.
func DecodeBitmap(dec *xdr.Decoder) (Bitmap4, int, error) {
	count, total, err := dec.DecodeUint()
	if err != nil {
		return nil, total, fmt.Errorf("decode bitmap length: %w", err)
	}
	if count > maxBitmapWords {
		return nil, total, fmt.Errorf("bitmap of %d words exceeds %d", count, maxBitmapWords)
	}

	b := make(Bitmap4, count)
	for i := range b {
		word, n, err := dec.DecodeUint()
		total += n
		if err != nil {
			return nil, total, fmt.Errorf("decode bitmap word %d: %w", i, err)
		}
		b[i] = word
	}
	return b, total, nil
}
