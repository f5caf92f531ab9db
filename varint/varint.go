// Package varint implements the ENBT variable-integer wire encoding: a
// little-endian base-128 encoding with a continuation bit, applied to the
// two's-complement bit pattern of signed values treated as unsigned.
//
// It follows the same hand-rolled continuation-byte style the teacher corpus
// uses for its own length-prefix varints (see encoding.TagEncoder.Write in
// the mebo corpus), but bounds the byte count to the value's declared width
// instead of assuming a 64-bit int, since ENBT var_integer values are only
// ever 32 or 64 bits wide.
package varint

import (
	"fmt"
	"io"

	"github.com/kvtree/enbt/errs"
)

// MaxBytes returns the maximum number of encoded bytes for a value of the
// given bit width: ceil(widthBits/7).
func MaxBytes(widthBits int) int {
	return (widthBits + 6) / 7
}

// AppendUint appends the varint encoding of v to buf and returns the grown
// slice. widthBits bounds how many groups may be emitted; callers pass the
// declared width of the var_integer (32 or 64).
func AppendUint(buf []byte, widthBits int, v uint64) []byte {
	maxBytes := MaxBytes(widthBits)
	for i := 0; i < maxBytes; i++ {
		b := byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}

	// Unreachable for values that actually fit in widthBits, but guards
	// against a caller passing an out-of-range value.
	return buf
}

// AppendInt appends the varint encoding of the two's-complement bit pattern
// of v, truncated to widthBits (32 or 64).
func AppendInt(buf []byte, widthBits int, v int64) []byte {
	return AppendUint(buf, widthBits, truncate(uint64(v), widthBits))
}

// ReadUint reads one varint from r, expecting at most MaxBytes(widthBits)
// continuation bytes. It fails with errs.ErrFormatError if the continuation
// bit is still set after the maximum byte count.
func ReadUint(r io.ByteReader, widthBits int) (uint64, error) {
	maxBytes := MaxBytes(widthBits)

	var result uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: reading var_integer byte %d: %v", errs.ErrFormatError, i, err)
		}

		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return truncate(result, widthBits), nil
		}
		shift += 7
	}

	return 0, fmt.Errorf("%w: var_integer exceeds %d bytes for width %d", errs.ErrFormatError, maxBytes, widthBits)
}

// ReadInt reads one varint from r and sign-extends the widthBits-wide
// two's-complement pattern into an int64.
func ReadInt(r io.ByteReader, widthBits int) (int64, error) {
	bits, err := ReadUint(r, widthBits)
	if err != nil {
		return 0, err
	}

	return signExtend(bits, widthBits), nil
}

func truncate(v uint64, widthBits int) uint64 {
	if widthBits >= 64 {
		return v
	}

	return v & ((uint64(1) << uint(widthBits)) - 1)
}

func signExtend(v uint64, widthBits int) int64 {
	if widthBits >= 64 {
		return int64(v)
	}

	signBit := uint64(1) << uint(widthBits-1)
	if v&signBit != 0 {
		v |= ^uint64(0) << uint(widthBits)
	}

	return int64(v)
}
