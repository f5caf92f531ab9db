package typeid

import (
	"fmt"
	"io"

	"github.com/kvtree/enbt/endian"
	"github.com/kvtree/enbt/errs"
)

// Descriptor is the logical record packed into a type descriptor byte (plus
// an optional domain-variant extension). Four fields share the byte:
//
//	bit 0      is_signed
//	bit 1      endian (0 = little, 1 = big)
//	bits 2-3   length class
//	bits 4-7   type class
//
// See the package doc and spec section 3.1 for the full invariant list.
type Descriptor struct {
	Class     Class
	Length    Length
	BigEndian bool
	Signed    bool

	// DomainVariant is only meaningful when Class == ClassDomain. It holds a
	// little-endian unsigned integer whose width is given by Length.
	DomainVariant uint64
}

// Engine returns the endian engine the descriptor's BigEndian bit selects.
func (d Descriptor) Engine() endian.EndianEngine {
	return endian.EngineFor(d.BigEndian)
}

// Equal reports whether d and other describe the same type: all four
// logical fields must match, and DomainVariant as well when Class is domain.
func (d Descriptor) Equal(other Descriptor) bool {
	if d.Class != other.Class || d.Length != other.Length ||
		d.BigEndian != other.BigEndian || d.Signed != other.Signed {
		return false
	}

	if d.Class == ClassDomain {
		return d.DomainVariant == other.DomainVariant
	}

	return true
}

// Validate checks the invariants from spec section 3.1. It does not check
// container-length-fits-declared-width, which depends on runtime element
// counts and is checked at construction time by the value package instead.
func (d Descriptor) Validate() error {
	switch d.Class {
	case ClassFloating:
		if d.Length != Default && d.Length != Long {
			return fmt.Errorf("%w: floating requires default or long length, got %s", errs.ErrInvalidDescriptor, d.Length)
		}
	case ClassVarInteger:
		if d.Length != Default && d.Length != Long {
			return fmt.Errorf("%w: var_integer requires default or long length, got %s", errs.ErrInvalidDescriptor, d.Length)
		}
	case ClassCompound:
		if d.Signed && d.Length != Tiny && d.Length != Short {
			return fmt.Errorf("%w: aliased compound requires tiny or short length, got %s", errs.ErrInvalidDescriptor, d.Length)
		}
	case ClassStructure:
		if d.Length.ByteWidth() > 0 {
			// Arity is not stored in Length: it is written as an explicit
			// u8 payload byte. The "<=15" bound is enforced by
			// value.NewStructure at construction and by the stream writer
			// and reader.
		}
	}

	return nil
}

// Encode appends the wire encoding of d to buf and returns the grown slice.
func (d Descriptor) Encode(buf []byte) []byte {
	b := packByte(d)
	buf = append(buf, b)

	if d.Class == ClassDomain {
		buf = appendDomainVariant(buf, d.Length, d.DomainVariant)
	}

	return buf
}

// WriteTo writes the wire encoding of d to w.
func (d Descriptor) WriteTo(w io.Writer) (int64, error) {
	buf := d.Encode(nil)
	n, err := w.Write(buf)

	return int64(n), err
}

func packByte(d Descriptor) byte {
	var b byte
	if d.Signed {
		b |= 0x01
	}
	if d.BigEndian {
		b |= 0x02
	}
	b |= byte(d.Length) << 2
	b |= byte(d.Class) << 4

	return b
}

func appendDomainVariant(buf []byte, length Length, variant uint64) []byte {
	width := length.ByteWidth()
	start := len(buf)
	buf = append(buf, make([]byte, width)...)

	switch width {
	case 1:
		buf[start] = byte(variant)
	case 2:
		endian.GetLittleEndianEngine().PutUint16(buf[start:], uint16(variant))
	case 4:
		endian.GetLittleEndianEngine().PutUint32(buf[start:], uint32(variant))
	case 8:
		endian.GetLittleEndianEngine().PutUint64(buf[start:], variant)
	}

	return buf
}

// Decode reads one descriptor from r: one byte, plus a domain-variant
// extension when the decoded class is ClassDomain. On success Length is
// re-classified to the smallest width that fits the decoded DomainVariant,
// per spec section 4.2.
func Decode(r io.ByteReader) (Descriptor, error) {
	b, err := r.ReadByte()
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: reading descriptor byte: %v", errs.ErrFormatError, err)
	}

	d := unpackByte(b)
	if d.Class != ClassDomain {
		return d, nil
	}

	variant, err := readDomainVariant(r, d.Length)
	if err != nil {
		return Descriptor{}, err
	}
	d.DomainVariant = variant
	d.Length = LengthForUint64(variant)

	return d, nil
}

func unpackByte(b byte) Descriptor {
	return Descriptor{
		Signed:    b&0x01 != 0,
		BigEndian: b&0x02 != 0,
		Length:    Length((b >> 2) & 0x03),
		Class:     Class((b >> 4) & 0x0F),
	}
}

func readDomainVariant(r io.ByteReader, length Length) (uint64, error) {
	width := length.ByteWidth()
	buf := make([]byte, width)
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: reading domain variant: %v", errs.ErrFormatError, err)
		}
		buf[i] = b
	}

	switch width {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(endian.GetLittleEndianEngine().Uint16(buf)), nil
	case 4:
		return uint64(endian.GetLittleEndianEngine().Uint32(buf)), nil
	case 8:
		return endian.GetLittleEndianEngine().Uint64(buf), nil
	default:
		return 0, fmt.Errorf("%w: invalid domain variant width %d", errs.ErrFormatError, width)
	}
}
