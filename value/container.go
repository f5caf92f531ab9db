package value

import (
	"fmt"

	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
)

// NewSArray packs elems (each elemBits wide) into a dense sarray value.
// elemBits must be 8, 16, 32, or 64. Elements are held little-endian in
// memory whatever big says; the stream writer converts them to the declared
// byte order on the wire.
func NewSArray(elemBits int, signed, big bool, elems []uint64) (Value, error) {
	length, err := lengthForBits(elemBits)
	if err != nil {
		return Value{}, err
	}

	width := length.ByteWidth()
	raw := make([]byte, width*len(elems))
	for i, e := range elems {
		putUint(raw[i*width:(i+1)*width], width, e, false)
	}

	return Value{
		desc: typeid.Descriptor{Class: typeid.ClassSArray, Length: length, Signed: signed, BigEndian: big},
		raw:  raw,
	}, nil
}

// String builds a tiny-width unsigned sarray of s's UTF-8 bytes: the "raw C
// string" convenience form of spec section 4.5.
func String(s string) Value {
	return Value{
		desc: typeid.Descriptor{Class: typeid.ClassSArray, Length: typeid.Tiny},
		raw:  []byte(s),
	}
}

// SArrayString returns a tiny-width unsigned sarray's bytes as a string. It
// fails with errs.ErrTypeMismatch otherwise.
func (v Value) SArrayString() (string, error) {
	if v.desc.Class != typeid.ClassSArray || v.desc.Length != typeid.Tiny || v.desc.Signed {
		return "", fmt.Errorf("%w: SArrayString on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
	return string(v.raw), nil
}

// SArrayLen returns the number of packed elements in a sarray value.
func (v Value) SArrayLen() int {
	width := v.desc.Length.ByteWidth()
	if width == 0 {
		return 0
	}
	return len(v.raw) / width
}

// SArrayAt materializes a fresh scalar integer value for the i-th element
// of a sarray, per spec section 4.5's indexing rule.
func (v Value) SArrayAt(i int) (Value, error) {
	if v.desc.Class != typeid.ClassSArray {
		return Value{}, fmt.Errorf("%w: SArrayAt on %s", errs.ErrTypeMismatch, v.desc.Class)
	}

	width := v.desc.Length.ByteWidth()
	if i < 0 || (i+1)*width > len(v.raw) {
		return Value{}, fmt.Errorf("%w: sarray index %d", errs.ErrOutOfRange, i)
	}

	bits := getUint(v.raw[i*width:(i+1)*width], width, false)
	return scalarInt(v.desc.Length, v.desc.Signed, false, bits), nil
}

func lengthForBits(bits int) (typeid.Length, error) {
	switch bits {
	case 8:
		return typeid.Tiny, nil
	case 16:
		return typeid.Short, nil
	case 32:
		return typeid.Default, nil
	case 64:
		return typeid.Long, nil
	default:
		return 0, fmt.Errorf("%w: sarray element width must be 8/16/32/64, got %d", errs.ErrInvalidDescriptor, bits)
	}
}

func putUint(buf []byte, width int, v uint64, big bool) {
	if big {
		for i := 0; i < width; i++ {
			buf[width-1-i] = byte(v >> (8 * i))
		}
		return
	}
	for i := 0; i < width; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func getUint(buf []byte, width int, big bool) uint64 {
	var v uint64
	if big {
		for i := 0; i < width; i++ {
			v = v<<8 | uint64(buf[i])
		}
		return v
	}
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// EmptyArray builds an empty array value with an explicit declared length
// class, the "(descriptor, length) form for empty containers" from spec
// section 4.5.
func EmptyArray(length typeid.Length) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassArray, Length: length}}
}

// NewArray builds an array value from elems, which must all share one
// descriptor. An empty elems list yields an array with no fixed element
// descriptor yet; the first Push fixes it.
func NewArray(elems ...Value) (Value, error) {
	v := Value{desc: typeid.Descriptor{Class: typeid.ClassArray, Length: typeid.LengthForCount(len(elems))}}
	for _, e := range elems {
		if err := v.Push(e); err != nil {
			return Value{}, err
		}
	}
	return v, nil
}

// NewDArray builds a heterogeneous darray value from elems.
func NewDArray(elems ...Value) Value {
	return Value{
		desc:     typeid.Descriptor{Class: typeid.ClassDArray, Length: typeid.LengthForCount(len(elems))},
		children: append([]Value(nil), elems...),
	}
}

// NewStructure builds a fixed-arity structure value. Arity must not exceed
// 15, per spec section 9's arity bound.
func NewStructure(elems ...Value) (Value, error) {
	const maxArity = 15
	if len(elems) > maxArity {
		return Value{}, fmt.Errorf("%w: structure arity %d exceeds max %d", errs.ErrOverflow, len(elems), maxArity)
	}

	return Value{
		desc:     typeid.Descriptor{Class: typeid.ClassStructure, Length: typeid.Tiny},
		children: append([]Value(nil), elems...),
	}, nil
}

// NewOptional builds an optional value. A nil child yields the empty
// optional (is_signed = false); a non-nil child yields a present optional
// carrying exactly one value.
func NewOptional(child *Value) Value {
	v := Value{desc: typeid.Descriptor{Class: typeid.ClassOptional}}
	if child != nil {
		v.desc.Signed = true
		v.children = []Value{*child}
	}
	return v
}

// NewInlineCompound builds an empty compound value whose keys are inline
// UTF-8 strings.
func NewInlineCompound() Value {
	return Value{
		desc:      typeid.Descriptor{Class: typeid.ClassCompound, Length: typeid.Tiny},
		nameIndex: make(map[string]int),
	}
}

// NewAliasedCompound builds an empty compound value whose keys are 16-bit
// indices into the global alias-string table.
func NewAliasedCompound() Value {
	return Value{
		desc:       typeid.Descriptor{Class: typeid.ClassCompound, Length: typeid.Tiny, Signed: true},
		aliasIndex: make(map[uint16]int),
	}
}
