// Package value implements the ENBT value tree: a tagged union over a
// type_descriptor plus its payload, with construction, indexing, mutation,
// equality, arithmetic coercion and iteration.
//
// A Value owns its payload and every value it transitively contains; making
// a copy ([Value.Clone]) is the only supported way to hand a subtree to
// another goroutine, since Value is not internally synchronized.
package value

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
)

// Value is a tagged union holding any ENBT type: a scalar payload
// (integer/float/bit/uuid/sarray bytes) or a slice of child values
// (array/darray/structure/optional/compound), discriminated by Descriptor.
type Value struct {
	desc typeid.Descriptor

	bits uint64 // integer/var_integer: raw unsigned pattern. floating: IEEE-754 bits widened to 64. (A bit's payload lives in desc.Signed.)
	raw  []byte // sarray: packed elements, desc.Length.ByteWidth() bytes each
	uuid [16]byte

	children []Value
	elemDesc *typeid.Descriptor // array only: the shared element descriptor, fixed by the first Push

	names      []string // inline compound keys, parallel to children
	aliasKeys  []uint16 // aliased compound keys, parallel to children
	nameIndex  map[string]int
	aliasIndex map[uint16]int
}

// Descriptor returns the value's type descriptor.
func (v Value) Descriptor() typeid.Descriptor {
	return v.desc
}

// Class returns the value's type class.
func (v Value) Class() typeid.Class {
	return v.desc.Class
}

// IsNone reports whether v is the none value.
func (v Value) IsNone() bool {
	return v.desc.Class == typeid.ClassNone
}

// None returns the none value: no payload, no descriptor invariants beyond
// its class.
func None() Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassNone}}
}

// Bool constructs a bit value: the payload lives in the descriptor's
// is_signed bit per spec section 3.1.
func Bool(b bool) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassBit, Signed: b}}
}

// scalarInt builds an integer value of the given width/sign/endianness.
func scalarInt(length typeid.Length, signed, big bool, bits uint64) Value {
	return Value{
		desc: typeid.Descriptor{Class: typeid.ClassInteger, Length: length, Signed: signed, BigEndian: big},
		bits: bits,
	}
}

func Int8(v int8) Value   { return scalarInt(typeid.Tiny, true, false, uint64(uint8(v))) }
func Uint8(v uint8) Value { return scalarInt(typeid.Tiny, false, false, uint64(v)) }

func Int16(v int16) Value   { return scalarInt(typeid.Short, true, false, uint64(uint16(v))) }
func Uint16(v uint16) Value { return scalarInt(typeid.Short, false, false, uint64(v)) }

func Int32(v int32) Value   { return scalarInt(typeid.Default, true, false, uint64(uint32(v))) }
func Uint32(v uint32) Value { return scalarInt(typeid.Default, false, false, uint64(v)) }

func Int64(v int64) Value   { return scalarInt(typeid.Long, true, false, uint64(v)) }
func Uint64(v uint64) Value { return scalarInt(typeid.Long, false, false, v) }

// WithBigEndian returns a copy of v with its descriptor's endian bit set to
// big-endian. It sets the bit for every class; for classes whose payload has
// no byte order, only the descriptor byte changes.
func (v Value) WithBigEndian() Value {
	v.desc.BigEndian = true
	return v
}

// VarInt32 and VarUint32/64 build var_integer values: same payload shape as
// integer, but the stream writer encodes them with the continuation-bit
// varint codec instead of raw bytes.
func VarInt32(v int32) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassVarInteger, Length: typeid.Default, Signed: true}, bits: uint64(uint32(v))}
}
func VarUint32(v uint32) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassVarInteger, Length: typeid.Default}, bits: uint64(v)}
}
func VarInt64(v int64) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassVarInteger, Length: typeid.Long, Signed: true}, bits: uint64(v)}
}
func VarUint64(v uint64) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassVarInteger, Length: typeid.Long}, bits: v}
}

func Float32(v float32) Value {
	return Value{
		desc: typeid.Descriptor{Class: typeid.ClassFloating, Length: typeid.Default, Signed: true},
		bits: uint64(math.Float32bits(v)),
	}
}

func Float64(v float64) Value {
	return Value{
		desc: typeid.Descriptor{Class: typeid.ClassFloating, Length: typeid.Long, Signed: true},
		bits: math.Float64bits(v),
	}
}

// UUID constructs a uuid value from 16 raw bytes.
func UUID(b [16]byte) Value {
	return Value{desc: typeid.Descriptor{Class: typeid.ClassUUID, Length: typeid.Long}, uuid: b}
}

// UUIDFromString parses s (any form google/uuid.Parse accepts) and
// constructs a uuid value from it.
func UUIDFromString(s string) (Value, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s", errs.ErrInvalidDescriptor, err)
	}
	return UUID(id), nil
}

// UUIDBytes returns the value's 16 raw bytes. It fails with
// errs.ErrTypeMismatch if v is not a uuid.
func (v Value) UUIDBytes() ([16]byte, error) {
	if v.desc.Class != typeid.ClassUUID {
		return [16]byte{}, fmt.Errorf("%w: UUIDBytes on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
	return v.uuid, nil
}

// UUIDString returns the value's canonical 8-4-4-4-12 hyphenated form. It
// fails with errs.ErrTypeMismatch if v is not a uuid.
func (v Value) UUIDString() (string, error) {
	b, err := v.UUIDBytes()
	if err != nil {
		return "", err
	}
	return uuid.UUID(b).String(), nil
}

// FastHash returns a content hash of v, covering its descriptor and payload
// recursively. Two structurally-equal values (per [Value.Equal]) always
// hash the same; it is not a cryptographic hash and carries no format
// stability guarantee across versions.
func (v Value) FastHash() uint64 {
	h := xxhash.New()
	v.writeHash(h)
	return h.Sum64()
}

func (v Value) writeHash(h *xxhash.Digest) {
	var hdr [4]byte
	hdr[0] = byte(v.desc.Class)
	hdr[1] = byte(v.desc.Length)
	if v.desc.Signed {
		hdr[2] = 1
	}
	if v.desc.BigEndian {
		hdr[3] = 1
	}
	_, _ = h.Write(hdr[:])

	switch v.desc.Class {
	case typeid.ClassInteger, typeid.ClassVarInteger, typeid.ClassFloating:
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(v.bits >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	case typeid.ClassUUID:
		_, _ = h.Write(v.uuid[:])
	case typeid.ClassSArray:
		_, _ = h.Write(v.raw)
	case typeid.ClassCompound:
		// Entries are hashed one by one and summed, so entry order does not
		// matter, just as it does not for Equal.
		var sum uint64
		if v.desc.Signed {
			for i, id := range v.aliasKeys {
				e := xxhash.New()
				var b [2]byte
				b[0], b[1] = byte(id), byte(id>>8)
				_, _ = e.Write(b[:])
				v.children[i].writeHash(e)
				sum += e.Sum64()
			}
		} else {
			for i, name := range v.names {
				e := xxhash.New()
				_, _ = e.Write([]byte(name))
				v.children[i].writeHash(e)
				sum += e.Sum64()
			}
		}
		var sb [8]byte
		for i := range sb {
			sb[i] = byte(sum >> (8 * i))
		}
		_, _ = h.Write(sb[:])
	default:
		for i := range v.children {
			v.children[i].writeHash(h)
		}
	}
}
