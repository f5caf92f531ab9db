package value

import "github.com/kvtree/enbt/typeid"

// The accessors in this file expose a Value's internal payload to the
// stream package's codec, which must walk every scalar/container
// representation to encode or decode it. They are not meant for general
// application use; prefer At, Get, Iterate and the As* coercions.

// NumChildren returns the number of entries in an array/darray/structure/
// optional/compound value.
func (v Value) NumChildren() int {
	return len(v.children)
}

// ChildAt returns a copy of the i-th child. Callers are expected to have
// already bounds-checked via NumChildren.
func (v Value) ChildAt(i int) Value {
	return v.children[i]
}

// ElementDescriptor returns an array value's fixed element descriptor, or
// nil if no element has been pushed yet.
func (v Value) ElementDescriptor() *typeid.Descriptor {
	return v.elemDesc
}

// RawBits returns the raw unsigned bit pattern backing an
// integer/var_integer/floating value. A bit value's payload is its
// descriptor's Signed field, so RawBits is 0 for it.
func (v Value) RawBits() uint64 {
	return v.bits
}

// RawUUID returns a uuid value's 16 raw bytes.
func (v Value) RawUUID() [16]byte {
	return v.uuid
}

// RawSArray returns a sarray value's packed element bytes.
func (v Value) RawSArray() []byte {
	return v.raw
}

// CompoundInlineKey returns the i-th key of an inline-keyed compound.
func (v Value) CompoundInlineKey(i int) string {
	return v.names[i]
}

// CompoundAliasKey returns the i-th key of an aliased compound.
func (v Value) CompoundAliasKey(i int) uint16 {
	return v.aliasKeys[i]
}
