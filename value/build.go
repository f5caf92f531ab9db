package value

import "github.com/kvtree/enbt/typeid"

// The functions in this file build a Value directly from a decoded
// descriptor and payload, for use by the stream package's reader. They
// mirror the scalar/container constructors in container.go and value.go
// but skip the invariant checks those perform at construction time, since
// the reader has already decoded bytes that (by construction) satisfy
// them.

// FromDescriptor builds a none/bit value directly from a decoded
// descriptor: both classes carry no payload beyond the descriptor itself.
func FromDescriptor(d typeid.Descriptor) Value {
	return Value{desc: d}
}

// ScalarFromBits builds an integer/var_integer/floating value from a
// decoded descriptor and raw bit pattern.
func ScalarFromBits(d typeid.Descriptor, bits uint64) Value {
	return Value{desc: d, bits: bits}
}

// UUIDFromBytes builds a uuid value from a decoded descriptor and 16 raw
// bytes (already converted to host order).
func UUIDFromBytes(d typeid.Descriptor, b [16]byte) Value {
	return Value{desc: d, uuid: b}
}

// SArrayFromRaw builds a sarray value from a decoded descriptor and packed
// element bytes (already converted to little-endian element order).
func SArrayFromRaw(d typeid.Descriptor, raw []byte) Value {
	return Value{desc: d, raw: raw}
}

// ContainerFromChildren builds a darray/structure/optional value from a
// decoded descriptor and its already-decoded children.
func ContainerFromChildren(d typeid.Descriptor, children []Value) Value {
	return Value{desc: d, children: children}
}

// EmptyArrayFromDescriptor builds an array value with no children and no
// established element descriptor, as decoded from a zero-length array on
// the wire.
func EmptyArrayFromDescriptor(d typeid.Descriptor) Value {
	return Value{desc: d}
}

// ArrayFromChildren builds an array value, fixing its element descriptor
// explicitly (an empty array has no children to infer it from).
func ArrayFromChildren(d typeid.Descriptor, elemDesc typeid.Descriptor, children []Value) Value {
	ed := elemDesc
	return Value{desc: d, children: children, elemDesc: &ed}
}

// InlineCompoundFromEntries builds an inline-keyed compound from decoded
// names and children, rebuilding the name index.
func InlineCompoundFromEntries(d typeid.Descriptor, names []string, children []Value) Value {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return Value{desc: d, names: names, children: children, nameIndex: idx}
}

// AliasedCompoundFromEntries builds an aliased compound from decoded alias
// ids and children, rebuilding the alias index.
func AliasedCompoundFromEntries(d typeid.Descriptor, aliasKeys []uint16, children []Value) Value {
	idx := make(map[uint16]int, len(aliasKeys))
	for i, id := range aliasKeys {
		idx[id] = i
	}
	return Value{desc: d, aliasKeys: aliasKeys, children: children, aliasIndex: idx}
}
