package value

import (
	"bytes"

	"github.com/kvtree/enbt/typeid"
)

// Equal reports whether v and other are structurally equal: equal
// descriptors and equal payloads. For optional values, two empty optionals
// compare equal; one empty and one present compare unequal.
func (v Value) Equal(other Value) bool {
	if !v.desc.Equal(other.desc) {
		return false
	}

	switch v.desc.Class {
	case typeid.ClassNone:
		return true
	case typeid.ClassBit:
		return v.desc.Signed == other.desc.Signed
	case typeid.ClassInteger, typeid.ClassVarInteger, typeid.ClassFloating:
		return v.bits == other.bits
	case typeid.ClassUUID:
		return v.uuid == other.uuid
	case typeid.ClassSArray:
		return bytes.Equal(v.raw, other.raw)
	case typeid.ClassCompound:
		return v.compoundEqual(other)
	default: // array, darray, structure, optional
		if len(v.children) != len(other.children) {
			return false
		}
		for i := range v.children {
			if !v.children[i].Equal(other.children[i]) {
				return false
			}
		}
		return true
	}
}

func (v Value) compoundEqual(other Value) bool {
	if len(v.children) != len(other.children) {
		return false
	}

	if v.desc.Signed {
		for i, id := range v.aliasKeys {
			idx, ok := other.aliasIndex[id]
			if !ok || !v.children[i].Equal(other.children[idx]) {
				return false
			}
		}
		return true
	}

	for i, name := range v.names {
		idx, ok := other.nameIndex[name]
		if !ok || !v.children[i].Equal(other.children[idx]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := v
	out.raw = append([]byte(nil), v.raw...)
	out.names = append([]string(nil), v.names...)
	out.aliasKeys = append([]uint16(nil), v.aliasKeys...)

	if v.elemDesc != nil {
		d := *v.elemDesc
		out.elemDesc = &d
	}

	if v.children != nil {
		out.children = make([]Value, len(v.children))
		for i := range v.children {
			out.children[i] = v.children[i].Clone()
		}
	}

	if v.nameIndex != nil {
		out.nameIndex = make(map[string]int, len(v.nameIndex))
		for k, i := range v.nameIndex {
			out.nameIndex[k] = i
		}
	}
	if v.aliasIndex != nil {
		out.aliasIndex = make(map[uint16]int, len(v.aliasIndex))
		for k, i := range v.aliasIndex {
			out.aliasIndex[k] = i
		}
	}

	return out
}
