package value

import (
	"fmt"

	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
)

// Push appends child to an array or darray. For an array, the first push
// fixes the element descriptor; subsequent pushes fail with
// errs.ErrTypeMismatch if their descriptor differs.
func (v *Value) Push(child Value) error {
	switch v.desc.Class {
	case typeid.ClassArray:
		if v.elemDesc == nil {
			d := child.desc
			v.elemDesc = &d
		} else if !sameElementType(*v.elemDesc, child.desc) {
			return fmt.Errorf("%w: array element descriptor mismatch", errs.ErrTypeMismatch)
		}
	case typeid.ClassDArray:
		// heterogeneous: no descriptor check
	default:
		return fmt.Errorf("%w: Push on %s", errs.ErrTypeMismatch, v.desc.Class)
	}

	v.children = append(v.children, child)
	v.desc.Length = typeid.LengthForCount(len(v.children))
	return nil
}

// sameElementType compares two descriptors for array-homogeneity purposes.
// For bit elements, is_signed carries the element's boolean value rather
// than a type property, so it is excluded from the comparison.
func sameElementType(a, b typeid.Descriptor) bool {
	if a.Class == typeid.ClassBit && b.Class == typeid.ClassBit {
		return a.Length == b.Length && a.BigEndian == b.BigEndian
	}
	return a.Equal(b)
}

// Resize adjusts an array/darray/sarray to n elements. Growing an
// array/darray appends zero values of the element descriptor (or None for
// a still-undetermined array); growing a sarray appends zero bytes.
// For array/darray the declared length class is recomputed to the smallest
// that fits n; a sarray keeps its element width.
func (v *Value) Resize(n int) error {
	switch v.desc.Class {
	case typeid.ClassArray, typeid.ClassDArray:
		if n < 0 {
			return fmt.Errorf("%w: negative resize length %d", errs.ErrInvalidDescriptor, n)
		}
		if n <= len(v.children) {
			v.children = v.children[:n]
		} else {
			zero := None()
			if v.desc.Class == typeid.ClassArray && v.elemDesc != nil {
				zero = Value{desc: *v.elemDesc}
				if zero.desc.Class == typeid.ClassBit {
					zero.desc.Signed = false // a bit's value lives in Signed
				}
			}
			for len(v.children) < n {
				v.children = append(v.children, zero)
			}
		}
		v.desc.Length = typeid.LengthForCount(n)
		return nil
	case typeid.ClassSArray:
		width := v.desc.Length.ByteWidth()
		target := width * n
		if target <= len(v.raw) {
			v.raw = v.raw[:target]
		} else {
			v.raw = append(v.raw, make([]byte, target-len(v.raw))...)
		}
		return nil
	default:
		return fmt.Errorf("%w: Resize on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// SetOptional replaces the optional's child. A nil child empties it.
func (v *Value) SetOptional(child *Value) error {
	if v.desc.Class != typeid.ClassOptional {
		return fmt.Errorf("%w: SetOptional on %s", errs.ErrTypeMismatch, v.desc.Class)
	}

	if child == nil {
		v.desc.Signed = false
		v.children = nil
		return nil
	}

	v.desc.Signed = true
	v.children = []Value{*child}
	return nil
}

// RemoveAt removes the i-th child of an array/darray.
func (v *Value) RemoveAt(i int) error {
	switch v.desc.Class {
	case typeid.ClassArray, typeid.ClassDArray:
		if i < 0 || i >= len(v.children) {
			return fmt.Errorf("%w: index %d, length %d", errs.ErrOutOfRange, i, len(v.children))
		}
		v.children = append(v.children[:i], v.children[i+1:]...)
		v.desc.Length = typeid.LengthForCount(len(v.children))
		return nil
	default:
		return fmt.Errorf("%w: RemoveAt on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// SetInline inserts or replaces an entry in an inline-keyed compound.
func (v *Value) SetInline(name string, child Value) error {
	if v.desc.Class != typeid.ClassCompound || v.desc.Signed {
		return fmt.Errorf("%w: SetInline on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
	if v.nameIndex == nil {
		v.nameIndex = make(map[string]int)
	}

	if idx, ok := v.nameIndex[name]; ok {
		v.children[idx] = child
		return nil
	}

	v.nameIndex[name] = len(v.children)
	v.names = append(v.names, name)
	v.children = append(v.children, child)
	v.desc.Length = typeid.LengthForCount(len(v.children))
	return nil
}

// SetAliased inserts or replaces an entry in an aliased compound, keyed by
// id directly (callers resolve names to ids via a [alias.Table] themselves
// when building from string keys).
func (v *Value) SetAliased(id uint16, child Value) error {
	if v.desc.Class != typeid.ClassCompound || !v.desc.Signed {
		return fmt.Errorf("%w: SetAliased on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
	if v.aliasIndex == nil {
		v.aliasIndex = make(map[uint16]int)
	}

	if idx, ok := v.aliasIndex[id]; ok {
		v.children[idx] = child
		return nil
	}

	v.aliasIndex[id] = len(v.children)
	v.aliasKeys = append(v.aliasKeys, id)
	v.children = append(v.children, child)
	v.desc.Length = typeid.LengthForCount(len(v.children))
	return nil
}

// SetAliasedByName resolves name through table and inserts or replaces the
// corresponding entry in an aliased compound.
func (v *Value) SetAliasedByName(name string, child Value, table *alias.Table) error {
	id, err := table.ToAlias(name)
	if err != nil {
		return err
	}
	return v.SetAliased(id, child)
}

// RemoveName removes a compound entry by name.
func (v *Value) RemoveName(name string, table *alias.Table) error {
	if v.desc.Class != typeid.ClassCompound {
		return fmt.Errorf("%w: RemoveName on %s", errs.ErrTypeMismatch, v.desc.Class)
	}

	if v.desc.Signed {
		id, err := table.ToAlias(name)
		if err != nil {
			return err
		}
		idx, ok := v.aliasIndex[id]
		if !ok {
			return fmt.Errorf("%w: key %q", errs.ErrKeyNotFound, name)
		}
		v.removeChildAt(idx)
		delete(v.aliasIndex, id)
		v.aliasKeys = append(v.aliasKeys[:idx], v.aliasKeys[idx+1:]...)
		v.reindexAliased()
		return nil
	}

	idx, ok := v.nameIndex[name]
	if !ok {
		return fmt.Errorf("%w: key %q", errs.ErrKeyNotFound, name)
	}
	v.removeChildAt(idx)
	delete(v.nameIndex, name)
	v.names = append(v.names[:idx], v.names[idx+1:]...)
	v.reindexInline()
	return nil
}

func (v *Value) removeChildAt(idx int) {
	v.children = append(v.children[:idx], v.children[idx+1:]...)
	v.desc.Length = typeid.LengthForCount(len(v.children))
}

func (v *Value) reindexInline() {
	for i, name := range v.names {
		v.nameIndex[name] = i
	}
}

func (v *Value) reindexAliased() {
	for i, id := range v.aliasKeys {
		v.aliasIndex[id] = i
	}
}
