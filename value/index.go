package value

import (
	"fmt"

	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
)

// At returns the i-th child of an array/darray/structure/optional value.
// Out-of-range fails with errs.ErrOutOfRange.
func (v *Value) At(i int) (*Value, error) {
	switch v.desc.Class {
	case typeid.ClassArray, typeid.ClassDArray, typeid.ClassStructure, typeid.ClassOptional:
		if i < 0 || i >= len(v.children) {
			return nil, fmt.Errorf("%w: index %d, length %d", errs.ErrOutOfRange, i, len(v.children))
		}
		return &v.children[i], nil
	default:
		return nil, fmt.Errorf("%w: At on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// Len returns the number of children (array/darray/structure/compound) or
// packed elements (sarray).
func (v Value) Len() int {
	switch v.desc.Class {
	case typeid.ClassSArray:
		return v.SArrayLen()
	default:
		return len(v.children)
	}
}

// Get looks up a compound value by name. For aliased compounds, table
// resolves the name to an alias id first.
func (v *Value) Get(name string, table *alias.Table) (*Value, error) {
	if v.desc.Class != typeid.ClassCompound {
		return nil, fmt.Errorf("%w: Get on %s", errs.ErrTypeMismatch, v.desc.Class)
	}

	if v.desc.Signed {
		id, err := table.ToAlias(name)
		if err != nil {
			return nil, err
		}
		idx, ok := v.aliasIndex[id]
		if !ok {
			return nil, fmt.Errorf("%w: key %q", errs.ErrKeyNotFound, name)
		}
		return &v.children[idx], nil
	}

	idx, ok := v.nameIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: key %q", errs.ErrKeyNotFound, name)
	}
	return &v.children[idx], nil
}

// Contains reports whether a compound has an entry for name. It never
// fails; a missing alias simply reports false.
func (v Value) Contains(name string, table *alias.Table) bool {
	if v.desc.Class != typeid.ClassCompound {
		return false
	}

	if v.desc.Signed {
		id, err := table.ToAlias(name)
		if err != nil {
			return false
		}
		_, ok := v.aliasIndex[id]
		return ok
	}

	_, ok := v.nameIndex[name]
	return ok
}
