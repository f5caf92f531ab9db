package value

import (
	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/typeid"
)

// Iterate walks v's children as (name, child) pairs, per spec section 4.5.
// For array/darray/structure/optional, name is always empty. For aliased
// compounds, table resolves each key; a missing alias aborts the walk with
// that error. fn returning a non-nil error also aborts the walk, and that
// error is returned to the caller.
func (v *Value) Iterate(table *alias.Table, fn func(name string, child *Value) error) error {
	switch v.desc.Class {
	case typeid.ClassArray, typeid.ClassDArray, typeid.ClassStructure, typeid.ClassOptional:
		for i := range v.children {
			if err := fn("", &v.children[i]); err != nil {
				return err
			}
		}
	case typeid.ClassCompound:
		if v.desc.Signed {
			for i, id := range v.aliasKeys {
				name, err := table.FromAlias(id)
				if err != nil {
					return err
				}
				if err := fn(name, &v.children[i]); err != nil {
					return err
				}
			}
			return nil
		}
		for i, name := range v.names {
			if err := fn(name, &v.children[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
