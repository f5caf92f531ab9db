package value

import (
	"fmt"
	"math"

	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
)

// AsInt64 coerces v to an int64 through standard narrowing/widening rules.
// none yields 0; bit yields 0/1; non-numeric classes fail with
// errs.ErrTypeMismatch.
func (v Value) AsInt64() (int64, error) {
	switch v.desc.Class {
	case typeid.ClassNone:
		return 0, nil
	case typeid.ClassBit:
		return boolToInt64(v.desc.Signed), nil
	case typeid.ClassInteger, typeid.ClassVarInteger:
		return v.intPayload(), nil
	case typeid.ClassFloating:
		return int64(v.floatPayload()), nil
	default:
		return 0, fmt.Errorf("%w: AsInt64 on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// AsUint64 coerces v to a uint64. See AsInt64 for the coercion rules.
func (v Value) AsUint64() (uint64, error) {
	switch v.desc.Class {
	case typeid.ClassNone:
		return 0, nil
	case typeid.ClassBit:
		return uint64(boolToInt64(v.desc.Signed)), nil
	case typeid.ClassInteger, typeid.ClassVarInteger:
		return v.bits, nil
	case typeid.ClassFloating:
		return uint64(v.floatPayload()), nil
	default:
		return 0, fmt.Errorf("%w: AsUint64 on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// AsFloat64 coerces v to a float64. See AsInt64 for the coercion rules.
func (v Value) AsFloat64() (float64, error) {
	switch v.desc.Class {
	case typeid.ClassNone:
		return 0, nil
	case typeid.ClassBit:
		return float64(boolToInt64(v.desc.Signed)), nil
	case typeid.ClassFloating:
		return v.floatPayload(), nil
	case typeid.ClassInteger, typeid.ClassVarInteger:
		if v.desc.Signed {
			return float64(v.intPayload()), nil
		}
		return float64(v.bits), nil
	default:
		return 0, fmt.Errorf("%w: AsFloat64 on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// AsBool coerces v to a bool: zero numeric values are false, everything
// else numeric is true.
func (v Value) AsBool() (bool, error) {
	switch v.desc.Class {
	case typeid.ClassBit:
		return v.desc.Signed, nil
	case typeid.ClassNone:
		return false, nil
	case typeid.ClassInteger, typeid.ClassVarInteger:
		return v.bits != 0, nil
	case typeid.ClassFloating:
		return v.floatPayload() != 0, nil
	default:
		return false, fmt.Errorf("%w: AsBool on %s", errs.ErrTypeMismatch, v.desc.Class)
	}
}

// intPayload returns an integer/var_integer payload as int64, sign-extending
// a signed value from its declared width.
func (v Value) intPayload() int64 {
	width := uint(v.desc.Length.ByteWidth() * 8)
	if v.desc.Signed && width > 0 && width < 64 {
		shift := 64 - width
		return int64(v.bits<<shift) >> shift
	}
	return int64(v.bits)
}

func (v Value) floatPayload() float64 {
	if v.desc.Length == typeid.Default {
		return float64(math.Float32frombits(uint32(v.bits)))
	}
	return math.Float64frombits(v.bits)
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
