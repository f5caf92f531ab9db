package value

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/typeid"
	"github.com/stretchr/testify/require"
)

func TestScalarConstructorsRoundTrip(t *testing.T) {
	require.Equal(t, typeid.ClassInteger, Int32(-7).Class())

	n, err := Int32(-7).AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, -7, n)

	u, err := Uint8(200).AsUint64()
	require.NoError(t, err)
	require.EqualValues(t, 200, u)

	f, err := Float64(3.5).AsFloat64()
	require.NoError(t, err)
	require.Equal(t, 3.5, f)

	f32, err := Float32(1.5).AsFloat64()
	require.NoError(t, err)
	require.Equal(t, 1.5, f32)
}

func TestBoolValue(t *testing.T) {
	v := Bool(true)
	b, err := v.AsBool()
	require.NoError(t, err)
	require.True(t, b)

	require.Equal(t, typeid.ClassBit, v.Class())
}

func TestNoneCoercesToZero(t *testing.T) {
	n := None()
	i, err := n.AsInt64()
	require.NoError(t, err)
	require.Zero(t, i)

	f, err := n.AsFloat64()
	require.NoError(t, err)
	require.Zero(t, f)
}

func TestCoerceNonNumericFails(t *testing.T) {
	arr, err := NewArray(Int32(1))
	require.NoError(t, err)

	_, err = arr.AsInt64()
	require.Error(t, err)
}

func TestUUIDRoundTrip(t *testing.T) {
	var raw [16]byte
	for i := range raw {
		raw[i] = byte(i)
	}

	v := UUID(raw)
	got, err := v.UUIDBytes()
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestUUIDFromStringRoundTrip(t *testing.T) {
	const s = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

	v, err := UUIDFromString(s)
	require.NoError(t, err)

	got, err := v.UUIDString()
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestUUIDFromStringRejectsMalformed(t *testing.T) {
	_, err := UUIDFromString("not-a-uuid")
	require.Error(t, err)
}

func TestStringSArrayRoundTrip(t *testing.T) {
	v := String("hi")
	require.Equal(t, 2, v.SArrayLen())

	s, err := v.SArrayString()
	require.NoError(t, err)
	require.Equal(t, "hi", s)

	elem, err := v.SArrayAt(0)
	require.NoError(t, err)
	got, err := elem.AsUint64()
	require.NoError(t, err)
	require.EqualValues(t, 'h', got)
}

func TestNewArrayHomogeneityEnforced(t *testing.T) {
	_, err := NewArray(Int32(1), Uint8(2))
	require.Error(t, err)
}

func TestArrayPushAndResize(t *testing.T) {
	arr, err := NewArray()
	require.NoError(t, err)

	require.NoError(t, arr.Push(Int32(1)))
	require.NoError(t, arr.Push(Int32(2)))
	require.Equal(t, 2, arr.Len())
	require.Equal(t, typeid.Tiny, arr.Descriptor().Length)

	require.NoError(t, arr.Resize(300))
	require.Equal(t, 300, arr.Len())
	require.Equal(t, typeid.Short, arr.Descriptor().Length, "length class must shrink-to-fit after resize")

	child, err := arr.At(0)
	require.NoError(t, err)
	n, err := child.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = arr.At(301)
	require.Error(t, err)
}

func TestOptionalSetAndEmpty(t *testing.T) {
	v := NewOptional(nil)
	require.False(t, v.Descriptor().Signed)
	require.Equal(t, 0, v.Len())

	child := Int32(42)
	require.NoError(t, v.SetOptional(&child))
	require.True(t, v.Descriptor().Signed)
	require.Equal(t, 1, v.Len())

	require.NoError(t, v.SetOptional(nil))
	require.False(t, v.Descriptor().Signed)
}

func TestStructureArityLimit(t *testing.T) {
	elems := make([]Value, 16)
	for i := range elems {
		elems[i] = Int8(int8(i))
	}

	_, err := NewStructure(elems...)
	require.Error(t, err)

	_, err = NewStructure(elems[:15]...)
	require.NoError(t, err)
}

func TestInlineCompoundS1(t *testing.T) {
	// Mirrors spec scenario S1: { "greet": "hi", "n": i32(7) }.
	c := NewInlineCompound()
	require.NoError(t, c.SetInline("greet", String("hi")))
	require.NoError(t, c.SetInline("n", Int32(7)))

	require.True(t, c.Contains("greet", nil))
	require.True(t, c.Contains("n", nil))

	got, err := c.Get("n", nil)
	require.NoError(t, err)
	n, err := got.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
}

func TestAliasedCompoundS3(t *testing.T) {
	tbl := &alias.Table{}
	require.NoError(t, tbl.Set([]string{"a", "b"}))

	c := NewAliasedCompound()
	require.NoError(t, c.SetAliasedByName("a", Uint8(1), tbl))
	require.NoError(t, c.SetAliasedByName("b", Uint8(2), tbl))

	got, err := c.Get("b", tbl)
	require.NoError(t, err)
	n, err := got.AsUint64()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestAliasedCompoundIterateResolvesNames(t *testing.T) {
	tbl := &alias.Table{}
	require.NoError(t, tbl.Set([]string{"a", "b"}))

	c := NewAliasedCompound()
	require.NoError(t, c.SetAliasedByName("a", Uint8(1), tbl))
	require.NoError(t, c.SetAliasedByName("b", Uint8(2), tbl))

	var names []string
	err := c.Iterate(tbl, func(name string, child *Value) error {
		names = append(names, name)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}

func TestAliasedCompoundIterateMissingAlias(t *testing.T) {
	tbl := &alias.Table{}
	require.NoError(t, tbl.Set([]string{"a"}))

	c := NewAliasedCompound()
	require.NoError(t, c.SetAliased(5, Uint8(1))) // no string at index 5

	err := c.Iterate(tbl, func(name string, child *Value) error { return nil })
	require.Error(t, err)
}

func TestCompoundOverflowS6(t *testing.T) {
	// Mirrors spec scenario S6: a compound, tiny with 300 entries overflows
	// the tiny length class.
	c := NewInlineCompound()
	for i := 0; i < 300; i++ {
		require.NoError(t, c.SetInline(fmt.Sprintf("k%d", i), Uint8(1)))
	}

	require.NotEqual(t, typeid.Tiny, c.Descriptor().Length, "300 entries must not fit a tiny length class")
}

func TestEqualityStructural(t *testing.T) {
	a, err := NewArray(Int32(1), Int32(2))
	require.NoError(t, err)
	b, err := NewArray(Int32(1), Int32(2))
	require.NoError(t, err)

	require.True(t, a.Equal(b))

	c, err := NewArray(Int32(1), Int32(3))
	require.NoError(t, err)
	require.False(t, a.Equal(c))
}

// TestCloneDeepEqualViaCmp checks a clone against its original with go-cmp,
// which dispatches to Value's own Equal method (its signature matches
// cmp's "has an Equal(T) bool method" convention) instead of comparing
// unexported fields directly.
func TestCloneDeepEqualViaCmp(t *testing.T) {
	c := NewInlineCompound()
	require.NoError(t, c.SetInline("x", Int32(1)))
	require.NoError(t, c.SetInline("y", Float64(2.5)))

	clone := c.Clone()
	if diff := cmp.Diff(c, clone); diff != "" {
		t.Fatalf("clone diverged from original (-orig +clone):\n%s", diff)
	}

	require.NoError(t, clone.SetInline("x", Int32(9)))
	if diff := cmp.Diff(c, clone); diff == "" {
		t.Fatal("expected a diff after mutating the clone, got none")
	}
}

func TestEqualityOptionalEmptyVsPresent(t *testing.T) {
	empty := NewOptional(nil)
	other := NewOptional(nil)
	require.True(t, empty.Equal(other))

	child := Int32(1)
	present := NewOptional(&child)
	require.False(t, empty.Equal(present))
}

func TestCloneIsDeepCopy(t *testing.T) {
	c := NewInlineCompound()
	require.NoError(t, c.SetInline("x", Int32(1)))

	clone := c.Clone()
	require.NoError(t, clone.SetInline("x", Int32(2)))

	orig, err := c.Get("x", nil)
	require.NoError(t, err)
	n, err := orig.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "mutating the clone must not affect the original")
}

func TestFastHashStableAndDiscriminating(t *testing.T) {
	a := Int32(7)
	b := Int32(7)
	c := Int32(8)

	require.Equal(t, a.FastHash(), b.FastHash())
	require.NotEqual(t, a.FastHash(), c.FastHash())
}
