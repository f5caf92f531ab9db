package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/typeid"
	"github.com/kvtree/enbt/value"
	"github.com/stretchr/testify/require"
)

func TestIndexArrayFixedWidth(t *testing.T) {
	arr, err := value.NewArray(value.Int32(10), value.Int32(20), value.Int32(30))
	require.NoError(t, err)

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	d, err := typeid.Decode(r)
	require.NoError(t, err)

	got, err := IndexArray(r, d, 1)
	require.NoError(t, err)
	n, err := got.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 20, n)
}

func TestIndexArrayOutOfRange(t *testing.T) {
	arr, err := value.NewArray(value.Int32(10))
	require.NoError(t, err)

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	d, err := typeid.Decode(r)
	require.NoError(t, err)

	_, err = IndexArray(r, d, 5)
	require.Error(t, err)
}

func TestIndexArrayBitElement(t *testing.T) {
	arr, err := value.NewArray()
	require.NoError(t, err)
	for _, b := range []bool{true, false, true} {
		require.NoError(t, arr.Push(value.Bool(b)))
	}

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	d, err := typeid.Decode(r)
	require.NoError(t, err)

	got, err := IndexArray(r, d, 2)
	require.NoError(t, err)
	b, err := got.AsBool()
	require.NoError(t, err)
	require.True(t, b)
}

func TestFindCompoundInline(t *testing.T) {
	c := value.NewInlineCompound()
	require.NoError(t, c.SetInline("a", value.Int32(1)))
	require.NoError(t, c.SetInline("b", value.Int32(2)))

	buf, err := Encode(c)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	d, err := typeid.Decode(r)
	require.NoError(t, err)

	got, found, err := FindCompound(r, d, "b", nil)
	require.NoError(t, err)
	require.True(t, found)
	n, err := got.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestFindCompoundNotFound(t *testing.T) {
	c := value.NewInlineCompound()
	require.NoError(t, c.SetInline("a", value.Int32(1)))

	buf, err := Encode(c)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	d, err := typeid.Decode(r)
	require.NoError(t, err)

	_, found, err := FindCompound(r, d, "z", nil)
	require.NoError(t, err)
	require.False(t, found)
}

func TestFindCompoundAliased(t *testing.T) {
	tbl := &alias.Table{}
	require.NoError(t, tbl.Set([]string{"a", "b"}))

	c := value.NewAliasedCompound()
	require.NoError(t, c.SetAliasedByName("a", value.Int32(1), tbl))
	require.NoError(t, c.SetAliasedByName("b", value.Int32(2), tbl))

	buf, err := Encode(c)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	d, err := typeid.Decode(r)
	require.NoError(t, err)

	got, found, err := FindCompound(r, d, "b", tbl)
	require.NoError(t, err)
	require.True(t, found)
	n, err := got.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func buildPathFixtureS4(t *testing.T) []byte {
	t.Helper()
	c := value.NewInlineCompound()
	require.NoError(t, c.SetInline("greet", value.String("hi")))
	require.NoError(t, c.SetInline("n", value.Int32(7)))

	buf, err := Encode(c)
	require.NoError(t, err)
	return buf
}

func TestGetValuePathS4(t *testing.T) {
	buf := buildPathFixtureS4(t)
	r := bytes.NewReader(buf)

	got, err := GetValuePath(r, []string{"n"}, nil)
	require.NoError(t, err)
	n, err := got.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 7, n)

	pos, err := r.Seek(0, 1) // io.SeekCurrent
	require.NoError(t, err)
	require.Zero(t, pos, "stream position must be restored to the start")
}

func TestGetValuePathMissingKey(t *testing.T) {
	buf := buildPathFixtureS4(t)
	r := bytes.NewReader(buf)

	_, err := GetValuePath(r, []string{"missing"}, nil)
	require.Error(t, err)

	pos, err := r.Seek(0, 1)
	require.NoError(t, err)
	require.Zero(t, pos, "stream position must be restored even on failure")
}

func TestPeekAtIsolatesPosition(t *testing.T) {
	buf := buildPathFixtureS4(t)
	r := bytes.NewReader(buf)

	var seen int64
	err := PeekAt(r, "n", nil, func(v value.Value) error {
		n, err := v.AsInt64()
		require.NoError(t, err)
		seen = n
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, seen)

	pos, err := r.Seek(0, 1)
	require.NoError(t, err)
	require.Zero(t, pos)

	// The stream must still be readable for a full normal decode afterwards.
	got, err := ReadToken(r)
	require.NoError(t, err)
	n, err := got.Get("n", nil)
	require.NoError(t, err)
	val, err := n.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 7, val)
}

func TestCursorReadArrayIterates(t *testing.T) {
	arr, err := value.NewArray(value.Int32(1), value.Int32(2), value.Int32(3))
	require.NoError(t, err)

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	ac, err := c.ReadArray()
	require.NoError(t, err)
	require.Equal(t, 3, ac.Len())

	var got []int64
	for {
		v, err := ac.Next()
		if err != nil {
			break
		}
		n, err := v.AsInt64()
		require.NoError(t, err)
		got = append(got, n)
	}
	require.Equal(t, []int64{1, 2, 3}, got)
}

func TestCursorReadArrayBitElements(t *testing.T) {
	arr, err := value.NewArray()
	require.NoError(t, err)
	bits := []bool{true, false, true, true, false, false, true, false, true}
	for _, b := range bits {
		require.NoError(t, arr.Push(value.Bool(b)))
	}

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	ac, err := c.ReadArray()
	require.NoError(t, err)
	require.Equal(t, len(bits), ac.Len())

	for i, want := range bits {
		v, err := ac.Next()
		require.NoError(t, err)
		got, err := v.AsBool()
		require.NoError(t, err)
		require.Equal(t, want, got, "bit %d", i)
	}

	_, err = ac.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestCursorReadDArrayIterates(t *testing.T) {
	d := value.NewDArray(value.Int32(1), value.String("two"), value.Bool(true))

	buf, err := Encode(d)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	dc, err := c.ReadDArray()
	require.NoError(t, err)
	require.Equal(t, 3, dc.Len())

	v1, err := dc.Next()
	require.NoError(t, err)
	n, err := v1.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	v2, err := dc.Next()
	require.NoError(t, err)
	s, err := v2.SArrayString()
	require.NoError(t, err)
	require.Equal(t, "two", s)

	v3, err := dc.Next()
	require.NoError(t, err)
	b, err := v3.AsBool()
	require.NoError(t, err)
	require.True(t, b)

	_, err = dc.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestCursorReadCompoundInline(t *testing.T) {
	c := value.NewInlineCompound()
	require.NoError(t, c.SetInline("a", value.Int32(1)))
	require.NoError(t, c.SetInline("b", value.Int32(2)))

	buf, err := Encode(c)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	cur, err := OpenCursor(r, nil)
	require.NoError(t, err)

	cc, err := cur.ReadCompound()
	require.NoError(t, err)
	require.Equal(t, 2, cc.Len())

	got := map[string]int64{}
	for i := 0; i < cc.Len(); i++ {
		key, v, err := cc.Next()
		require.NoError(t, err)
		n, err := v.AsInt64()
		require.NoError(t, err)
		got[key] = n
	}
	require.Equal(t, map[string]int64{"a": 1, "b": 2}, got)
}

func TestCursorReadCompoundAliased(t *testing.T) {
	tbl := &alias.Table{}
	require.NoError(t, tbl.Set([]string{"a", "b"}))

	c := value.NewAliasedCompound()
	require.NoError(t, c.SetAliasedByName("a", value.Int32(1), tbl))
	require.NoError(t, c.SetAliasedByName("b", value.Int32(2), tbl))

	buf, err := Encode(c)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	cur, err := OpenCursor(r, tbl)
	require.NoError(t, err)

	cc, err := cur.ReadCompound()
	require.NoError(t, err)

	got := map[string]int64{}
	for i := 0; i < cc.Len(); i++ {
		key, v, err := cc.Next()
		require.NoError(t, err)
		n, err := v.AsInt64()
		require.NoError(t, err)
		got[key] = n
	}
	require.Equal(t, map[string]int64{"a": 1, "b": 2}, got)
}

func TestCursorIterateArray(t *testing.T) {
	arr, err := value.NewArray(value.Int32(10), value.Int32(20))
	require.NoError(t, err)

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	var size int
	var sum int64
	err = c.Iterate(
		func(n int) error { size = n; return nil },
		func(i int, v value.Value) error {
			n, err := v.AsInt64()
			if err != nil {
				return err
			}
			sum += n
			return nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, 2, size)
	require.EqualValues(t, 30, sum)
}

func TestCursorBlindIterateDispatchesByClass(t *testing.T) {
	comp := value.NewInlineCompound()
	require.NoError(t, comp.SetInline("x", value.Int32(5)))

	buf, err := Encode(comp)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	compoundCalled := false
	arrayCalled := false
	err = c.BlindIterate(
		func(key string, v value.Value) error { compoundCalled = true; return nil },
		func(i int, v value.Value) error { arrayCalled = true; return nil },
	)
	require.NoError(t, err)
	require.True(t, compoundCalled)
	require.False(t, arrayCalled)
}

func TestCursorReadSArray(t *testing.T) {
	v, err := value.NewSArray(32, true, false, []uint64{1, 2, 3})
	require.NoError(t, err)

	buf, err := Encode(v)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	got, err := c.ReadSArray()
	require.NoError(t, err)
	require.Equal(t, typeid.ClassSArray, got.Class())
}

func TestCursorPeekAtCompoundIsolatesPosition(t *testing.T) {
	buf := buildPathFixtureS4(t)
	r := bytes.NewReader(buf)

	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	var seen int64
	err = c.PeekAt("n", func(child *Cursor) error {
		v, err := child.Read()
		if err != nil {
			return err
		}
		n, err := v.AsInt64()
		if err != nil {
			return err
		}
		seen = n
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, seen)

	// The stream is back where PeekAt found it: just past the one-byte
	// descriptor that OpenCursor consumed.
	pos, err := r.Seek(0, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, pos)
}

func TestCursorPeekAtArrayIndex(t *testing.T) {
	arr, err := value.NewArray(value.Int32(1), value.Int32(2), value.Int32(3))
	require.NoError(t, err)

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	var seen int64
	err = c.PeekAt("2", func(child *Cursor) error {
		v, err := child.Read()
		if err != nil {
			return err
		}
		n, err := v.AsInt64()
		if err != nil {
			return err
		}
		seen = n
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, seen)
}

func TestCursorPeekAtBitElementRejected(t *testing.T) {
	arr, err := value.NewArray()
	require.NoError(t, err)
	require.NoError(t, arr.Push(value.Bool(true)))
	require.NoError(t, arr.Push(value.Bool(false)))

	buf, err := Encode(arr)
	require.NoError(t, err)

	r := bytes.NewReader(buf)
	c, err := OpenCursor(r, nil)
	require.NoError(t, err)

	err = c.PeekAt("0", func(child *Cursor) error {
		t.Fatal("callback must not run for a packed bit element")
		return nil
	})
	require.Error(t, err)
}

func TestSkipTokenAdvancesExactly(t *testing.T) {
	v, err := value.NewArray(value.Int32(1), value.Int32(2))
	require.NoError(t, err)

	buf, err := Encode(v)
	require.NoError(t, err)

	// Append a sentinel token after it and confirm SkipToken lands exactly
	// on the sentinel's first byte.
	sentinel := value.Int8(42)
	sentinelBuf, err := Encode(sentinel)
	require.NoError(t, err)

	full := append(append([]byte(nil), buf...), sentinelBuf...)
	r := bytes.NewReader(full)

	require.NoError(t, SkipToken(r))

	got, err := ReadToken(r)
	require.NoError(t, err)
	n, err := got.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
}
