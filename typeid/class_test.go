package typeid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassString(t *testing.T) {
	require.Equal(t, "none", ClassNone.String())
	require.Equal(t, "integer", ClassInteger.String())
	require.Equal(t, "floating", ClassFloating.String())
	require.Equal(t, "var_integer", ClassVarInteger.String())
	require.Equal(t, "uuid", ClassUUID.String())
	require.Equal(t, "sarray", ClassSArray.String())
	require.Equal(t, "compound", ClassCompound.String())
	require.Equal(t, "darray", ClassDArray.String())
	require.Equal(t, "array", ClassArray.String())
	require.Equal(t, "structure", ClassStructure.String())
	require.Equal(t, "optional", ClassOptional.String())
	require.Equal(t, "bit", ClassBit.String())
	require.Equal(t, "domain", ClassDomain.String())
	require.Equal(t, "unknown", Class(0xFF).String())
}

func TestClassIsContainer(t *testing.T) {
	containers := []Class{ClassCompound, ClassDArray, ClassArray, ClassStructure, ClassOptional}
	for _, c := range containers {
		require.True(t, c.IsContainer(), "%s should be a container", c)
	}

	scalars := []Class{ClassNone, ClassInteger, ClassFloating, ClassVarInteger, ClassUUID, ClassSArray, ClassBit, ClassDomain}
	for _, c := range scalars {
		require.False(t, c.IsContainer(), "%s should not be a container", c)
	}
}

func TestLengthByteWidth(t *testing.T) {
	require.Equal(t, 1, Tiny.ByteWidth())
	require.Equal(t, 2, Short.ByteWidth())
	require.Equal(t, 4, Default.ByteWidth())
	require.Equal(t, 8, Long.ByteWidth())
}

func TestLengthString(t *testing.T) {
	require.Equal(t, "tiny", Tiny.String())
	require.Equal(t, "short", Short.String())
	require.Equal(t, "default", Default.String())
	require.Equal(t, "long", Long.String())
}

func TestLengthForCount(t *testing.T) {
	require.Equal(t, Tiny, LengthForCount(0))
	require.Equal(t, Tiny, LengthForCount(0xFF))
	require.Equal(t, Short, LengthForCount(0x100))
	require.Equal(t, Short, LengthForCount(0xFFFF))
	require.Equal(t, Default, LengthForCount(0x10000))
	require.Equal(t, Default, LengthForCount(0xFFFFFFFF))
}

func TestLengthForUint64(t *testing.T) {
	require.Equal(t, Tiny, LengthForUint64(0))
	require.Equal(t, Tiny, LengthForUint64(0xFF))
	require.Equal(t, Short, LengthForUint64(0x100))
	require.Equal(t, Default, LengthForUint64(0x10000))
	require.Equal(t, Long, LengthForUint64(0x100000000))
}
