// Package endian provides byte order utilities for the ENBT wire format.
//
// It extends Go's standard encoding/binary package by combining ByteOrder and
// AppendByteOrder into a single EndianEngine interface, and adds the
// in-place swap/array-convert helpers the type descriptor codec needs when a
// payload's declared endianness differs from the host's.
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from the
// standard library into a single interface, matching binary.LittleEndian and
// binary.BigEndian without requiring wrapper types.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	// For a big-endian system, the MSB (0x01) is first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// IsNativeBigEndian reports whether the host is big-endian.
func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// CompareNativeEndian reports whether engine matches the host's byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// EngineFor returns the little- or big-endian engine for the given
// "is big endian" bit, as stored in a type descriptor.
func EngineFor(big bool) EndianEngine {
	if big {
		return GetBigEndianEngine()
	}

	return GetLittleEndianEngine()
}

// SwapInPlace reverses the byte order of buf. Callers use it to move a
// payload between the wire's declared endianness and the host's without an
// intermediate allocation.
func SwapInPlace(buf []byte) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// ConvertArray swaps the byte order of n consecutive elemWidth-byte elements
// of buf in place. It is a no-op when needsSwap is false or elemWidth <= 1,
// matching the rule that conversion is the identity when the declared
// endianness already matches the target.
func ConvertArray(buf []byte, elemWidth, n int, needsSwap bool) {
	if !needsSwap || elemWidth <= 1 {
		return
	}

	for i := 0; i < n; i++ {
		start := i * elemWidth
		SwapInPlace(buf[start : start+elemWidth])
	}
}
