package stream

import (
	"fmt"
	"io"

	"github.com/kvtree/enbt/complen"
	"github.com/kvtree/enbt/endian"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
	"github.com/kvtree/enbt/value"
	"github.com/kvtree/enbt/varint"
)

// byteReader is the minimal capability the token reader and skipper need:
// a plain byte-wise cursor, with no seek requirement. The cursor in
// cursor.go additionally requires io.Seeker for peek/path lookups.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// CheckVersion reads the one-byte stream version header and fails with
// errs.ErrUnsupportedVersion unless it is exactly Version.
func CheckVersion(r io.ByteReader) error {
	b, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading version byte: %v", errs.ErrFormatError, err)
	}
	if b != Version {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", errs.ErrUnsupportedVersion, b, Version)
	}
	return nil
}

// ReadToken reads one full token from r: a descriptor, then its payload,
// materialized into a value.Value tree.
func ReadToken(r byteReader) (value.Value, error) {
	d, err := typeid.Decode(r)
	if err != nil {
		return value.Value{}, err
	}
	return readPayload(r, d)
}

func readPayload(r byteReader, d typeid.Descriptor) (value.Value, error) {
	switch d.Class {
	case typeid.ClassNone, typeid.ClassBit:
		return value.FromDescriptor(d), nil

	case typeid.ClassInteger:
		width := d.Length.ByteWidth()
		buf, err := readN(r, width)
		if err != nil {
			return value.Value{}, err
		}
		return value.ScalarFromBits(d, getEngineUint(buf, width, d.Engine())), nil

	case typeid.ClassVarInteger:
		widthBits := d.Length.ByteWidth() * 8
		// Signed and unsigned alike are kept as the width-truncated unsigned
		// pattern, the same form the value constructors store.
		v, err := varint.ReadUint(r, widthBits)
		if err != nil {
			return value.Value{}, err
		}
		return value.ScalarFromBits(d, v), nil

	case typeid.ClassFloating:
		width := d.Length.ByteWidth()
		buf, err := readN(r, width)
		if err != nil {
			return value.Value{}, err
		}
		if width == 4 {
			return value.ScalarFromBits(d, uint64(d.Engine().Uint32(buf))), nil
		}
		return value.ScalarFromBits(d, d.Engine().Uint64(buf)), nil

	case typeid.ClassUUID:
		buf, err := readN(r, 16)
		if err != nil {
			return value.Value{}, err
		}
		if d.BigEndian {
			endian.SwapInPlace(buf)
		}
		var arr [16]byte
		copy(arr[:], buf)
		return value.UUIDFromBytes(d, arr), nil

	case typeid.ClassSArray:
		return readSArrayPayload(r, d)

	case typeid.ClassArray:
		return readArrayPayload(r, d)

	case typeid.ClassDArray:
		return readDArrayPayload(r, d)

	case typeid.ClassCompound:
		return readCompoundPayload(r, d)

	case typeid.ClassOptional:
		if !d.Signed {
			return value.ContainerFromChildren(d, nil), nil
		}
		child, err := ReadToken(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.ContainerFromChildren(d, []value.Value{child}), nil

	case typeid.ClassStructure:
		return readStructurePayload(r, d)

	default:
		return value.Value{}, fmt.Errorf("%w: unsupported class %s for decoding", errs.ErrInvalidDescriptor, d.Class)
	}
}

func readSArrayPayload(r byteReader, d typeid.Descriptor) (value.Value, error) {
	n, err := complen.Read(r)
	if err != nil {
		return value.Value{}, err
	}

	width := d.Length.ByteWidth()
	raw, err := readN(r, width*int(n))
	if err != nil {
		return value.Value{}, err
	}

	endian.ConvertArray(raw, width, int(n), d.BigEndian)
	return value.SArrayFromRaw(d, raw), nil
}

func readArrayPayload(r byteReader, d typeid.Descriptor) (value.Value, error) {
	n, err := readDefineLength(r, d.Length)
	if err != nil {
		return value.Value{}, err
	}
	if n == 0 {
		return value.EmptyArrayFromDescriptor(d), nil
	}

	elemDesc, err := typeid.Decode(r)
	if err != nil {
		return value.Value{}, err
	}

	if elemDesc.Class == typeid.ClassBit {
		nbytes := (int(n) + 7) / 8
		packed, err := readN(r, nbytes)
		if err != nil {
			return value.Value{}, err
		}
		children := make([]value.Value, n)
		for i := 0; i < int(n); i++ {
			bit := packed[i/8]&(1<<uint(i%8)) != 0
			children[i] = value.Bool(bit)
		}
		return value.ArrayFromChildren(d, elemDesc, children), nil
	}

	children := make([]value.Value, n)
	for i := 0; i < int(n); i++ {
		children[i], err = readPayload(r, elemDesc)
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.ArrayFromChildren(d, elemDesc, children), nil
}

func readDArrayPayload(r byteReader, d typeid.Descriptor) (value.Value, error) {
	n, err := readDefineLength(r, d.Length)
	if err != nil {
		return value.Value{}, err
	}

	children := make([]value.Value, n)
	for i := range children {
		children[i], err = ReadToken(r)
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.ContainerFromChildren(d, children), nil
}

func readCompoundPayload(r byteReader, d typeid.Descriptor) (value.Value, error) {
	n, err := readDefineLength(r, d.Length)
	if err != nil {
		return value.Value{}, err
	}

	children := make([]value.Value, n)
	if d.Signed {
		aliasKeys := make([]uint16, n)
		for i := range children {
			idBuf, err := readN(r, 2)
			if err != nil {
				return value.Value{}, err
			}
			aliasKeys[i] = endian.GetLittleEndianEngine().Uint16(idBuf)

			children[i], err = ReadToken(r)
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.AliasedCompoundFromEntries(d, aliasKeys, children), nil
	}

	names := make([]string, n)
	for i := range children {
		slen, err := complen.Read(r)
		if err != nil {
			return value.Value{}, err
		}
		nameBuf, err := readN(r, int(slen))
		if err != nil {
			return value.Value{}, err
		}
		names[i] = string(nameBuf)

		children[i], err = ReadToken(r)
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.InlineCompoundFromEntries(d, names, children), nil
}

func readStructurePayload(r byteReader, d typeid.Descriptor) (value.Value, error) {
	arity, err := r.ReadByte()
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: reading structure arity: %v", errs.ErrFormatError, err)
	}
	if arity > maxStructureArity {
		return value.Value{}, fmt.Errorf("%w: structure arity %d exceeds max %d", errs.ErrOverflow, arity, maxStructureArity)
	}

	descs := make([]typeid.Descriptor, arity)
	for i := range descs {
		descs[i], err = typeid.Decode(r)
		if err != nil {
			return value.Value{}, err
		}
	}

	children := make([]value.Value, arity)
	for i := range children {
		children[i], err = readPayload(r, descs[i])
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.ContainerFromChildren(d, children), nil
}

// readDefineLength reads a fixed-width little-endian length prefix whose
// width is length.ByteWidth(); define-length prefixes are always
// little-endian per spec section 6.2.
func readDefineLength(r byteReader, length typeid.Length) (uint64, error) {
	width := length.ByteWidth()
	buf, err := readN(r, width)
	if err != nil {
		return 0, err
	}
	return getEngineUint(buf, width, endian.GetLittleEndianEngine()), nil
}

func readN(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading %d bytes: %v", errs.ErrFormatError, n, err)
	}
	return buf, nil
}

func getEngineUint(buf []byte, width int, engine endian.EndianEngine) uint64 {
	switch width {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(engine.Uint16(buf))
	case 4:
		return uint64(engine.Uint32(buf))
	case 8:
		return engine.Uint64(buf)
	default:
		return 0
	}
}
