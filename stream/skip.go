package stream

import (
	"io"

	"github.com/kvtree/enbt/complen"
	"github.com/kvtree/enbt/typeid"
	"github.com/kvtree/enbt/varint"
)

// SkipToken advances r past one full token (descriptor and payload)
// without materializing a value.
func SkipToken(r byteReader) error {
	d, err := typeid.Decode(r)
	if err != nil {
		return err
	}
	return SkipValue(r, d)
}

// SkipValue advances r past the payload for an already-decoded descriptor.
// For arrays of fast-indexable elements (fixed-width integer/float/uuid,
// or bit) it computes the byte count and seeks in one step when r
// implements io.Seeker; otherwise, and for every other class, it
// recurses/discards byte by byte.
func SkipValue(r byteReader, d typeid.Descriptor) error {
	switch d.Class {
	case typeid.ClassNone, typeid.ClassBit:
		return nil

	case typeid.ClassInteger, typeid.ClassFloating:
		return discard(r, d.Length.ByteWidth())

	case typeid.ClassVarInteger:
		widthBits := d.Length.ByteWidth() * 8
		_, err := varint.ReadUint(r, widthBits)
		return err

	case typeid.ClassUUID:
		return discard(r, 16)

	case typeid.ClassSArray:
		n, err := complen.Read(r)
		if err != nil {
			return err
		}
		return discard(r, int(n)*d.Length.ByteWidth())

	case typeid.ClassArray:
		return skipArray(r, d)

	case typeid.ClassDArray:
		n, err := readDefineLength(r, d.Length)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := SkipToken(r); err != nil {
				return err
			}
		}
		return nil

	case typeid.ClassCompound:
		return skipCompound(r, d)

	case typeid.ClassOptional:
		if !d.Signed {
			return nil
		}
		return SkipToken(r)

	case typeid.ClassStructure:
		return skipStructure(r)

	default:
		return nil
	}
}

func skipArray(r byteReader, d typeid.Descriptor) error {
	n, err := readDefineLength(r, d.Length)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	elemDesc, err := typeid.Decode(r)
	if err != nil {
		return err
	}

	switch elemDesc.Class {
	case typeid.ClassBit:
		return discard(r, (int(n)+7)/8)
	case typeid.ClassInteger, typeid.ClassFloating:
		return discard(r, int(n)*elemDesc.Length.ByteWidth())
	case typeid.ClassUUID:
		return discard(r, int(n)*16)
	default:
		for i := uint64(0); i < n; i++ {
			if err := SkipValue(r, elemDesc); err != nil {
				return err
			}
		}
		return nil
	}
}

func skipCompound(r byteReader, d typeid.Descriptor) error {
	n, err := readDefineLength(r, d.Length)
	if err != nil {
		return err
	}

	for i := uint64(0); i < n; i++ {
		if d.Signed {
			if err := discard(r, 2); err != nil {
				return err
			}
		} else {
			slen, err := complen.Read(r)
			if err != nil {
				return err
			}
			if err := discard(r, int(slen)); err != nil {
				return err
			}
		}
		if err := SkipToken(r); err != nil {
			return err
		}
	}
	return nil
}

func skipStructure(r byteReader) error {
	arity, err := r.ReadByte()
	if err != nil {
		return err
	}

	descs := make([]typeid.Descriptor, arity)
	for i := range descs {
		descs[i], err = typeid.Decode(r)
		if err != nil {
			return err
		}
	}
	for _, d := range descs {
		if err := SkipValue(r, d); err != nil {
			return err
		}
	}
	return nil
}

// discard advances r by n bytes, seeking directly when r implements
// io.Seeker and falling back to a read-and-discard otherwise.
func discard(r byteReader, n int) error {
	if n == 0 {
		return nil
	}
	if seeker, ok := r.(io.Seeker); ok {
		_, err := seeker.Seek(int64(n), io.SeekCurrent)
		return err
	}

	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}
