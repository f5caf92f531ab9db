// Package stream implements the ENBT streaming codec: the version header,
// the token writer and reader, the skip-without-decode path, and a
// pull-style cursor that can seek into sub-values by path without
// materializing the whole tree.
//
// It follows the layered encoder/decoder split the teacher corpus uses for
// its own blob format (a thin token layer over raw byte payloads, with a
// pooled buffer for the writer side), generalized from mebo's fixed
// numeric/text schema to ENBT's fully self-describing token stream.
package stream

import (
	"fmt"
	"io"

	"github.com/kvtree/enbt/complen"
	"github.com/kvtree/enbt/endian"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/internal/options"
	"github.com/kvtree/enbt/internal/pool"
	"github.com/kvtree/enbt/typeid"
	"github.com/kvtree/enbt/value"
	"github.com/kvtree/enbt/varint"
)

// Version is the single byte that opens every ENBT stream: high nibble is
// the major version, low nibble the minor version.
const Version byte = 0x10

// maxStructureArity mirrors value.NewStructure's bound; the writer enforces
// it defensively in case a Value was built through the raw constructors in
// value/build.go, bypassing that check.
const maxStructureArity = 15

// WriteVersion writes the one-byte stream version header.
func WriteVersion(w io.Writer) error {
	_, err := w.Write([]byte{Version})
	return err
}

// Writer emits ENBT tokens to an underlying io.Writer, using a pooled
// buffer to batch each token into a single Write call.
type Writer struct {
	w           io.Writer
	autoVersion bool
}

// WriterOption configures a Writer at construction time.
type WriterOption = options.Option[*Writer]

// WithVersionHeader makes NewWriter emit the stream version header
// immediately, before returning, instead of leaving it to an explicit
// WriteVersion call.
func WithVersionHeader() WriterOption {
	return options.NoError(func(w *Writer) {
		w.autoVersion = true
	})
}

// NewWriter wraps w in a Writer.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	writer := &Writer{w: w}
	if err := options.Apply(writer, opts...); err != nil {
		return nil, err
	}

	if writer.autoVersion {
		if err := writer.WriteVersion(); err != nil {
			return nil, err
		}
	}

	return writer, nil
}

// WriteVersion writes the stream version header.
func (w *Writer) WriteVersion() error {
	return WriteVersion(w.w)
}

// WriteValue writes v as one complete token: its descriptor, then its
// payload.
func (w *Writer) WriteValue(v value.Value) error {
	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	var err error
	buf.B, err = appendToken(buf.B, v)
	if err != nil {
		return err
	}

	_, err = w.w.Write(buf.B)
	return err
}

// Encode returns v's complete token encoding as a standalone byte slice.
func Encode(v value.Value) ([]byte, error) {
	return appendToken(nil, v)
}

func appendToken(buf []byte, v value.Value) ([]byte, error) {
	buf = v.Descriptor().Encode(buf)
	return appendPayload(buf, v)
}

func appendPayload(buf []byte, v value.Value) ([]byte, error) {
	d := v.Descriptor()

	switch d.Class {
	case typeid.ClassNone, typeid.ClassBit:
		return buf, nil

	case typeid.ClassInteger:
		width := d.Length.ByteWidth()
		start := len(buf)
		buf = append(buf, make([]byte, width)...)
		putEngineUint(buf[start:], width, v.RawBits(), d.Engine())
		return buf, nil

	case typeid.ClassVarInteger:
		widthBits := d.Length.ByteWidth() * 8
		if d.Signed {
			return varint.AppendInt(buf, widthBits, int64(v.RawBits())), nil
		}
		return varint.AppendUint(buf, widthBits, v.RawBits()), nil

	case typeid.ClassFloating:
		width := d.Length.ByteWidth()
		start := len(buf)
		buf = append(buf, make([]byte, width)...)
		if width == 4 {
			d.Engine().PutUint32(buf[start:], uint32(v.RawBits()))
		} else {
			d.Engine().PutUint64(buf[start:], v.RawBits())
		}
		return buf, nil

	case typeid.ClassUUID:
		u := v.RawUUID()
		raw := u // copy
		if d.BigEndian {
			endian.SwapInPlace(raw[:])
		}
		return append(buf, raw[:]...), nil

	case typeid.ClassSArray:
		return appendSArrayPayload(buf, v)

	case typeid.ClassArray:
		return appendArrayPayload(buf, v)

	case typeid.ClassDArray:
		return appendDArrayPayload(buf, v)

	case typeid.ClassCompound:
		return appendCompoundPayload(buf, v)

	case typeid.ClassOptional:
		if !d.Signed {
			return buf, nil
		}
		return appendToken(buf, v.ChildAt(0))

	case typeid.ClassStructure:
		return appendStructurePayload(buf, v)

	default:
		return buf, fmt.Errorf("%w: unsupported class %s for encoding", errs.ErrInvalidDescriptor, d.Class)
	}
}

func appendSArrayPayload(buf []byte, v value.Value) ([]byte, error) {
	d := v.Descriptor()
	width := d.Length.ByteWidth()
	raw := v.RawSArray()
	n := 0
	if width > 0 {
		n = len(raw) / width
	}

	var err error
	buf, err = complen.Append(buf, uint64(n))
	if err != nil {
		return buf, err
	}

	cp := append([]byte(nil), raw...)
	endian.ConvertArray(cp, width, n, d.BigEndian)
	return append(buf, cp...), nil
}

func appendArrayPayload(buf []byte, v value.Value) ([]byte, error) {
	d := v.Descriptor()
	n := v.NumChildren()
	buf = appendDefineLength(buf, d.Length, n)
	if n == 0 {
		return buf, nil
	}

	elemDesc := v.ElementDescriptor()
	if elemDesc == nil {
		return buf, fmt.Errorf("%w: array has children but no element descriptor", errs.ErrInvalidDescriptor)
	}

	if elemDesc.Class == typeid.ClassBit {
		ed := *elemDesc
		ed.Signed = false
		buf = ed.Encode(buf)
		return appendBitPacked(buf, v, n), nil
	}

	buf = elemDesc.Encode(buf)
	var err error
	for i := 0; i < n; i++ {
		buf, err = appendPayload(buf, v.ChildAt(i))
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func appendBitPacked(buf []byte, v value.Value, n int) []byte {
	nbytes := (n + 7) / 8
	start := len(buf)
	buf = append(buf, make([]byte, nbytes)...)
	for i := 0; i < n; i++ {
		b, _ := v.ChildAt(i).AsBool()
		if b {
			buf[start+i/8] |= 1 << uint(i%8)
		}
	}
	return buf
}

func appendDArrayPayload(buf []byte, v value.Value) ([]byte, error) {
	d := v.Descriptor()
	n := v.NumChildren()
	buf = appendDefineLength(buf, d.Length, n)

	var err error
	for i := 0; i < n; i++ {
		buf, err = appendToken(buf, v.ChildAt(i))
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func appendCompoundPayload(buf []byte, v value.Value) ([]byte, error) {
	d := v.Descriptor()
	n := v.NumChildren()
	buf = appendDefineLength(buf, d.Length, n)

	var err error
	for i := 0; i < n; i++ {
		if d.Signed {
			id := v.CompoundAliasKey(i)
			start := len(buf)
			buf = append(buf, 0, 0)
			endian.GetLittleEndianEngine().PutUint16(buf[start:], id)
		} else {
			name := v.CompoundInlineKey(i)
			buf, err = complen.Append(buf, uint64(len(name)))
			if err != nil {
				return buf, err
			}
			buf = append(buf, name...)
		}

		buf, err = appendToken(buf, v.ChildAt(i))
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func appendStructurePayload(buf []byte, v value.Value) ([]byte, error) {
	n := v.NumChildren()
	if n > maxStructureArity {
		return buf, fmt.Errorf("%w: structure arity %d exceeds max %d", errs.ErrOverflow, n, maxStructureArity)
	}
	buf = append(buf, byte(n))

	for i := 0; i < n; i++ {
		buf = v.ChildAt(i).Descriptor().Encode(buf)
	}

	var err error
	for i := 0; i < n; i++ {
		buf, err = appendPayload(buf, v.ChildAt(i))
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

// appendDefineLength appends n as a fixed-width little-endian integer whose
// width is length.ByteWidth(). Per spec section 6.2, define-length prefixes
// are always little-endian regardless of the descriptor's endian bit.
func appendDefineLength(buf []byte, length typeid.Length, n int) []byte {
	width := length.ByteWidth()
	start := len(buf)
	buf = append(buf, make([]byte, width)...)
	putEngineUint(buf[start:], width, uint64(n), endian.GetLittleEndianEngine())
	return buf
}

func putEngineUint(buf []byte, width int, v uint64, engine endian.EndianEngine) {
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		engine.PutUint16(buf, uint16(v))
	case 4:
		engine.PutUint32(buf, uint32(v))
	case 8:
		engine.PutUint64(buf, v)
	}
}
