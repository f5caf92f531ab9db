package stream

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/complen"
	"github.com/kvtree/enbt/endian"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/typeid"
	"github.com/kvtree/enbt/value"
)

// Cursor is the pull-style reader spec section 4.7 calls value_read_stream:
// it holds a token's descriptor, already consumed from r, and lets the
// caller decide how to consume the payload — fully (Read), not at all
// (Skip), element-by-element (the typed openers, Iterate/BlindIterate), or
// by peeking one child without disturbing the rest of the stream (PeekAt).
// It is the lazy counterpart to ReadToken: ReadToken always materializes a
// full value.Value tree, while a Cursor lets a caller walk a large
// array/darray/compound without holding more than one element in memory at
// a time, grounded on mebo's blob.NumericDecoder index-and-decode-on-demand
// pattern.
type Cursor struct {
	r     SeekReader
	td    typeid.Descriptor
	table *alias.Table
}

// NewCursor wraps an already-decoded descriptor td and the stream r
// positioned right after it.
func NewCursor(r SeekReader, td typeid.Descriptor, table *alias.Table) *Cursor {
	return &Cursor{r: r, td: td, table: table}
}

// OpenCursor decodes the next token's descriptor from r and returns a
// Cursor positioned at its payload.
func OpenCursor(r SeekReader, table *alias.Table) (*Cursor, error) {
	td, err := typeid.Decode(r)
	if err != nil {
		return nil, err
	}
	return NewCursor(r, td, table), nil
}

// Descriptor returns the token's already-consumed descriptor.
func (c *Cursor) Descriptor() typeid.Descriptor {
	return c.td
}

// Read materializes the full value, exactly like ReadToken would have for
// the token this cursor already decoded the descriptor of.
func (c *Cursor) Read() (value.Value, error) {
	return readPayload(c.r, c.td)
}

// Skip advances past the payload without decoding it.
func (c *Cursor) Skip() error {
	return SkipValue(c.r, c.td)
}

// ArrayCursor streams an array's elements one at a time. The element
// descriptor is read once, up front; each Next call decodes (or, for a
// packed bit array, unpacks) exactly one element.
type ArrayCursor struct {
	r        SeekReader
	n        int
	elemDesc typeid.Descriptor
	i        int
	bitByte  byte
}

// Len returns the array's element count.
func (ac *ArrayCursor) Len() int { return ac.n }

// Next decodes the next element, or returns io.EOF once Len elements have
// been read.
func (ac *ArrayCursor) Next() (value.Value, error) {
	if ac.i >= ac.n {
		return value.Value{}, io.EOF
	}

	if ac.elemDesc.Class == typeid.ClassBit {
		if ac.i%8 == 0 {
			buf, err := readN(ac.r, 1)
			if err != nil {
				return value.Value{}, err
			}
			ac.bitByte = buf[0]
		}
		bit := ac.bitByte&(1<<uint(ac.i%8)) != 0
		ac.i++
		return value.Bool(bit), nil
	}

	v, err := readPayload(ac.r, ac.elemDesc)
	if err != nil {
		return value.Value{}, err
	}
	ac.i++
	return v, nil
}

// ReadArray opens the array this cursor's descriptor names, reading its
// define-length and (if non-empty) its element descriptor, and returns an
// ArrayCursor over the remaining packed/encoded elements.
func (c *Cursor) ReadArray() (*ArrayCursor, error) {
	if c.td.Class != typeid.ClassArray {
		return nil, fmt.Errorf("%w: ReadArray on %s", errs.ErrTypeMismatch, c.td.Class)
	}
	n, err := readDefineLength(c.r, c.td.Length)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return &ArrayCursor{r: c.r}, nil
	}

	elemDesc, err := typeid.Decode(c.r)
	if err != nil {
		return nil, err
	}
	return &ArrayCursor{r: c.r, n: int(n), elemDesc: elemDesc}, nil
}

// DArrayCursor streams a darray's elements one full token at a time.
type DArrayCursor struct {
	r SeekReader
	n int
	i int
}

// Len returns the darray's element count.
func (dc *DArrayCursor) Len() int { return dc.n }

// Next reads the next element as a full token, or returns io.EOF once Len
// elements have been read.
func (dc *DArrayCursor) Next() (value.Value, error) {
	if dc.i >= dc.n {
		return value.Value{}, io.EOF
	}
	v, err := ReadToken(dc.r)
	if err != nil {
		return value.Value{}, err
	}
	dc.i++
	return v, nil
}

// ReadDArray opens the darray this cursor's descriptor names, reading its
// define-length, and returns a DArrayCursor over the remaining tokens.
func (c *Cursor) ReadDArray() (*DArrayCursor, error) {
	if c.td.Class != typeid.ClassDArray {
		return nil, fmt.Errorf("%w: ReadDArray on %s", errs.ErrTypeMismatch, c.td.Class)
	}
	n, err := readDefineLength(c.r, c.td.Length)
	if err != nil {
		return nil, err
	}
	return &DArrayCursor{r: c.r, n: int(n)}, nil
}

// CompoundCursor streams a compound's entries one key/value pair at a
// time. For an aliased compound, the key is resolved through table when
// one is available; otherwise it is the decimal alias id.
type CompoundCursor struct {
	r       SeekReader
	aliased bool
	n       int
	i       int
	table   *alias.Table
}

// Len returns the compound's entry count.
func (cc *CompoundCursor) Len() int { return cc.n }

// Next reads the next entry's key and value, or returns io.EOF once Len
// entries have been read.
func (cc *CompoundCursor) Next() (string, value.Value, error) {
	if cc.i >= cc.n {
		return "", value.Value{}, io.EOF
	}

	var key string
	if cc.aliased {
		idBuf, err := readN(cc.r, 2)
		if err != nil {
			return "", value.Value{}, err
		}
		id := endian.GetLittleEndianEngine().Uint16(idBuf)
		if cc.table != nil {
			key, err = cc.table.FromAlias(id)
			if err != nil {
				return "", value.Value{}, err
			}
		} else {
			key = strconv.Itoa(int(id))
		}
	} else {
		slen, err := complen.Read(cc.r)
		if err != nil {
			return "", value.Value{}, err
		}
		nameBuf, err := readN(cc.r, int(slen))
		if err != nil {
			return "", value.Value{}, err
		}
		key = string(nameBuf)
	}

	v, err := ReadToken(cc.r)
	if err != nil {
		return "", value.Value{}, err
	}
	cc.i++
	return key, v, nil
}

// ReadCompound opens the compound this cursor's descriptor names, reading
// its define-length, and returns a CompoundCursor over the remaining
// entries.
func (c *Cursor) ReadCompound() (*CompoundCursor, error) {
	if c.td.Class != typeid.ClassCompound {
		return nil, fmt.Errorf("%w: ReadCompound on %s", errs.ErrTypeMismatch, c.td.Class)
	}
	n, err := readDefineLength(c.r, c.td.Length)
	if err != nil {
		return nil, err
	}
	return &CompoundCursor{r: c.r, aliased: c.td.Signed, n: int(n), table: c.table}, nil
}

// ReadSArray decodes the sarray this cursor's descriptor names. sarray
// elements are already a flat, fixed-width byte run, so there is no lazy
// benefit to a per-element opener the way there is for array/darray/
// compound; this reads the whole packed payload in one pass.
func (c *Cursor) ReadSArray() (value.Value, error) {
	if c.td.Class != typeid.ClassSArray {
		return value.Value{}, fmt.Errorf("%w: ReadSArray on %s", errs.ErrTypeMismatch, c.td.Class)
	}
	return readSArrayPayload(c.r, c.td)
}

// Iterate streams an array or darray's elements through itemCb, reporting
// the element count to sizeCb first when sizeCb is non-nil. It never holds
// more than one decoded element in memory at a time.
func (c *Cursor) Iterate(sizeCb func(n int) error, itemCb func(i int, v value.Value) error) error {
	switch c.td.Class {
	case typeid.ClassArray:
		ac, err := c.ReadArray()
		if err != nil {
			return err
		}
		if sizeCb != nil {
			if err := sizeCb(ac.Len()); err != nil {
				return err
			}
		}
		for i := 0; i < ac.Len(); i++ {
			v, err := ac.Next()
			if err != nil {
				return err
			}
			if err := itemCb(i, v); err != nil {
				return err
			}
		}
		return nil

	case typeid.ClassDArray:
		dc, err := c.ReadDArray()
		if err != nil {
			return err
		}
		if sizeCb != nil {
			if err := sizeCb(dc.Len()); err != nil {
				return err
			}
		}
		for i := 0; i < dc.Len(); i++ {
			v, err := dc.Next()
			if err != nil {
				return err
			}
			if err := itemCb(i, v); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: Iterate on %s", errs.ErrTypeMismatch, c.td.Class)
	}
}

// BlindIterate dispatches to compoundCb for a compound or arrayCb for an
// array/darray, so the caller doesn't need to check the type class first
// ("blind" to which shape the stream actually holds). Only the callback
// matching the token's actual class is ever invoked.
func (c *Cursor) BlindIterate(compoundCb func(key string, v value.Value) error, arrayCb func(i int, v value.Value) error) error {
	switch c.td.Class {
	case typeid.ClassCompound:
		cc, err := c.ReadCompound()
		if err != nil {
			return err
		}
		for i := 0; i < cc.Len(); i++ {
			key, v, err := cc.Next()
			if err != nil {
				return err
			}
			if err := compoundCb(key, v); err != nil {
				return err
			}
		}
		return nil

	case typeid.ClassArray, typeid.ClassDArray:
		return c.Iterate(nil, arrayCb)

	default:
		return fmt.Errorf("%w: BlindIterate on %s", errs.ErrTypeMismatch, c.td.Class)
	}
}

// PeekAt saves the stream position, navigates to the named (compound) or
// indexed (array/darray) child, invokes cb with a fresh cursor positioned
// at that child's payload, and restores the position afterward regardless
// of how cb returns or how far its cursor advanced.
func (c *Cursor) PeekAt(segment string, cb func(*Cursor) error) error {
	start, err := c.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	defer c.r.Seek(start, io.SeekStart)

	child, err := c.openChild(segment)
	if err != nil {
		return err
	}
	return cb(child)
}

func (c *Cursor) openChild(segment string) (*Cursor, error) {
	switch c.td.Class {
	case typeid.ClassCompound:
		return c.openCompoundChild(segment)
	case typeid.ClassArray, typeid.ClassDArray:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q is not a valid index", errs.ErrOutOfRange, segment)
		}
		return c.openArrayChild(idx)
	default:
		return nil, fmt.Errorf("%w: cannot peek into %s", errs.ErrTypeMismatch, c.td.Class)
	}
}

// openCompoundChild walks entries sequentially, matching by alias id
// (through table) or raw UTF-8 bytes, skipping every non-matching value,
// and returns a cursor positioned at the matching entry's payload.
func (c *Cursor) openCompoundChild(key string) (*Cursor, error) {
	n, err := readDefineLength(c.r, c.td.Length)
	if err != nil {
		return nil, err
	}

	var wantID uint16
	if c.td.Signed {
		wantID, err = c.table.ToAlias(key)
		if err != nil {
			return nil, err
		}
	}

	for i := uint64(0); i < n; i++ {
		var match bool
		if c.td.Signed {
			idBuf, err := readN(c.r, 2)
			if err != nil {
				return nil, err
			}
			match = endian.GetLittleEndianEngine().Uint16(idBuf) == wantID
		} else {
			slen, err := complen.Read(c.r)
			if err != nil {
				return nil, err
			}
			nameBuf, err := readN(c.r, int(slen))
			if err != nil {
				return nil, err
			}
			match = string(nameBuf) == key
		}

		d, err := typeid.Decode(c.r)
		if err != nil {
			return nil, err
		}

		if match {
			return NewCursor(c.r, d, c.table), nil
		}
		if err := SkipValue(c.r, d); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: key %q", errs.ErrKeyNotFound, key)
}

// openArrayChild locates element i of an array/darray and returns a cursor
// positioned at its payload, fast-seeking past fixed-width predecessors
// the same way IndexArray does. A packed bit element has no standalone
// descriptor to hand back as a cursor; callers wanting one bit should use
// the package-level IndexArray instead.
func (c *Cursor) openArrayChild(i int) (*Cursor, error) {
	switch c.td.Class {
	case typeid.ClassArray:
		n, err := readDefineLength(c.r, c.td.Length)
		if err != nil {
			return nil, err
		}
		if i < 0 || uint64(i) >= n {
			return nil, fmt.Errorf("%w: array index %d, length %d", errs.ErrOutOfRange, i, n)
		}

		elemDesc, err := typeid.Decode(c.r)
		if err != nil {
			return nil, err
		}

		switch elemDesc.Class {
		case typeid.ClassBit:
			return nil, fmt.Errorf("%w: cannot peek a packed bit element as a cursor", errs.ErrTypeMismatch)
		case typeid.ClassInteger, typeid.ClassFloating:
			if err := discard(c.r, i*elemDesc.Length.ByteWidth()); err != nil {
				return nil, err
			}
		case typeid.ClassUUID:
			if err := discard(c.r, i*16); err != nil {
				return nil, err
			}
		default:
			for j := 0; j < i; j++ {
				if err := SkipValue(c.r, elemDesc); err != nil {
					return nil, err
				}
			}
		}
		return NewCursor(c.r, elemDesc, c.table), nil

	case typeid.ClassDArray:
		n, err := readDefineLength(c.r, c.td.Length)
		if err != nil {
			return nil, err
		}
		if i < 0 || uint64(i) >= n {
			return nil, fmt.Errorf("%w: darray index %d, length %d", errs.ErrOutOfRange, i, n)
		}
		for j := 0; j < i; j++ {
			if err := SkipToken(c.r); err != nil {
				return nil, err
			}
		}
		d, err := typeid.Decode(c.r)
		if err != nil {
			return nil, err
		}
		return NewCursor(c.r, d, c.table), nil

	default:
		return nil, fmt.Errorf("%w: openArrayChild on %s", errs.ErrTypeMismatch, c.td.Class)
	}
}
