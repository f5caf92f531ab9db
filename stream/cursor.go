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

// SeekReader is the capability the cursor operations need beyond
// byteReader: the stream must support position save/restore, since
// peek_at and get_value_path both return to their starting position.
// Per the spec's design notes, "seekable stream" is its own capability and
// a non-seekable reader is rejected at the type level by simply not
// satisfying this interface.
type SeekReader interface {
	io.Reader
	io.ByteReader
	io.Seeker
}

// IndexArray reads the i-th element of an array or darray whose descriptor
// td has already been consumed from r. For a fixed-width array element
// (integer, floating, uuid, or bit) it seeks directly to the element
// instead of decoding the ones before it.
func IndexArray(r SeekReader, td typeid.Descriptor, i int) (value.Value, error) {
	switch td.Class {
	case typeid.ClassArray:
		return indexArrayElement(r, td, i)
	case typeid.ClassDArray:
		return indexDArrayElement(r, td, i)
	default:
		return value.Value{}, fmt.Errorf("%w: IndexArray on %s", errs.ErrTypeMismatch, td.Class)
	}
}

func indexArrayElement(r SeekReader, td typeid.Descriptor, i int) (value.Value, error) {
	n, err := readDefineLength(r, td.Length)
	if err != nil {
		return value.Value{}, err
	}
	if i < 0 || uint64(i) >= n {
		return value.Value{}, fmt.Errorf("%w: array index %d, length %d", errs.ErrOutOfRange, i, n)
	}

	elemDesc, err := typeid.Decode(r)
	if err != nil {
		return value.Value{}, err
	}

	switch elemDesc.Class {
	case typeid.ClassBit:
		if err := discard(r, i/8); err != nil {
			return value.Value{}, err
		}
		buf, err := readN(r, 1)
		if err != nil {
			return value.Value{}, err
		}
		bit := buf[0]&(1<<uint(i%8)) != 0
		return value.Bool(bit), nil

	case typeid.ClassInteger, typeid.ClassFloating:
		if err := discard(r, i*elemDesc.Length.ByteWidth()); err != nil {
			return value.Value{}, err
		}
		return readPayload(r, elemDesc)

	case typeid.ClassUUID:
		if err := discard(r, i*16); err != nil {
			return value.Value{}, err
		}
		return readPayload(r, elemDesc)

	default:
		for j := 0; j < i; j++ {
			if err := SkipValue(r, elemDesc); err != nil {
				return value.Value{}, err
			}
		}
		return readPayload(r, elemDesc)
	}
}

func indexDArrayElement(r SeekReader, td typeid.Descriptor, i int) (value.Value, error) {
	n, err := readDefineLength(r, td.Length)
	if err != nil {
		return value.Value{}, err
	}
	if i < 0 || uint64(i) >= n {
		return value.Value{}, fmt.Errorf("%w: darray index %d, length %d", errs.ErrOutOfRange, i, n)
	}

	for j := 0; j < i; j++ {
		if err := SkipToken(r); err != nil {
			return value.Value{}, err
		}
	}
	return ReadToken(r)
}

// FindCompound walks a compound's entries sequentially looking for key,
// comparing alias ids (aliased compounds, converted through table) or raw
// UTF-8 bytes (inline compounds). It reads and returns the matching entry,
// or reports not-found after skipping every entry.
func FindCompound(r SeekReader, td typeid.Descriptor, key string, table *alias.Table) (value.Value, bool, error) {
	if td.Class != typeid.ClassCompound {
		return value.Value{}, false, fmt.Errorf("%w: FindCompound on %s", errs.ErrTypeMismatch, td.Class)
	}

	n, err := readDefineLength(r, td.Length)
	if err != nil {
		return value.Value{}, false, err
	}

	var wantID uint16
	if td.Signed {
		wantID, err = table.ToAlias(key)
		if err != nil {
			return value.Value{}, false, err
		}
	}

	for i := uint64(0); i < n; i++ {
		var match bool
		if td.Signed {
			idBuf, err := readN(r, 2)
			if err != nil {
				return value.Value{}, false, err
			}
			match = endian.GetLittleEndianEngine().Uint16(idBuf) == wantID
		} else {
			slen, err := complen.Read(r)
			if err != nil {
				return value.Value{}, false, err
			}
			nameBuf, err := readN(r, int(slen))
			if err != nil {
				return value.Value{}, false, err
			}
			match = string(nameBuf) == key
		}

		if match {
			v, err := ReadToken(r)
			return v, true, err
		}
		if err := SkipToken(r); err != nil {
			return value.Value{}, false, err
		}
	}

	return value.Value{}, false, nil
}

// GetValuePath walks path from the stream's current position, dispatching
// each segment to a compound lookup or an array index per the descendant's
// type class, and reads the leaf as a full value. The stream position is
// restored to its starting point on both success and failure.
func GetValuePath(r SeekReader, path []string, table *alias.Table) (value.Value, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return value.Value{}, err
	}

	v, walkErr := walkPath(r, path, table)

	if _, serr := r.Seek(start, io.SeekStart); serr != nil {
		if walkErr == nil {
			walkErr = serr
		}
	}
	return v, walkErr
}

func walkPath(r SeekReader, path []string, table *alias.Table) (value.Value, error) {
	if len(path) == 0 {
		return ReadToken(r)
	}

	d, err := typeid.Decode(r)
	if err != nil {
		return value.Value{}, err
	}

	seg := path[0]
	var head value.Value

	switch d.Class {
	case typeid.ClassCompound:
		found, ok, err := FindCompound(r, d, seg, table)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Value{}, fmt.Errorf("%w: path segment %q", errs.ErrKeyNotFound, seg)
		}
		head = found

	case typeid.ClassArray, typeid.ClassDArray:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: path segment %q is not a valid index", errs.ErrOutOfRange, seg)
		}
		head, err = IndexArray(r, d, idx)
		if err != nil {
			return value.Value{}, err
		}

	default:
		return value.Value{}, fmt.Errorf("%w: cannot descend into %s", errs.ErrTypeMismatch, d.Class)
	}

	if len(path) == 1 {
		return head, nil
	}
	return descendValue(head, path[1:], table)
}

// descendValue continues a path lookup in-memory once a subtree has
// already been materialized off the stream (e.g. the rest of a compound
// entry found by FindCompound).
func descendValue(v value.Value, path []string, table *alias.Table) (value.Value, error) {
	cur := v
	for _, seg := range path {
		switch cur.Class() {
		case typeid.ClassCompound:
			child, err := cur.Get(seg, table)
			if err != nil {
				return value.Value{}, err
			}
			cur = *child
		case typeid.ClassArray, typeid.ClassDArray, typeid.ClassStructure:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return value.Value{}, fmt.Errorf("%w: path segment %q is not a valid index", errs.ErrOutOfRange, seg)
			}
			child, err := cur.At(idx)
			if err != nil {
				return value.Value{}, err
			}
			cur = *child
		default:
			return value.Value{}, fmt.Errorf("%w: cannot descend into %s", errs.ErrTypeMismatch, cur.Class())
		}
	}
	return cur, nil
}

// PeekAt saves the stream position, navigates to the named/indexed child
// at the current container, invokes fn with the materialized child value,
// and restores the position regardless of how fn returns.
func PeekAt(r SeekReader, segment string, table *alias.Table, fn func(value.Value) error) error {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	defer r.Seek(start, io.SeekStart)

	v, err := walkPath(r, []string{segment}, table)
	if err != nil {
		return err
	}
	return fn(v)
}
