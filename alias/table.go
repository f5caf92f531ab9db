// Package alias implements the ENBT global alias-string table: a
// process-wide ordered list of UTF-8 strings shared by every aliased
// compound, plus the "ASN" (Associated Strings) stream encoding used to
// ship a table alongside a value stream.
//
// The table is process-wide mutable state: Set replaces its contents
// wholesale. Each method takes the table's internal lock, so single calls
// are safe to make concurrently; a sequence of lookups is not atomic with
// respect to a concurrent Set.
package alias

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/kvtree/enbt/endian"
	"github.com/kvtree/enbt/errs"
	"github.com/kvtree/enbt/internal/hash"
	"github.com/kvtree/enbt/internal/pool"
)

// MaxEntries is the largest number of strings a table may hold, since alias
// ids are encoded as 16-bit indices.
const MaxEntries = 65535

// asnMagic is the single version byte that precedes an ASN stream.
const asnMagic = 0x10

// Table is a process-wide ordered list of strings looked up by value or by
// zero-based index. The zero value is an empty table.
//
// Set holds a write lock and ToAlias/FromAlias/Len/DumpASN hold a read
// lock, so individual calls are safe for concurrent use. A concurrent Set
// can still replace the table between two lookups made by one caller.
type Table struct {
	mu      sync.RWMutex
	strings []string
	hash    map[uint64][]int // xxhash(string) -> candidate indices, an O(1) accelerator over the spec's linear scan
}

// Global is the default process-wide table instance that the stream package
// consults when it encounters an aliased compound and no table was supplied
// explicitly.
var Global = &Table{}

// Set replaces the table's contents with list. It fails if list has more
// than MaxEntries strings.
func (t *Table) Set(list []string) error {
	if len(list) > MaxEntries {
		return fmt.Errorf("%w: alias table has %d entries, max %d", errs.ErrOverflow, len(list), MaxEntries)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.strings = append([]string(nil), list...)
	t.hash = make(map[uint64][]int, len(list))
	for i, s := range list {
		h := hash.ID(s)
		t.hash[h] = append(t.hash[h], i)
	}

	return nil
}

// Len returns the number of strings currently in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.strings)
}

// ToAlias searches the table for s and returns its zero-based index. The
// spec defines this as a linear scan; Table accelerates the common case
// with an xxHash bucket lookup, falling back to a scan only within strings
// sharing a hash (a collision, which the table does not otherwise track).
func (t *Table) ToAlias(s string) (uint16, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := hash.ID(s)
	for _, idx := range t.hash[h] {
		if t.strings[idx] == s {
			return uint16(idx), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errs.ErrAliasMissing, s)
}

// FromAlias returns the string at index i.
func (t *Table) FromAlias(i uint16) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(i) >= len(t.strings) {
		return "", fmt.Errorf("%w: index %d, table has %d entries", errs.ErrAliasOutOfRange, i, len(t.strings))
	}

	return t.strings[int(i)], nil
}

// EncodeASN appends the ASN (Associated Strings) encoding of list to buf:
// the magic byte, a little-endian uint16 count, then each string as a
// zero-terminated UTF-8 sequence.
func EncodeASN(buf []byte, list []string) ([]byte, error) {
	if len(list) > MaxEntries {
		return buf, fmt.Errorf("%w: %d strings exceeds ASN max %d", errs.ErrOverflow, len(list), MaxEntries)
	}

	buf = append(buf, asnMagic)

	var countBuf [2]byte
	endian.GetLittleEndianEngine().PutUint16(countBuf[:], uint16(len(list)))
	buf = append(buf, countBuf[:]...)

	for _, s := range list {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}

	return buf, nil
}

// DecodeASN reads an ASN stream from r and returns the strings it carries.
func DecodeASN(r io.Reader) ([]string, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	magic, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading ASN magic: %v", errs.ErrFormatError, err)
	}
	if magic != asnMagic {
		return nil, fmt.Errorf("%w: ASN magic byte is 0x%02x, want 0x%02x", errs.ErrFormatError, magic, asnMagic)
	}

	var countBuf [2]byte
	for i := range countBuf {
		b, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading ASN count: %v", errs.ErrFormatError, err)
		}
		countBuf[i] = b
	}
	n := endian.GetLittleEndianEngine().Uint16(countBuf[:])

	list := make([]string, 0, n)
	for i := uint16(0); i < n; i++ {
		s, err := readCString(br)
		if err != nil {
			return nil, fmt.Errorf("%w: reading ASN string %d: %v", errs.ErrFormatError, i, err)
		}
		list = append(list, s)
	}

	return list, nil
}

// LoadASN reads an ASN stream from r and installs its strings into t via
// Set.
func (t *Table) LoadASN(r io.Reader) error {
	list, err := DecodeASN(r)
	if err != nil {
		return err
	}

	return t.Set(list)
}

// DumpASN writes t's current contents to w as an ASN stream, using a
// pooled buffer to batch the write into a single call.
func (t *Table) DumpASN(w io.Writer) error {
	t.mu.RLock()
	list := append([]string(nil), t.strings...)
	t.mu.RUnlock()

	bb := pool.GetBlobSetBuffer()
	defer pool.PutBlobSetBuffer(bb)

	var err error
	bb.B, err = EncodeASN(bb.B, list)
	if err != nil {
		return err
	}

	_, err = w.Write(bb.B)
	return err
}

func readCString(br io.ByteReader) (string, error) {
	var buf []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}
