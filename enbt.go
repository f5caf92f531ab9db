package enbt

import (
	"io"

	"github.com/kvtree/enbt/alias"
	"github.com/kvtree/enbt/stream"
	"github.com/kvtree/enbt/value"
)

// Value is the in-memory ENBT value tree type.
type Value = value.Value

// AliasTable is the process-wide interned string table used by aliased
// compounds.
type AliasTable = alias.Table

// Version is the one-byte stream version header: high nibble major, low
// nibble minor.
const Version = stream.Version

// Major returns the version byte's high nibble.
func Major(version byte) byte {
	return version >> 4
}

// Minor returns the version byte's low nibble.
func Minor(version byte) byte {
	return version & 0x0F
}

// CheckVersion reads and validates the one-byte stream version header.
func CheckVersion(r io.ByteReader) error {
	return stream.CheckVersion(r)
}

// NewWriter returns a token writer over w.
func NewWriter(w io.Writer, opts ...stream.WriterOption) (*stream.Writer, error) {
	return stream.NewWriter(w, opts...)
}

// WriteValue writes v as a complete, standalone token (no version header).
func WriteValue(w io.Writer, v Value) error {
	writer, err := stream.NewWriter(w)
	if err != nil {
		return err
	}
	return writer.WriteValue(v)
}

// ReadValue reads one complete token (no version header) from r.
func ReadValue(r interface {
	io.Reader
	io.ByteReader
}) (Value, error) {
	return stream.ReadToken(r)
}
