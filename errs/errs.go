// Package errs defines the sentinel error values returned by the ENBT codec
// and value tree.
//
// Call sites wrap a sentinel with additional context using fmt.Errorf's %w
// verb, e.g. fmt.Errorf("%w: field %q", errs.ErrInvalidDescriptor, name).
// Callers should compare with errors.Is, never string matching.
package errs

import "errors"

var (
	// ErrUnsupportedVersion is returned when the leading version byte of a
	// stream does not match the version this package understands.
	ErrUnsupportedVersion = errors.New("enbt: unsupported version byte")

	// ErrFormatError is returned when a descriptor or payload is malformed,
	// truncated, or a variable-integer overruns its maximum byte count.
	ErrFormatError = errors.New("enbt: malformed token")

	// ErrOverflow is returned when a length does not fit the target width,
	// e.g. a compressed length exceeding 2^62-1, or a container whose
	// element count does not fit its declared length class.
	ErrOverflow = errors.New("enbt: length overflow")

	// ErrTypeMismatch is returned when an operation requires a specific
	// type class that the value does not have.
	ErrTypeMismatch = errors.New("enbt: type mismatch")

	// ErrOutOfRange is returned when an index or path segment exceeds a
	// container's bounds.
	ErrOutOfRange = errors.New("enbt: index out of range")

	// ErrAliasMissing is returned when a string is not present in the
	// global alias table.
	ErrAliasMissing = errors.New("enbt: alias missing from table")

	// ErrAliasOutOfRange is returned when an alias index has no entry in
	// the global alias table.
	ErrAliasOutOfRange = errors.New("enbt: alias index out of range")

	// ErrInvalidDescriptor is returned when a type descriptor violates one
	// of the invariants in the type descriptor's construction rules.
	ErrInvalidDescriptor = errors.New("enbt: invalid type descriptor")

	// ErrKeyNotFound is returned when a compound lookup does not find the
	// requested key; it is not a fatal format error.
	ErrKeyNotFound = errors.New("enbt: compound key not found")
)
