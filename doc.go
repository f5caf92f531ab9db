// Package enbt implements ENBT ("Enchanted Named Binary Tag"), a
// self-describing binary serialization format and its in-memory value
// model together with a streaming codec.
//
// # Layout
//
// The type descriptor lives in [typeid]; the in-memory value tree lives in
// [value]; the wire codec (writer, reader, skipper, cursor) lives in
// [stream]; the process-wide alias-string table lives in [alias]. This
// root package re-exports the handful of entry points most callers need so
// they don't have to import every subpackage directly.
package enbt
