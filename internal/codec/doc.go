// Package codec provides big-endian encoding and decoding of the fixed-width
// primitive types that appear in FITS binary data: signed integers, IEEE
// floats, and the two FITS complex types.
//
// FITS is always big-endian on the wire, but the encode/decode surface is
// expressed through a ByteOrder interface (combining encoding/binary's
// ByteOrder and AppendByteOrder) so a host-endian variant is a one-line
// substitution rather than a rewrite.
package codec
