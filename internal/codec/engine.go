package codec

import "encoding/binary"

// ByteOrder combines the read/write and append-style interfaces from the
// standard library's encoding/binary package, so a single value can be
// passed around for every primitive conversion this package needs.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Wire returns the byte order FITS always uses on disk: big-endian.
func Wire() ByteOrder {
	return binary.BigEndian
}
