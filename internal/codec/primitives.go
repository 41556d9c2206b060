package codec

import "math"

// Codec encodes and decodes FITS primitive wire values using a fixed byte
// order. The zero value is not usable; construct with New.
type Codec struct {
	order ByteOrder
}

// New returns a Codec using the given byte order. Most callers should use
// NewWire, since FITS data is always big-endian on the wire.
func New(order ByteOrder) Codec {
	return Codec{order: order}
}

// NewWire returns a Codec using the FITS wire byte order (big-endian).
func NewWire() Codec {
	return New(Wire())
}

// DecodeInt16 decodes a two's-complement 16-bit integer.
func (c Codec) DecodeInt16(b []byte) int16 { return int16(c.order.Uint16(b)) }

// EncodeInt16 appends the wire encoding of v to dst.
func (c Codec) EncodeInt16(dst []byte, v int16) []byte {
	return c.order.AppendUint16(dst, uint16(v))
}

// DecodeInt32 decodes a two's-complement 32-bit integer.
func (c Codec) DecodeInt32(b []byte) int32 { return int32(c.order.Uint32(b)) }

// EncodeInt32 appends the wire encoding of v to dst.
func (c Codec) EncodeInt32(dst []byte, v int32) []byte {
	return c.order.AppendUint32(dst, uint32(v))
}

// DecodeInt64 decodes a two's-complement 64-bit integer.
func (c Codec) DecodeInt64(b []byte) int64 { return int64(c.order.Uint64(b)) }

// EncodeInt64 appends the wire encoding of v to dst.
func (c Codec) EncodeInt64(dst []byte, v int64) []byte {
	return c.order.AppendUint64(dst, uint64(v))
}

// DecodeUint8 returns the single byte at b[0]; provided for symmetry with
// BITPIX=8 (unsigned byte) image data.
func (c Codec) DecodeUint8(b []byte) uint8 { return b[0] }

// EncodeUint8 appends v to dst.
func (c Codec) EncodeUint8(dst []byte, v uint8) []byte { return append(dst, v) }

// DecodeFloat32 decodes an IEEE 754 single-precision float, bit-exact
// including NaN payloads.
func (c Codec) DecodeFloat32(b []byte) float32 {
	return math.Float32frombits(c.order.Uint32(b))
}

// EncodeFloat32 appends the wire encoding of v to dst.
func (c Codec) EncodeFloat32(dst []byte, v float32) []byte {
	return c.order.AppendUint32(dst, math.Float32bits(v))
}

// DecodeFloat64 decodes an IEEE 754 double-precision float, bit-exact
// including NaN payloads.
func (c Codec) DecodeFloat64(b []byte) float64 {
	return math.Float64frombits(c.order.Uint64(b))
}

// EncodeFloat64 appends the wire encoding of v to dst.
func (c Codec) EncodeFloat64(dst []byte, v float64) []byte {
	return c.order.AppendUint64(dst, math.Float64bits(v))
}

// DecodeComplex64 decodes the FITS "C" type: two consecutive float32
// values, real part first.
func (c Codec) DecodeComplex64(b []byte) complex64 {
	re := c.DecodeFloat32(b[0:4])
	im := c.DecodeFloat32(b[4:8])
	return complex(re, im)
}

// EncodeComplex64 appends the wire encoding of v to dst.
func (c Codec) EncodeComplex64(dst []byte, v complex64) []byte {
	dst = c.EncodeFloat32(dst, real(v))
	dst = c.EncodeFloat32(dst, imag(v))
	return dst
}

// DecodeComplex128 decodes the FITS "M" type: two consecutive float64
// values, real part first.
func (c Codec) DecodeComplex128(b []byte) complex128 {
	re := c.DecodeFloat64(b[0:8])
	im := c.DecodeFloat64(b[8:16])
	return complex(re, im)
}

// EncodeComplex128 appends the wire encoding of v to dst.
func (c Codec) EncodeComplex128(dst []byte, v complex128) []byte {
	dst = c.EncodeFloat64(dst, real(v))
	dst = c.EncodeFloat64(dst, imag(v))
	return dst
}
