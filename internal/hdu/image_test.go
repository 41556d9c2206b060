package hdu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelfits/gofits/internal/block"
	"github.com/kestrelfits/gofits/internal/card"
	"github.com/kestrelfits/gofits/internal/ferr"
)

// headerBytes renders the given card images into a space-padded header
// block sequence.
func headerBytes(lines ...string) []byte {
	var buf bytes.Buffer
	for _, l := range lines {
		b := make([]byte, card.Size)
		for i := range b {
			b[i] = ' '
		}
		copy(b, l)
		buf.Write(b)
	}
	for buf.Len()%block.Size != 0 {
		buf.WriteByte(' ')
	}
	return buf.Bytes()
}

func readHDU(t *testing.T, raw []byte) *HDU {
	t.Helper()
	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(raw), false))
	require.NoError(t, h.ReadHeader())
	return h
}

func TestReadHeader_PrimaryImageGeometry(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                   16",
		"NAXIS   =                    2",
		"NAXIS1  =                    3",
		"NAXIS2  =                    2",
		"END",
	)
	h := readHDU(t, raw)

	assert.Equal(t, KindPrimary, h.Kind())
	assert.EqualValues(t, 6, h.StrideLength())
	assert.EqualValues(t, 2, h.TotalStrides())
	assert.EqualValues(t, 0, h.HeaderPosition())
	assert.EqualValues(t, block.Size, h.DataPosition())
	assert.Equal(t, StateHeader, h.State())
}

func TestReadHeader_StrideCountAccumulatesAxes2ToN(t *testing.T) {
	t.Parallel()

	// NAXIS1 is the fastest-varying axis and forms the stride; the stride
	// count is the product of the remaining axes.
	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                  -32",
		"NAXIS   =                    3",
		"NAXIS1  =                    4",
		"NAXIS2  =                    5",
		"NAXIS3  =                    6",
		"END",
	)
	h := readHDU(t, raw)

	assert.EqualValues(t, 16, h.StrideLength())
	assert.EqualValues(t, 30, h.TotalStrides())
}

func TestReadHeader_OneAxis(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                    8",
		"NAXIS   =                    1",
		"NAXIS1  =                   10",
		"END",
	)
	h := readHDU(t, raw)

	assert.EqualValues(t, 10, h.StrideLength())
	assert.EqualValues(t, 1, h.TotalStrides())
}

func TestReadHeader_NoData(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                    8",
		"NAXIS   =                    0",
		"END",
	)
	h := readHDU(t, raw)

	assert.EqualValues(t, 0, h.TotalStrides())
	assert.Equal(t, StateDone, h.State())
}

func TestReadHeader_ImageExtension(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"XTENSION= 'IMAGE   '",
		"BITPIX  =                   32",
		"NAXIS   =                    2",
		"NAXIS1  =                    2",
		"NAXIS2  =                    2",
		"PCOUNT  =                    0",
		"GCOUNT  =                    1",
		"EXTNAME = 'SCI     '",
		"EXTVER  =                    2",
		"END",
	)
	h := readHDU(t, raw)

	assert.Equal(t, KindImageExtension, h.Kind())
	name, ok := h.ExtName()
	require.True(t, ok)
	assert.Equal(t, "SCI", name)
	ver, ok := h.ExtVer()
	require.True(t, ok)
	assert.EqualValues(t, 2, ver)
}

func TestReadHeader_UnknownExtension(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"XTENSION= 'TABLE   '",
		"BITPIX  =                    8",
		"NAXIS   =                    2",
		"NAXIS1  =                   10",
		"NAXIS2  =                    1",
		"PCOUNT  =                    0",
		"GCOUNT  =                    1",
		"END",
	)
	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(raw), false))
	err := h.ReadHeader()
	assert.ErrorIs(t, err, ferr.ErrUnsupported)
}

func TestReadHeader_MissingBitpix(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"NAXIS   =                    0",
		"END",
	)
	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(raw), false))
	err := h.ReadHeader()
	assert.ErrorIs(t, err, ferr.ErrInvalidHeader)
}

func TestReadHeader_InvalidBitpix(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                   12",
		"NAXIS   =                    0",
		"END",
	)
	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(raw), false))
	err := h.ReadHeader()
	assert.ErrorIs(t, err, ferr.ErrInvalidHeader)
}

func TestReadHeader_MissingAxisCard(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                    8",
		"NAXIS   =                    2",
		"NAXIS1  =                    4",
		"END",
	)
	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(raw), false))
	err := h.ReadHeader()
	assert.ErrorIs(t, err, ferr.ErrInvalidHeader)
}

func TestReadHeader_TruncatedMidHeaderIsIo(t *testing.T) {
	t.Parallel()

	raw := headerBytes("SIMPLE  =                    T")[:100]
	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(raw), false))
	err := h.ReadHeader()
	assert.ErrorIs(t, err, ferr.ErrIo)
}

func TestReadStride_FullImage(t *testing.T) {
	t.Parallel()

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	data := make([]byte, block.Size)
	copy(data, payload)
	raw := append(headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                   16",
		"NAXIS   =                    2",
		"NAXIS1  =                    3",
		"NAXIS2  =                    2",
		"END",
	), data...)

	h := readHDU(t, raw)

	first, err := h.ReadStride()
	require.NoError(t, err)
	assert.Equal(t, payload[:6], first)
	assert.Equal(t, StateStrides, h.State())

	second, err := h.ReadStride()
	require.NoError(t, err)
	assert.Equal(t, payload[6:], second)
	assert.Equal(t, StateDone, h.State())
	assert.EqualValues(t, 2*block.Size, h.pos())

	_, err = h.ReadStride()
	assert.ErrorIs(t, err, ferr.ErrInvalidState)

	h.ReleaseBuffers()
}

func TestReadStride_BeforeHeaderFails(t *testing.T) {
	t.Parallel()

	h := NewGeneric()
	h.Bind(block.NewReader(bytes.NewReader(nil), false))
	_, err := h.ReadStride()
	assert.ErrorIs(t, err, ferr.ErrInvalidState)
}

func TestReadToFinish_SkipsRemainingStrides(t *testing.T) {
	t.Parallel()

	raw := append(headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                   16",
		"NAXIS   =                    2",
		"NAXIS1  =                    3",
		"NAXIS2  =                    2",
		"END",
	), make([]byte, block.Size)...)

	h := readHDU(t, raw)
	_, err := h.ReadStride()
	require.NoError(t, err)

	require.NoError(t, h.ReadToFinish())
	assert.Equal(t, StateDone, h.State())
	assert.EqualValues(t, h.TotalStrides(), h.StrideCounter())
	assert.EqualValues(t, 0, h.pos()%block.Size)

	// Idempotent on a Done HDU.
	require.NoError(t, h.ReadToFinish())
}

func TestSetCard_RejectedAfterHeader(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                    8",
		"NAXIS   =                    0",
		"END",
	)
	h := readHDU(t, raw)

	err := h.SetCard(&card.Card{Keyword: "OBJECT", HasValue: true, ValueKind: card.ValueString, Str: "M31"})
	assert.ErrorIs(t, err, ferr.ErrInvalidState)
}

func TestWriteHeader_PrimaryRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrimary(16, 3, 2)
	h.Bind(block.NewWriter(&buf, false))

	require.NoError(t, h.SetCard(strCard("OBJECT", "NGC 4151", "target")))
	require.NoError(t, h.WriteHeader())
	assert.Equal(t, block.Size, buf.Len())

	require.NoError(t, h.WriteStride([]byte{1, 2, 3, 4, 5, 6}))
	require.NoError(t, h.WriteStride([]byte{7, 8, 9, 10, 11, 12}))
	assert.Equal(t, StateDone, h.State())
	assert.Equal(t, 2*block.Size, buf.Len())

	back := readHDU(t, buf.Bytes())
	assert.Equal(t, KindPrimary, back.Kind())
	bitpix, _ := back.Bitpix()
	assert.EqualValues(t, 16, bitpix)
	obj, ok := back.Cards().GetString("OBJECT")
	require.True(t, ok)
	assert.Equal(t, "NGC 4151", obj)

	first, err := back.ReadStride()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, first)
}

func TestWriteStride_LengthMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrimary(16, 3, 2)
	h.Bind(block.NewWriter(&buf, false))
	require.NoError(t, h.WriteHeader())

	err := h.WriteStride([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ferr.ErrInvalidValue)
}

func TestWriteStride_PastEndFails(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrimary(8, 4)
	h.Bind(block.NewWriter(&buf, false))
	require.NoError(t, h.WriteHeader())
	require.NoError(t, h.WriteStride([]byte{1, 2, 3, 4}))

	err := h.WriteStride([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ferr.ErrInvalidState)
}

func TestWriteHeader_Twice(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrimary(8)
	h.Bind(block.NewWriter(&buf, false))
	require.NoError(t, h.WriteHeader())
	assert.ErrorIs(t, h.WriteHeader(), ferr.ErrInvalidState)
}

func TestPhysicalValue_BScaleBZero(t *testing.T) {
	t.Parallel()

	raw := headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                   16",
		"NAXIS   =                    0",
		"BSCALE  =                  0.5",
		"BZERO   =              32768.0",
		"END",
	)
	h := readHDU(t, raw)
	assert.InDelta(t, 32778.0, h.PhysicalValue(20), 1e-9)

	plain := readHDU(t, headerBytes(
		"SIMPLE  =                    T",
		"BITPIX  =                    8",
		"NAXIS   =                    0",
		"END",
	))
	assert.InDelta(t, 20.0, plain.PhysicalValue(20), 1e-9)
}
