package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pad80(s string) []byte {
	buf := make([]byte, Size)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, s)
	return buf
}

func TestParse_Boolean(t *testing.T) {
	t.Parallel()

	raw := pad80("SIMPLE  =                    T / conforms to FITS standard")
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "SIMPLE", c.Keyword)
	assert.True(t, c.HasValue)
	assert.Equal(t, ValueBool, c.ValueKind)
	assert.True(t, c.Bool)
	assert.Equal(t, "conforms to FITS standard", c.Comment)
}

func TestParse_Integer(t *testing.T) {
	t.Parallel()

	raw := pad80("BITPIX  =                   16 / bits per pixel")
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ValueInt, c.ValueKind)
	assert.EqualValues(t, 16, c.Int)
}

func TestParse_Float(t *testing.T) {
	t.Parallel()

	raw := pad80("EXPTIME =             12.5")
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ValueFloat, c.ValueKind)
	assert.InDelta(t, 12.5, c.Float, 1e-9)
}

func TestParse_FortranDExponent(t *testing.T) {
	t.Parallel()

	raw := pad80("BZERO   = 1.0D2")
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ValueFloat, c.ValueKind)
	assert.InDelta(t, 100.0, c.Float, 1e-9)
}

func TestParse_QuotedString(t *testing.T) {
	t.Parallel()

	raw := pad80(`OBJECT  = 'NGC 4151'          / Target name`)
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, ValueString, c.ValueKind)
	assert.Equal(t, "NGC 4151", c.Str)
	assert.Equal(t, "Target name", c.Comment)
}

func TestParse_QuotedStringWithEscapedQuote(t *testing.T) {
	t.Parallel()

	raw := pad80(`NOTE    = 'it''s a test'`)
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "it's a test", c.Str)
}

func TestParse_UnterminatedQuoteFails(t *testing.T) {
	t.Parallel()

	raw := pad80(`NOTE    = 'unterminated`)
	_, err := Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestParse_Commentary(t *testing.T) {
	t.Parallel()

	raw := pad80("COMMENT this is a free-text comment")
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, c.IsCommentary)
	assert.Equal(t, "this is a free-text comment", c.Commentary)
}

func TestParse_End(t *testing.T) {
	t.Parallel()

	raw := pad80("END")
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, c.IsEnd)
}

func TestParse_WrongSize(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestParse_Continue(t *testing.T) {
	t.Parallel()

	raw := pad80(`CONTINUE  'bar'`)
	c, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "CONTINUE", c.Keyword)
	assert.True(t, c.HasValue)
	assert.Equal(t, ValueString, c.ValueKind)
	assert.Equal(t, "bar", c.Str)
}

func TestSerialize_IsAlways80Bytes(t *testing.T) {
	t.Parallel()

	cards := []*Card{
		{Keyword: "SIMPLE", HasValue: true, ValueKind: ValueBool, Bool: true, Comment: "conforms to FITS standard"},
		{Keyword: "BITPIX", HasValue: true, ValueKind: ValueInt, Int: 16},
		{Keyword: "OBJECT", HasValue: true, ValueKind: ValueString, Str: "NGC 4151"},
		{Keyword: "END", IsEnd: true},
		{Keyword: "COMMENT", IsCommentary: true, Commentary: "hello"},
	}
	for _, c := range cards {
		assert.Len(t, c.Serialize(), Size)
	}
}

func TestRoundTrip_Boolean(t *testing.T) {
	t.Parallel()

	for _, v := range []bool{true, false} {
		c := &Card{Keyword: "SIMPLE", HasValue: true, ValueKind: ValueBool, Bool: v}
		roundTripAssertEqual(t, c)
	}
}

func TestRoundTrip_Integer(t *testing.T) {
	t.Parallel()

	for _, v := range []int64{0, 1, -1, 1000000000000000000, -1000000000000000000} {
		c := &Card{Keyword: "NAXIS1", HasValue: true, ValueKind: ValueInt, Int: v}
		roundTripAssertEqual(t, c)
	}
}

func TestRoundTrip_Float(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{0, 1.5, -1.5, 3.14159265358979, 1e20, -1e-20} {
		c := &Card{Keyword: "EXPTIME", HasValue: true, ValueKind: ValueFloat, Float: v}
		roundTripAssertEqual(t, c)
	}
}

func TestRoundTrip_String(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"", "x", "NGC 4151", "a value exactly sixty eight characters long for the edge-case test!!"} {
		c := &Card{Keyword: "OBJECT", HasValue: true, ValueKind: ValueString, Str: v}
		roundTripAssertEqual(t, c)
	}
}

func TestRoundTrip_WithComment(t *testing.T) {
	t.Parallel()

	c := &Card{Keyword: "BITPIX", HasValue: true, ValueKind: ValueInt, Int: 8, Comment: "bits per pixel"}
	roundTripAssertEqual(t, c)
}

func roundTripAssertEqual(t *testing.T, c *Card) {
	t.Helper()
	serialized := c.Serialize()
	require.Len(t, serialized, Size)
	parsed, err := Parse(serialized)
	require.NoError(t, err)
	assert.Equal(t, c.Keyword, parsed.Keyword)
	assert.Equal(t, c.ValueKind, parsed.ValueKind)
	assert.Equal(t, c.Bool, parsed.Bool)
	assert.Equal(t, c.Int, parsed.Int)
	assert.InDelta(t, c.Float, parsed.Float, 1e-9)
	assert.Equal(t, c.Str, parsed.Str)
	assert.Equal(t, c.Comment, parsed.Comment)
}

func TestEqual_CaseInsensitive(t *testing.T) {
	t.Parallel()

	assert.True(t, Equal("simple", "SIMPLE"))
	assert.True(t, Equal(" BITPIX ", "bitpix"))
	assert.False(t, Equal("NAXIS1", "NAXIS2"))
}
