package card

import (
	"strconv"
	"strings"
)

// valueFieldWidth is the width, in characters, of the value field used for
// right-justifying numeric and boolean values (columns 11-30).
const valueFieldWidth = numericJustifyColumn - valueColumn

// Serialize renders the card as exactly Size ASCII bytes, space-padded.
func (c *Card) Serialize() []byte {
	buf := make([]byte, Size)
	for i := range buf {
		buf[i] = ' '
	}

	kw := c.Keyword
	if len(kw) > maxKeywordLen {
		kw = kw[:maxKeywordLen]
	}
	copy(buf[:maxKeywordLen], kw)

	if c.IsEnd {
		return buf
	}

	if c.IsCommentary {
		buf = writeField(buf, maxKeywordLen, c.Commentary)
		if len(buf) > Size {
			return buf[:Size]
		}
		return buf
	}

	if !c.HasValue {
		return buf
	}

	if c.Keyword != "CONTINUE" {
		buf[8] = '='
		buf[9] = ' '
	}
	pos := valueColumn

	valStr := c.formatValue()
	buf = writeField(buf, pos, valStr)
	pos += len(valStr)

	if c.Comment != "" {
		suffix := " / " + c.Comment
		buf = writeField(buf, pos, suffix)
		pos += len(suffix)
	}

	if pos > Size {
		return buf[:Size]
	}
	return buf
}

// writeField copies s into buf starting at offset, growing buf if needed to
// fit s (callers that must stay within Size truncate afterward).
func writeField(buf []byte, offset int, s string) []byte {
	needed := offset + len(s)
	if needed > len(buf) {
		grown := make([]byte, needed)
		copy(grown, buf)
		for i := len(buf); i < needed; i++ {
			grown[i] = ' '
		}
		buf = grown
	}
	copy(buf[offset:], s)
	return buf
}

func (c *Card) formatValue() string {
	switch c.ValueKind {
	case ValueBool:
		s := "F"
		if c.Bool {
			s = "T"
		}
		return rightJustify(s, valueFieldWidth)
	case ValueInt:
		return rightJustify(strconv.FormatInt(c.Int, 10), valueFieldWidth)
	case ValueFloat:
		s := strconv.FormatFloat(c.Float, 'G', -1, 64)
		// Integral values such as 0 format without '.' or 'E'; add ".0" so
		// Parse reads them back as floats rather than integers.
		if !strings.ContainsAny(s, ".EIN") {
			s += ".0"
		}
		return rightJustify(s, valueFieldWidth)
	case ValueString:
		return formatQuotedString(c.Str)
	default:
		return ""
	}
}

func rightJustify(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func formatQuotedString(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	if len(escaped) < minStringFieldWidth {
		escaped += strings.Repeat(" ", minStringFieldWidth-len(escaped))
	}
	return "'" + escaped + "'"
}
