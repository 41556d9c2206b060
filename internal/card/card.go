package card

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrelfits/gofits/internal/ferr"
)

// ErrInvalidCard is returned for malformed 80-byte cards; it is the
// package-level alias of the gofits InvalidCard error kind.
var ErrInvalidCard = ferr.ErrInvalidCard

// Size is the fixed width of a FITS header card in bytes.
const Size = 80

// maxKeywordLen is the maximum length of a FITS keyword (columns 1-8).
const maxKeywordLen = 8

// valueColumn is the zero-based column at which a value begins when the
// card carries "= " in columns 9-10 (1-based columns 9/10 -> index 8/9).
const valueColumn = 10

// minStringFieldWidth is the FITS-mandated minimum width, in characters,
// of a quoted string value's content area.
const minStringFieldWidth = 8

// numericJustifyColumn is the 0-based column boundary numeric and boolean
// values are right-justified through (1-based column 30).
const numericJustifyColumn = 30

// ValueKind discriminates the typed value a Card carries.
type ValueKind int

const (
	// ValueNone indicates a value-bearing card with an empty/undefined value field.
	ValueNone ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
)

// Card is a single parsed 80-byte FITS header record.
type Card struct {
	Keyword string // trimmed, upper-as-found keyword (comparisons are ASCII case-insensitive; see Equal)
	IsEnd   bool   // true for the END sentinel card

	// Commentary holds the free-text body of a COMMENT/HISTORY/blank card
	// (no "=" in columns 9-10, and not CONTINUE).
	Commentary   string
	IsCommentary bool

	// HasValue is true for assignment-style cards (including CONTINUE,
	// which carries a string value without the "= " marker).
	HasValue  bool
	ValueKind ValueKind
	Bool      bool
	Int       int64
	Float     float64
	Str       string

	Comment string
}

// Clone returns a detached copy of the card.
func (c *Card) Clone() *Card {
	clone := *c
	return &clone
}

// Equal reports whether two keywords name the same card, per FITS's
// ASCII-invariant, case-insensitive keyword comparison.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Parse reads exactly Size bytes and returns the parsed Card.
func Parse(raw []byte) (*Card, error) {
	if len(raw) != Size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidCard, Size, len(raw))
	}

	keyword := strings.TrimRight(string(raw[:maxKeywordLen]), " ")
	if !validKeywordChars(keyword) {
		return nil, fmt.Errorf("%w: invalid keyword characters %q", ErrInvalidCard, keyword)
	}

	if keyword == "END" {
		return &Card{Keyword: "END", IsEnd: true}, nil
	}

	// CONTINUE cards carry a quoted string value without the "= " marker.
	if keyword == "CONTINUE" {
		c := &Card{Keyword: keyword, HasValue: true, ValueKind: ValueString}
		if err := parseValueAndComment(raw[valueColumn:], c); err != nil {
			return nil, err
		}
		return c, nil
	}

	if len(raw) >= valueColumn && raw[8] == '=' && raw[9] == ' ' {
		c := &Card{Keyword: keyword, HasValue: true}
		if err := parseValueAndComment(raw[valueColumn:], c); err != nil {
			return nil, err
		}
		return c, nil
	}

	return &Card{
		Keyword:      keyword,
		IsCommentary: true,
		Commentary:   strings.TrimRight(string(raw[maxKeywordLen:]), " "),
	}, nil
}

func validKeywordChars(kw string) bool {
	for _, r := range kw {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// parseValueAndComment parses the value/comment field (columns 11-80) into
// c, which must already have Keyword and HasValue set.
func parseValueAndComment(field []byte, c *Card) error {
	i := 0
	for i < len(field) && field[i] == ' ' {
		i++
	}
	if i >= len(field) {
		c.ValueKind = ValueNone
		return nil
	}

	switch {
	case field[i] == '\'':
		end, s, err := parseQuotedString(field, i)
		if err != nil {
			return err
		}
		c.ValueKind = ValueString
		c.Str = s
		return parseTrailingComment(field, end, c)

	case (field[i] == 'T' || field[i] == 'F') && isValueTerminator(field, i+1):
		c.ValueKind = ValueBool
		c.Bool = field[i] == 'T'
		return parseTrailingComment(field, i+1, c)

	case isNumericStart(field[i]):
		end := i
		for end < len(field) && field[end] != ' ' && field[end] != '/' {
			end++
		}
		token := string(field[i:end])
		if err := parseNumeric(token, c); err != nil {
			return err
		}
		return parseTrailingComment(field, end, c)

	default:
		return fmt.Errorf("%w: unrecognized value start %q for keyword %s", ErrInvalidCard, field[i], c.Keyword)
	}
}

func isValueTerminator(field []byte, i int) bool {
	return i >= len(field) || field[i] == ' ' || field[i] == '/'
}

func isNumericStart(b byte) bool {
	return (b >= '0' && b <= '9') || b == '+' || b == '-' || b == '.'
}

func parseNumeric(token string, c *Card) error {
	isFloat := false
	normalized := make([]byte, len(token))
	for i := 0; i < len(token); i++ {
		ch := token[i]
		switch ch {
		case '.', 'e', 'E':
			isFloat = true
			normalized[i] = ch
		case 'd', 'D':
			isFloat = true
			normalized[i] = 'E'
		default:
			normalized[i] = ch
		}
	}

	if isFloat {
		f, err := strconv.ParseFloat(string(normalized), 64)
		if err != nil {
			return fmt.Errorf("%w: invalid float value %q: %v", ferr.ErrInvalidValue, token, err)
		}
		c.ValueKind = ValueFloat
		c.Float = f
		return nil
	}

	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid integer value %q: %v", ferr.ErrInvalidValue, token, err)
	}
	c.ValueKind = ValueInt
	c.Int = n
	return nil
}

// parseQuotedString parses a FITS quoted string starting at field[start]
// (which must be a single quote). It returns the index just past the
// closing quote and the unescaped string content.
func parseQuotedString(field []byte, start int) (int, string, error) {
	var sb strings.Builder
	j := start + 1
	for {
		if j >= len(field) {
			return 0, "", fmt.Errorf("%w: unterminated quoted string", ErrInvalidCard)
		}
		if field[j] == '\'' {
			if j+1 < len(field) && field[j+1] == '\'' {
				sb.WriteByte('\'')
				j += 2
				continue
			}
			return j + 1, strings.TrimRight(sb.String(), " "), nil
		}
		sb.WriteByte(field[j])
		j++
	}
}

// parseTrailingComment scans field[from:] for an optional " / comment"
// suffix and sets c.Comment if present.
func parseTrailingComment(field []byte, from int, c *Card) error {
	i := from
	for i < len(field) && field[i] == ' ' {
		i++
	}
	if i >= len(field) {
		return nil
	}
	if field[i] != '/' {
		// Trailing garbage after the value with no comment marker is
		// tolerated as an unstructured comment tail, matching lenient
		// real-world FITS readers.
		c.Comment = strings.TrimRight(string(field[i:]), " ")
		return nil
	}
	rest := field[i+1:]
	rest = []byte(strings.TrimPrefix(string(rest), " "))
	c.Comment = strings.TrimRight(string(rest), " ")
	return nil
}
