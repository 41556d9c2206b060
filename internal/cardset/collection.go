package cardset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kestrelfits/gofits/internal/card"
	"github.com/kestrelfits/gofits/internal/ferr"
)

// Collection is an ordered sequence of header cards with a hash index from
// normalized keyword to first occurrence, so keyword lookups (Get, Has, and
// the replace path of Set) stay O(1) even on headers carrying hundreds of
// user keywords. Inserting a new card is O(n): the slice and index shift.
type Collection struct {
	cards []*card.Card
	index map[uint64]int
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{index: make(map[uint64]int)}
}

// keyID hashes a keyword after FITS normalization (trim, uppercase ASCII).
func keyID(keyword string) uint64 {
	return xxhash.Sum64String(strings.ToUpper(strings.TrimSpace(keyword)))
}

// Len returns the number of cards in the collection.
func (cc *Collection) Len() int { return len(cc.cards) }

// At returns the card at position i.
func (cc *Collection) At(i int) *card.Card { return cc.cards[i] }

// Cards returns the underlying ordered card slice. Callers must not reorder
// it directly; use Set/Append/Sort.
func (cc *Collection) Cards() []*card.Card { return cc.cards }

// Append adds c at the end of the collection unconditionally.
func (cc *Collection) Append(c *card.Card) {
	id := keyID(c.Keyword)
	if _, ok := cc.index[id]; !ok {
		cc.index[id] = len(cc.cards)
	}
	cc.cards = append(cc.cards, c)
}

// Get returns the first card with the given keyword.
func (cc *Collection) Get(keyword string) (*card.Card, bool) {
	i, ok := cc.index[keyID(keyword)]
	if !ok {
		return nil, false
	}
	return cc.cards[i], true
}

// Has reports whether a card with the given keyword is present.
func (cc *Collection) Has(keyword string) bool {
	_, ok := cc.index[keyID(keyword)]
	return ok
}

// Set replaces the first card with a matching keyword, or inserts c if no
// match exists. Commentary cards are never replaced, always appended. When
// the collection already ends with END, insertion goes just before it so
// END stays last.
func (cc *Collection) Set(c *card.Card) {
	if c.IsCommentary {
		cc.insert(cc.insertPos(), c)
		return
	}
	if i, ok := cc.index[keyID(c.Keyword)]; ok {
		cc.cards[i] = c
		return
	}
	cc.insert(cc.insertPos(), c)
}

// insertPos returns the position new cards are inserted at: before a
// trailing END card if one exists, else the end.
func (cc *Collection) insertPos() int {
	if n := len(cc.cards); n > 0 && cc.cards[n-1].IsEnd {
		return n - 1
	}
	return len(cc.cards)
}

func (cc *Collection) insert(pos int, c *card.Card) {
	cc.cards = append(cc.cards, nil)
	copy(cc.cards[pos+1:], cc.cards[pos:])
	cc.cards[pos] = c
	for id, i := range cc.index {
		if i >= pos {
			cc.index[id] = i + 1
		}
	}
	id := keyID(c.Keyword)
	if i, ok := cc.index[id]; !ok || pos < i {
		cc.index[id] = pos
	}
}

// Keyword priority buckets for the canonical FITS header order. Unknown
// keywords sort after the mandatory prefix in stable input order; END is
// pinned last.
const (
	priFirst = iota // SIMPLE / XTENSION
	priBitpix
	priNaxis
	priNaxisN
	priExtend
	priPcount
	priGcount
	priTfields
	priUser
	priEnd
)

// priority returns the sort bucket for a keyword, plus the axis number for
// NAXISn cards (zero otherwise) as a secondary key.
func priority(c *card.Card) (int, int) {
	if c.IsEnd {
		return priEnd, 0
	}
	kw := strings.ToUpper(strings.TrimSpace(c.Keyword))
	switch kw {
	case "SIMPLE", "XTENSION":
		return priFirst, 0
	case "BITPIX":
		return priBitpix, 0
	case "NAXIS":
		return priNaxis, 0
	case "EXTEND":
		return priExtend, 0
	case "PCOUNT":
		return priPcount, 0
	case "GCOUNT":
		return priGcount, 0
	case "TFIELDS":
		return priTfields, 0
	}
	if n, ok := axisNumber(kw); ok {
		return priNaxisN, n
	}
	return priUser, 0
}

func axisNumber(kw string) (int, bool) {
	if !strings.HasPrefix(kw, "NAXIS") || len(kw) == len("NAXIS") {
		return 0, false
	}
	n, err := strconv.Atoi(kw[len("NAXIS"):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Sort reorders the collection into the canonical FITS header order:
// mandatory keywords first in their prescribed sequence, then user cards in
// stable input order, then END. The sort is stable.
func (cc *Collection) Sort() {
	type keyed struct {
		c    *card.Card
		pri  int
		axis int
		orig int
	}
	keys := make([]keyed, len(cc.cards))
	for i, c := range cc.cards {
		pri, axis := priority(c)
		keys[i] = keyed{c: c, pri: pri, axis: axis, orig: i}
	}
	sort.SliceStable(keys, func(a, b int) bool {
		if keys[a].pri != keys[b].pri {
			return keys[a].pri < keys[b].pri
		}
		return keys[a].axis < keys[b].axis
	})
	for i, k := range keys {
		cc.cards[i] = k.c
	}
	cc.rebuildIndex()
}

func (cc *Collection) rebuildIndex() {
	cc.index = make(map[uint64]int, len(cc.cards))
	for i, c := range cc.cards {
		id := keyID(c.Keyword)
		if _, ok := cc.index[id]; !ok {
			cc.index[id] = i
		}
	}
}

// Validate checks the structural card invariant: exactly one END card,
// positioned last.
func (cc *Collection) Validate() error {
	ends := 0
	for i, c := range cc.cards {
		if !c.IsEnd {
			continue
		}
		ends++
		if i != len(cc.cards)-1 {
			return ferr.New(ferr.InvalidHeader, 0, "END card at position %d is not last", i)
		}
	}
	if ends != 1 {
		return ferr.New(ferr.InvalidHeader, 0, "expected exactly one END card, found %d", ends)
	}
	return nil
}

// GetBool returns the boolean value of the first card with the given
// keyword, if present with a boolean value.
func (cc *Collection) GetBool(keyword string) (bool, bool) {
	c, ok := cc.Get(keyword)
	if !ok || c.ValueKind != card.ValueBool {
		return false, false
	}
	return c.Bool, true
}

// GetInt returns the integer value of the first card with the given
// keyword, if present with an integer value.
func (cc *Collection) GetInt(keyword string) (int64, bool) {
	c, ok := cc.Get(keyword)
	if !ok || c.ValueKind != card.ValueInt {
		return 0, false
	}
	return c.Int, true
}

// GetFloat returns the floating-point value of the first card with the
// given keyword; integer-valued cards are widened.
func (cc *Collection) GetFloat(keyword string) (float64, bool) {
	c, ok := cc.Get(keyword)
	if !ok {
		return 0, false
	}
	switch c.ValueKind {
	case card.ValueFloat:
		return c.Float, true
	case card.ValueInt:
		return float64(c.Int), true
	default:
		return 0, false
	}
}

// GetString returns the string value of the first card with the given
// keyword. When the collection carries LONGSTRN and the value ends with the
// OGIP continuation marker "&", the string literals of the immediately
// following CONTINUE cards are appended, with each "&" removed.
func (cc *Collection) GetString(keyword string) (string, bool) {
	c, ok := cc.Get(keyword)
	if !ok || c.ValueKind != card.ValueString {
		return "", false
	}
	if !cc.Has("LONGSTRN") || !strings.HasSuffix(c.Str, "&") {
		return c.Str, true
	}

	i, _ := cc.index[keyID(keyword)]
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(c.Str, "&"))
	for j := i + 1; j < len(cc.cards); j++ {
		next := cc.cards[j]
		if !card.Equal(next.Keyword, "CONTINUE") || next.ValueKind != card.ValueString {
			break
		}
		piece := next.Str
		more := strings.HasSuffix(piece, "&")
		sb.WriteString(strings.TrimSuffix(piece, "&"))
		if !more {
			break
		}
	}
	return sb.String(), true
}
