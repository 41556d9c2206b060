package hdu

import (
	"strconv"
	"strings"

	"github.com/kestrelfits/gofits/internal/block"
	"github.com/kestrelfits/gofits/internal/card"
	"github.com/kestrelfits/gofits/internal/cardset"
	"github.com/kestrelfits/gofits/internal/datatype"
	"github.com/kestrelfits/gofits/internal/ferr"
)

// State is the lifecycle position of an HDU.
type State int

const (
	// StateStart is the initial state; cards are mutable.
	StateStart State = iota
	// StateHeader means the header has been read or written.
	StateHeader
	// StateStrides means at least one stride has been transferred.
	StateStrides
	// StateDone means all strides and the trailing pad are consumed or
	// emitted.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateHeader:
		return "header"
	case StateStrides:
		return "strides"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Kind discriminates the concrete HDU variant.
type Kind int

const (
	// KindUnknown is a read-side HDU before dispatch on SIMPLE/XTENSION.
	KindUnknown Kind = iota
	// KindPrimary is the primary image HDU (SIMPLE = T).
	KindPrimary
	// KindImageExtension is an IMAGE extension HDU.
	KindImageExtension
	// KindBinaryTable is a BINTABLE extension HDU.
	KindBinaryTable
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary image"
	case KindImageExtension:
		return "image extension"
	case KindBinaryTable:
		return "binary table"
	default:
		return "unknown"
	}
}

// validBitpix holds the BITPIX values the standard permits.
var validBitpix = map[int64]bool{8: true, 16: true, 32: true, 64: true, -32: true, -64: true}

// HDU is one Header/Data Unit: a card collection plus stride-wise access
// to the data section that follows it. The zero value is not usable;
// construct with NewGeneric, NewPrimary, NewImageExtension, or
// NewBinaryTable, then bind a stream before header I/O.
type HDU struct {
	kind  Kind
	state State

	cards  *cardset.Collection
	stream *block.Stream

	headerPos int64
	dataPos   int64

	strideLen     int64
	totalStrides  int64
	strideCounter int64

	columns []datatype.Column // binary table only

	buf        []byte
	bufRelease func()
}

func newHDU(kind Kind) *HDU {
	return &HDU{kind: kind, cards: cardset.New()}
}

// NewGeneric returns an HDU whose kind is resolved from SIMPLE/XTENSION
// when the header is read.
func NewGeneric() *HDU { return newHDU(KindUnknown) }

// NewPrimary returns a primary image HDU pre-populated with the mandatory
// cards for the given pixel width and axis lengths.
func NewPrimary(bitpix int64, axes ...int64) *HDU {
	h := newHDU(KindPrimary)
	h.cards.Append(boolCard("SIMPLE", true, "conforms to FITS standard"))
	h.appendImageCards(bitpix, axes)
	h.cards.Append(boolCard("EXTEND", true, "extensions may be present"))
	return h
}

// NewImageExtension returns an IMAGE extension HDU pre-populated with the
// mandatory cards for the given pixel width and axis lengths.
func NewImageExtension(bitpix int64, axes ...int64) *HDU {
	h := newHDU(KindImageExtension)
	h.cards.Append(strCard("XTENSION", "IMAGE", "image extension"))
	h.appendImageCards(bitpix, axes)
	h.cards.Append(intCard("PCOUNT", 0, ""))
	h.cards.Append(intCard("GCOUNT", 1, ""))
	return h
}

func (h *HDU) appendImageCards(bitpix int64, axes []int64) {
	h.cards.Append(intCard("BITPIX", bitpix, "bits per pixel"))
	h.cards.Append(intCard("NAXIS", int64(len(axes)), "number of axes"))
	for i, ax := range axes {
		h.cards.Append(intCard("NAXIS"+strconv.Itoa(i+1), ax, ""))
	}
}

// NewBinaryTable returns a BINTABLE extension HDU for the given columns and
// row count. NAXIS1 is computed as the sum of column wire widths; column
// indices are renumbered 1-based in order.
func NewBinaryTable(columns []datatype.Column, rows int64) *HDU {
	h := newHDU(KindBinaryTable)

	rowWidth := int64(0)
	for _, col := range columns {
		rowWidth += int64(col.Width())
	}

	h.cards.Append(strCard("XTENSION", "BINTABLE", "binary table extension"))
	h.cards.Append(intCard("BITPIX", 8, "8-bit bytes"))
	h.cards.Append(intCard("NAXIS", 2, "2-dimensional table"))
	h.cards.Append(intCard("NAXIS1", rowWidth, "bytes per row"))
	h.cards.Append(intCard("NAXIS2", rows, "number of rows"))
	h.cards.Append(intCard("PCOUNT", 0, "no heap"))
	h.cards.Append(intCard("GCOUNT", 1, "one data group"))
	h.cards.Append(intCard("TFIELDS", int64(len(columns)), "number of columns"))

	for i := range columns {
		columns[i].Index = i + 1
		col := columns[i]
		n := strconv.Itoa(col.Index)
		h.cards.Append(strCard("TFORM"+n, col.Form.String(), ""))
		if col.Name != "" {
			h.cards.Append(strCard("TTYPE"+n, col.Name, ""))
		}
		if col.HasScale {
			h.cards.Append(floatCard("TSCAL"+n, col.Scale, ""))
		}
		if col.HasZero {
			h.cards.Append(floatCard("TZERO"+n, col.Zero, ""))
		}
		if col.HasNull {
			h.cards.Append(intCard("TNULL"+n, col.Null, ""))
		}
		if col.Dim != "" {
			h.cards.Append(strCard("TDIM"+n, col.Dim, ""))
		}
	}

	h.columns = append([]datatype.Column(nil), columns...)
	return h
}

func boolCard(kw string, v bool, comment string) *card.Card {
	return &card.Card{Keyword: kw, HasValue: true, ValueKind: card.ValueBool, Bool: v, Comment: comment}
}

func intCard(kw string, v int64, comment string) *card.Card {
	return &card.Card{Keyword: kw, HasValue: true, ValueKind: card.ValueInt, Int: v, Comment: comment}
}

func floatCard(kw string, v float64, comment string) *card.Card {
	return &card.Card{Keyword: kw, HasValue: true, ValueKind: card.ValueFloat, Float: v, Comment: comment}
}

func strCard(kw, v, comment string) *card.Card {
	return &card.Card{Keyword: kw, HasValue: true, ValueKind: card.ValueString, Str: v, Comment: comment}
}

// Bind attaches the stream the HDU reads from or writes to. The stream is
// borrowed, never owned.
func (h *HDU) Bind(s *block.Stream) { h.stream = s }

// Kind returns the HDU variant.
func (h *HDU) Kind() Kind { return h.kind }

// State returns the current lifecycle state.
func (h *HDU) State() State { return h.state }

// Cards returns the HDU's card collection. Mutate only through SetCard,
// which enforces the lifecycle.
func (h *HDU) Cards() *cardset.Collection { return h.cards }

// Card returns the first card with the given keyword.
func (h *HDU) Card(keyword string) (*card.Card, bool) { return h.cards.Get(keyword) }

// SetCard replaces or inserts a card. Cards are mutable only before the
// header has been read or written.
func (h *HDU) SetCard(c *card.Card) error {
	if h.state != StateStart {
		return ferr.New(ferr.InvalidState, h.pos(), "cannot mutate cards in state %s", h.state)
	}
	h.cards.Set(c)
	return nil
}

// HeaderPosition returns the block-aligned byte offset of the header.
func (h *HDU) HeaderPosition() int64 { return h.headerPos }

// DataPosition returns the block-aligned byte offset of the data section.
func (h *HDU) DataPosition() int64 { return h.dataPos }

// StrideLength returns the stride width in bytes.
func (h *HDU) StrideLength() int64 { return h.strideLen }

// TotalStrides returns the number of strides in the data section.
func (h *HDU) TotalStrides() int64 { return h.totalStrides }

// StrideCounter returns the number of strides transferred so far.
func (h *HDU) StrideCounter() int64 { return h.strideCounter }

// Columns returns the binary-table column descriptors, nil for images.
func (h *HDU) Columns() []datatype.Column { return h.columns }

// Simple returns the SIMPLE card value.
func (h *HDU) Simple() (bool, bool) { return h.cards.GetBool("SIMPLE") }

// Xtension returns the XTENSION value with padding trimmed.
func (h *HDU) Xtension() (string, bool) {
	s, ok := h.cards.GetString("XTENSION")
	return strings.TrimSpace(s), ok
}

// Bitpix returns the BITPIX card value.
func (h *HDU) Bitpix() (int64, bool) { return h.cards.GetInt("BITPIX") }

// Naxis returns the NAXIS card value.
func (h *HDU) Naxis() (int64, bool) { return h.cards.GetInt("NAXIS") }

// NaxisN returns the NAXISi card value for a 1-based axis index.
func (h *HDU) NaxisN(i int) (int64, bool) {
	return h.cards.GetInt("NAXIS" + strconv.Itoa(i))
}

// Extend returns the EXTEND card value.
func (h *HDU) Extend() (bool, bool) { return h.cards.GetBool("EXTEND") }

// ExtName returns the EXTNAME value with padding trimmed.
func (h *HDU) ExtName() (string, bool) {
	s, ok := h.cards.GetString("EXTNAME")
	return strings.TrimSpace(s), ok
}

// ExtVer returns the EXTVER card value.
func (h *HDU) ExtVer() (int64, bool) { return h.cards.GetInt("EXTVER") }

// BScale returns the BSCALE card value for image HDUs.
func (h *HDU) BScale() (float64, bool) { return h.cards.GetFloat("BSCALE") }

// BZero returns the BZERO card value for image HDUs.
func (h *HDU) BZero() (float64, bool) { return h.cards.GetFloat("BZERO") }

// PhysicalValue applies the image-level BSCALE/BZERO affine transform to a
// decoded pixel value, defaulting to identity when the cards are absent.
func (h *HDU) PhysicalValue(wire float64) float64 {
	scale, zero := 1.0, 0.0
	if v, ok := h.BScale(); ok {
		scale = v
	}
	if v, ok := h.BZero(); ok {
		zero = v
	}
	return wire*scale + zero
}

// pos returns the best-known stream offset for error context.
func (h *HDU) pos() int64 {
	if h.stream != nil {
		return h.stream.Position()
	}
	return 0
}

// resolve dispatches the concrete kind (when unknown), validates the
// mandatory keywords, and computes the stride geometry.
func (h *HDU) resolve() error {
	if err := h.dispatchKind(); err != nil {
		return err
	}
	if err := h.validateMandatory(); err != nil {
		return err
	}
	return h.computeGeometry()
}

func (h *HDU) dispatchKind() error {
	if h.kind != KindUnknown {
		return nil
	}
	if h.cards.Has("SIMPLE") {
		h.kind = KindPrimary
		return nil
	}
	x, ok := h.Xtension()
	if !ok {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "neither SIMPLE nor XTENSION present")
	}
	switch x {
	case "IMAGE":
		h.kind = KindImageExtension
	case "BINTABLE":
		h.kind = KindBinaryTable
	default:
		return ferr.New(ferr.Unsupported, h.headerPos, "extension type %q", x)
	}
	return nil
}

func (h *HDU) validateMandatory() error {
	if h.kind == KindPrimary {
		simple, ok := h.Simple()
		if !ok {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "primary HDU missing SIMPLE")
		}
		if !simple {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "SIMPLE = F is not conformant")
		}
	} else {
		if _, ok := h.Xtension(); !ok {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "extension HDU missing XTENSION")
		}
		if h.cards.Has("SIMPLE") {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "extension HDU carries SIMPLE")
		}
	}

	bitpix, ok := h.Bitpix()
	if !ok {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "missing BITPIX")
	}
	if !validBitpix[bitpix] {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "invalid BITPIX %d", bitpix)
	}

	naxis, ok := h.Naxis()
	if !ok {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "missing NAXIS")
	}
	if naxis < 0 {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "negative NAXIS %d", naxis)
	}
	for i := 1; i <= int(naxis); i++ {
		ax, ok := h.NaxisN(i)
		if !ok {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "missing NAXIS%d", i)
		}
		if ax < 0 {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "negative NAXIS%d = %d", i, ax)
		}
	}

	if h.kind != KindPrimary {
		pcount, ok := h.cards.GetInt("PCOUNT")
		if !ok {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "extension HDU missing PCOUNT")
		}
		if pcount != 0 {
			return ferr.New(ferr.Unsupported, h.headerPos, "PCOUNT %d: heap data area", pcount)
		}
		if _, ok := h.cards.GetInt("GCOUNT"); !ok {
			return ferr.New(ferr.InvalidHeader, h.headerPos, "extension HDU missing GCOUNT")
		}
	}
	return nil
}

func (h *HDU) computeGeometry() error {
	switch h.kind {
	case KindPrimary, KindImageExtension:
		return h.computeImageGeometry()
	case KindBinaryTable:
		return h.computeTableGeometry()
	default:
		return ferr.New(ferr.InvalidState, h.headerPos, "geometry for unresolved HDU kind")
	}
}

// computeImageGeometry derives stride geometry from BITPIX and the axis
// cards. NAXIS1 is the fastest-varying axis and forms the stride; the
// stride count accumulates the remaining axes.
func (h *HDU) computeImageGeometry() error {
	bitpix, _ := h.Bitpix()
	naxis, _ := h.Naxis()

	if naxis == 0 {
		h.strideLen, h.totalStrides = 0, 0
		return nil
	}

	n1, _ := h.NaxisN(1)
	width := bitpix
	if width < 0 {
		width = -width
	}
	h.strideLen = width / 8 * n1

	h.totalStrides = 1
	for i := 2; i <= int(naxis); i++ {
		ax, _ := h.NaxisN(i)
		h.totalStrides *= ax
	}
	return nil
}
