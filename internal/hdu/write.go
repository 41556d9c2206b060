package hdu

import (
	"github.com/kestrelfits/gofits/internal/block"
	"github.com/kestrelfits/gofits/internal/card"
	"github.com/kestrelfits/gofits/internal/ferr"
)

// WriteHeader sorts the cards into canonical order, appends END if absent,
// serializes every card, and pads the header block with spaces. After it
// returns the cards are immutable and stride writes may begin. An HDU with
// no data section moves straight to Done.
func (h *HDU) WriteHeader() error {
	if h.state != StateStart {
		return ferr.New(ferr.InvalidState, h.pos(), "header write in state %s", h.state)
	}
	if h.stream == nil || h.stream.Mode() != block.ModeWrite {
		return ferr.New(ferr.InvalidState, h.pos(), "HDU not bound to a writable stream")
	}

	if !h.cards.Has("END") {
		h.cards.Append(&card.Card{Keyword: "END", IsEnd: true})
	}
	h.cards.Sort()
	if err := h.cards.Validate(); err != nil {
		return err
	}
	if err := h.resolve(); err != nil {
		return err
	}

	h.headerPos = h.stream.Position()
	for _, c := range h.cards.Cards() {
		if _, err := h.stream.Write(c.Serialize()); err != nil {
			return ferr.Wrap(ferr.Io, h.stream.Position(), err, "writing card %s", c.Keyword)
		}
	}
	if err := h.stream.PadToBlock(block.HeaderFill); err != nil {
		return ferr.Wrap(ferr.Io, h.stream.Position(), err, "writing header padding")
	}
	h.dataPos = h.stream.Position()

	h.state = StateHeader
	if h.totalStrides == 0 {
		h.state = StateDone
	}
	return nil
}

// WriteStride emits one stride of data, which must be exactly StrideLength
// bytes. Writing the final stride also emits the zero padding of the data
// section and moves the HDU to Done.
func (h *HDU) WriteStride(data []byte) error {
	switch h.state {
	case StateStart:
		return ferr.New(ferr.InvalidState, h.pos(), "stride write before header")
	case StateDone:
		return ferr.New(ferr.InvalidState, h.pos(), "stride write past %d strides", h.totalStrides)
	}
	if int64(len(data)) != h.strideLen {
		return ferr.New(ferr.InvalidValue, h.pos(),
			"stride is %d bytes, want %d", len(data), h.strideLen)
	}

	if _, err := h.stream.Write(data); err != nil {
		return ferr.Wrap(ferr.Io, h.stream.Position(), err,
			"writing stride %d of %d", h.strideCounter, h.totalStrides)
	}
	h.state = StateStrides
	h.strideCounter++

	if h.strideCounter == h.totalStrides {
		if err := h.stream.PadToBlock(block.DataFill); err != nil {
			return ferr.Wrap(ferr.Io, h.stream.Position(), err, "writing data padding")
		}
		h.state = StateDone
	}
	return nil
}
