package hdu

import (
	"errors"
	"io"

	"github.com/kestrelfits/gofits/internal/block"
	"github.com/kestrelfits/gofits/internal/card"
	"github.com/kestrelfits/gofits/internal/ferr"
)

// maxHeaderCards bounds header reads so a corrupt stream with no END card
// cannot be consumed without limit.
const maxHeaderCards = 10000

// ReadHeader consumes cards until END, skips the header padding, resolves
// the HDU kind and stride geometry, and records the section positions.
// A clean end-of-stream before the first card returns io.EOF, which the
// owning file treats as the normal terminator.
func (h *HDU) ReadHeader() error {
	if h.state != StateStart {
		return ferr.New(ferr.InvalidState, h.pos(), "header read in state %s", h.state)
	}
	if h.stream == nil || h.stream.Mode() != block.ModeRead {
		return ferr.New(ferr.InvalidState, h.pos(), "HDU not bound to a readable stream")
	}

	h.headerPos = h.stream.Position()

	var raw [card.Size]byte
	for i := 0; ; i++ {
		if i >= maxHeaderCards {
			return ferr.New(ferr.InvalidHeader, h.stream.Position(),
				"no END card within %d cards", maxHeaderCards)
		}
		if _, err := h.stream.Read(raw[:]); err != nil {
			if i == 0 && errors.Is(err, io.EOF) {
				return io.EOF
			}
			return ferr.Wrap(ferr.Io, h.stream.Position(), err, "reading header card %d", i)
		}
		c, err := card.Parse(raw[:])
		if err != nil {
			return ferr.Wrap(ferr.InvalidCard, h.stream.Position()-card.Size, err,
				"parsing header card %d", i)
		}
		h.cards.Append(c)
		if c.IsEnd {
			break
		}
	}

	if err := h.stream.PadToBlock(block.HeaderFill); err != nil {
		return ferr.Wrap(ferr.Io, h.stream.Position(), err, "skipping header padding")
	}
	h.dataPos = h.stream.Position()

	if err := h.resolve(); err != nil {
		return err
	}

	h.state = StateHeader
	if h.totalStrides == 0 {
		h.state = StateDone
	}
	return nil
}

// ReadStride reads the next stride and returns it. The returned buffer is
// reused: it is valid until the next ReadStride on this HDU or until the
// owning file advances. Reading the final stride also consumes the data
// padding and moves the HDU to Done.
func (h *HDU) ReadStride() ([]byte, error) {
	switch h.state {
	case StateStart:
		return nil, ferr.New(ferr.InvalidState, h.pos(), "stride read before header")
	case StateDone:
		return nil, ferr.New(ferr.InvalidState, h.pos(), "stride read past %d strides", h.totalStrides)
	}

	buf := h.strideBuf()
	if _, err := h.stream.Read(buf); err != nil {
		return nil, ferr.Wrap(ferr.Io, h.stream.Position(), err,
			"reading stride %d of %d", h.strideCounter, h.totalStrides)
	}
	h.state = StateStrides
	h.strideCounter++

	if h.strideCounter == h.totalStrides {
		if err := h.stream.PadToBlock(block.DataFill); err != nil {
			return nil, ferr.Wrap(ferr.Io, h.stream.Position(), err, "skipping data padding")
		}
		h.state = StateDone
	}
	return buf, nil
}

// ReadToFinish skips any remaining strides and the trailing pad, leaving
// the HDU at Done. It is a no-op on a Done HDU. Calling it on a fresh HDU
// reads the header first.
func (h *HDU) ReadToFinish() error {
	if h.state == StateDone {
		return nil
	}
	if h.state == StateStart {
		if err := h.ReadHeader(); err != nil {
			return err
		}
		if h.state == StateDone {
			return nil
		}
	}

	remaining := (h.totalStrides - h.strideCounter) * h.strideLen
	if err := h.stream.SkipForward(remaining); err != nil {
		return ferr.Wrap(ferr.Io, h.stream.Position(), err, "skipping remaining strides")
	}
	h.strideCounter = h.totalStrides

	if err := h.stream.PadToBlock(block.DataFill); err != nil {
		return ferr.Wrap(ferr.Io, h.stream.Position(), err, "skipping data padding")
	}
	h.state = StateDone
	return nil
}
