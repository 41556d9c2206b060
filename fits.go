// Package gofits reads and writes FITS (Flexible Image Transport System)
// files incrementally: callers iterate Header/Data Units in order, inspect
// their header cards, and stream the data payload one stride at a time
// without materializing it. Both seekable and forward-only streams are
// supported; all sections stay aligned to the 2880-byte FITS block.
package gofits

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kestrelfits/gofits/internal/block"
	"github.com/kestrelfits/gofits/internal/codec"
	"github.com/kestrelfits/gofits/internal/datatype"
	"github.com/kestrelfits/gofits/internal/ferr"
	"github.com/kestrelfits/gofits/internal/hdu"
)

// Re-exported HDU types so callers only import this package.
type (
	// HDU is one Header/Data Unit.
	HDU = hdu.HDU
	// Kind discriminates the concrete HDU variant.
	Kind = hdu.Kind
	// State is the lifecycle position of an HDU.
	State = hdu.State
	// Column describes one binary-table column.
	Column = datatype.Column
	// Descriptor is a parsed TFORM value.
	Descriptor = datatype.Descriptor
	// Codec encodes and decodes FITS primitive wire values.
	Codec = codec.Codec
	// ByteOrder is the byte-order abstraction a Codec is built from.
	ByteOrder = codec.ByteOrder
)

// HDU kind and state values.
const (
	KindPrimary        = hdu.KindPrimary
	KindImageExtension = hdu.KindImageExtension
	KindBinaryTable    = hdu.KindBinaryTable

	StateStart   = hdu.StateStart
	StateHeader  = hdu.StateHeader
	StateStrides = hdu.StateStrides
	StateDone    = hdu.StateDone
)

// Error kind sentinels, usable with errors.Is.
var (
	ErrIo            = ferr.ErrIo
	ErrInvalidCard   = ferr.ErrInvalidCard
	ErrInvalidHeader = ferr.ErrInvalidHeader
	ErrInvalidState  = ferr.ErrInvalidState
	ErrUnsupported   = ferr.ErrUnsupported
	ErrInvalidValue  = ferr.ErrInvalidValue
)

// NewPrimary returns a primary image HDU with its mandatory cards.
func NewPrimary(bitpix int64, axes ...int64) *HDU { return hdu.NewPrimary(bitpix, axes...) }

// NewImageExtension returns an IMAGE extension HDU with its mandatory cards.
func NewImageExtension(bitpix int64, axes ...int64) *HDU {
	return hdu.NewImageExtension(bitpix, axes...)
}

// NewBinaryTable returns a BINTABLE extension HDU for the given columns and
// row count.
func NewBinaryTable(columns []Column, rows int64) *HDU {
	return hdu.NewBinaryTable(columns, rows)
}

// NewGeneric returns an HDU whose kind is resolved from the header on read.
func NewGeneric() *HDU { return hdu.NewGeneric() }

// ParseTForm parses a binary-table TFORM descriptor.
func ParseTForm(s string) (Descriptor, error) { return datatype.ParseTForm(s) }

// Mode selects whether a File reads or writes its stream.
type Mode int

const (
	// ModeRead iterates HDUs from an existing stream.
	ModeRead Mode = iota
	// ModeWrite appends HDUs to a new stream.
	ModeWrite
)

// Options configures a File beyond its stream and mode.
type Options struct {
	// Order is the wire byte order; nil selects the FITS default,
	// big-endian.
	Order codec.ByteOrder
}

func (o *Options) codec() codec.Codec {
	if o == nil || o.Order == nil {
		return codec.NewWire()
	}
	return codec.New(o.Order)
}

// File drives a sequence of HDUs over one exclusively owned stream.
type File struct {
	mode   Mode
	stream *block.Stream
	codec  codec.Codec

	hdus    []*hdu.HDU
	protos  []*hdu.HDU
	current *hdu.HDU
	closed  bool
}

// Open opens the file at path for reading. The file handle is owned and
// released by Close.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return newFile(ModeRead, block.NewReader(f, true), nil), nil
}

// Create creates the file at path for writing. The file handle is owned
// and released by Close.
func Create(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return newFile(ModeWrite, block.NewWriter(f, true), nil), nil
}

// NewReader wraps an externally supplied reader; it is never closed by
// Close. opts may be nil for defaults.
func NewReader(r io.Reader, opts *Options) *File {
	return newFile(ModeRead, block.NewReader(r, false), opts)
}

// NewWriter wraps an externally supplied writer; it is never closed by
// Close. opts may be nil for defaults.
func NewWriter(w io.Writer, opts *Options) *File {
	return newFile(ModeWrite, block.NewWriter(w, false), opts)
}

func newFile(mode Mode, stream *block.Stream, opts *Options) *File {
	return &File{mode: mode, stream: stream, codec: opts.codec()}
}

// Mode reports whether the file reads or writes.
func (f *File) Mode() Mode { return f.mode }

// Codec returns the primitive codec matching the file's byte order, for
// decoding stride contents.
func (f *File) Codec() codec.Codec { return f.codec }

// HDUs returns the HDUs produced or appended so far, in stream order.
func (f *File) HDUs() []*hdu.HDU { return f.hdus }

// SetPrototypes supplies HDUs that Advance consumes in order instead of
// auto-dispatching on SIMPLE/XTENSION, supporting user-driven type
// selection. Read mode only, before the stream is exhausted of prototypes.
func (f *File) SetPrototypes(hs ...*hdu.HDU) error {
	if f.mode != ModeRead {
		return ferr.New(ferr.InvalidState, f.stream.Position(), "prototypes apply to read mode only")
	}
	f.protos = append(f.protos, hs...)
	return nil
}

// Advance finishes the current HDU if needed and reads the next one's
// header. It returns (nil, false, nil) at a clean end of stream.
func (f *File) Advance() (*HDU, bool, error) {
	if f.closed {
		return nil, false, ferr.New(ferr.InvalidState, f.stream.Position(), "file is closed")
	}
	if f.mode != ModeRead {
		return nil, false, ferr.New(ferr.InvalidState, f.stream.Position(), "advance on a write-mode file")
	}

	if f.current != nil {
		if err := f.current.ReadToFinish(); err != nil {
			return nil, false, err
		}
		f.current.ReleaseBuffers()
		f.current = nil
	}

	var h *hdu.HDU
	if len(f.protos) > 0 {
		h, f.protos = f.protos[0], f.protos[1:]
	} else {
		h = hdu.NewGeneric()
	}
	h.Bind(f.stream)

	if err := h.ReadHeader(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		return nil, false, err
	}

	f.hdus = append(f.hdus, h)
	f.current = h
	return h, true, nil
}

// Append registers the next HDU to write. The previous HDU must have
// finished its strides. The caller then drives WriteHeader and WriteStride
// on h.
func (f *File) Append(h *hdu.HDU) error {
	if f.closed {
		return ferr.New(ferr.InvalidState, f.stream.Position(), "file is closed")
	}
	if f.mode != ModeWrite {
		return ferr.New(ferr.InvalidState, f.stream.Position(), "append on a read-mode file")
	}
	if f.current != nil && f.current.State() != hdu.StateDone {
		return ferr.New(ferr.InvalidState, f.stream.Position(),
			"previous HDU is in state %s, not done", f.current.State())
	}

	h.Bind(f.stream)
	f.hdus = append(f.hdus, h)
	f.current = h
	return nil
}

// Close pads the current block in write mode, flushes, and releases the
// stream if it was internally opened. Close is idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.current != nil {
		f.current.ReleaseBuffers()
		f.current = nil
	}

	if f.mode == ModeWrite {
		if err := f.stream.PadToBlock(block.DataFill); err != nil {
			return ferr.Wrap(ferr.Io, f.stream.Position(), err, "padding final block")
		}
		if err := f.stream.Flush(); err != nil {
			return ferr.Wrap(ferr.Io, f.stream.Position(), err, "flushing stream")
		}
	}
	return f.stream.Close()
}
