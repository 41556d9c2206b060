// fitsgen synthesizes small valid FITS files for fixtures and manual
// testing: a primary image filled with a gradient, plus an optional binary
// table extension.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kestrelfits/gofits"
)

var version = "dev"

const (
	exitSuccess = 0
	exitError   = 1
)

type config struct {
	outputFile string
	width      int64
	height     int64
	bitpix     int64
	table      bool
	rows       int64
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, done := parseFlags()
	if done {
		return exitSuccess
	}

	output, cleanup, err := openOutput(cfg.outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	defer cleanup()

	if err := generate(cfg, output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}

	return exitSuccess
}

func parseFlags() (config, bool) {
	var cfg config
	var showVersion, showHelp bool

	flag.StringVar(&cfg.outputFile, "o", "", "output FITS file (default: stdout)")
	flag.Int64Var(&cfg.width, "width", 64, "image width (NAXIS1)")
	flag.Int64Var(&cfg.height, "height", 64, "image height (NAXIS2)")
	flag.Int64Var(&cfg.bitpix, "bitpix", 16, "pixel width in bits (8, 16, 32, 64, -32, -64)")
	flag.BoolVar(&cfg.table, "table", false, "append a binary table extension")
	flag.Int64Var(&cfg.rows, "rows", 16, "binary table row count")
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
	flag.BoolVar(&showHelp, "h", false, "show help")

	flag.Usage = usage
	flag.Parse()

	if showHelp {
		flag.Usage()
		return cfg, true
	}

	if showVersion {
		fmt.Printf("fitsgen version %s\n", version)
		return cfg, true
	}

	// Handle positional arguments
	args := flag.Args()
	if len(args) > 0 && cfg.outputFile == "" {
		cfg.outputFile = args[0]
	}

	return cfg, false
}

func usage() {
	fmt.Fprintf(os.Stderr, `fitsgen - FITS fixture generator

Usage:
  fitsgen [options] [-o output.fits]

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  fitsgen -o ramp.fits                       64x64 16-bit gradient image
  fitsgen -width 512 -height 256 -o big.fits Larger image
  fitsgen -table -rows 100 -o mixed.fits     Image plus a binary table
  fitsgen | fitsdump                         Inspect a generated file
`)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		bw := bufio.NewWriterSize(os.Stdout, 1<<20)
		return bw, func() { _ = bw.Flush() }, nil
	}

	f, err := os.Create(path) //nolint:gosec // CLI tool needs to create user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	return bw, func() { _ = bw.Flush(); _ = f.Close() }, nil
}

func generate(cfg config, output io.Writer) error {
	f := gofits.NewWriter(output, nil)
	defer func() { _ = f.Close() }()

	if err := writeImage(f, cfg); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	if cfg.table {
		if err := writeTable(f, cfg); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
	}
	return f.Close()
}

func writeImage(f *gofits.File, cfg config) error {
	h := gofits.NewPrimary(cfg.bitpix, cfg.width, cfg.height)
	if err := f.Append(h); err != nil {
		return err
	}
	if err := h.WriteHeader(); err != nil {
		return err
	}

	c := f.Codec()
	for y := int64(0); y < cfg.height; y++ {
		stride := make([]byte, 0, h.StrideLength())
		for x := int64(0); x < cfg.width; x++ {
			stride = appendPixel(c, stride, cfg.bitpix, x+y)
		}
		if err := h.WriteStride(stride); err != nil {
			return err
		}
	}
	return nil
}

// appendPixel encodes a gradient value at the configured pixel width.
func appendPixel(c gofits.Codec, dst []byte, bitpix, v int64) []byte {
	switch bitpix {
	case 8:
		return c.EncodeUint8(dst, uint8(v))
	case 16:
		return c.EncodeInt16(dst, int16(v))
	case 32:
		return c.EncodeInt32(dst, int32(v))
	case 64:
		return c.EncodeInt64(dst, v)
	case -32:
		return c.EncodeFloat32(dst, float32(v))
	case -64:
		return c.EncodeFloat64(dst, float64(v))
	default:
		// Invalid widths are rejected by WriteHeader before any stride is
		// encoded.
		return dst
	}
}

func writeTable(f *gofits.File, cfg config) error {
	cols := []gofits.Column{
		{Name: "INDEX", Form: gofits.Descriptor{Repeat: 1, Code: 'J'}},
		{Name: "VALUE", Form: gofits.Descriptor{Repeat: 1, Code: 'D'}},
	}
	h := gofits.NewBinaryTable(cols, cfg.rows)
	if err := f.Append(h); err != nil {
		return err
	}
	if err := h.WriteHeader(); err != nil {
		return err
	}

	c := f.Codec()
	for i := int64(0); i < cfg.rows; i++ {
		row := make([]byte, 0, h.StrideLength())
		row = c.EncodeInt32(row, int32(i))
		row = c.EncodeFloat64(row, float64(i)*0.5)
		if err := h.WriteStride(row); err != nil {
			return err
		}
	}
	return nil
}
