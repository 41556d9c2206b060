// fitsdump prints a human-readable summary of every HDU in a FITS file.
package main

import (
	"bufio"
	"compress/gzip"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kestrelfits/gofits"
)

var version = "dev"

const (
	exitSuccess = 0
	exitError   = 1
)

type config struct {
	inputFile string
	showCards bool
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, done := parseFlags()
	if done {
		return exitSuccess
	}

	input, cleanup, err := openInput(cfg.inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	defer cleanup()

	out := bufio.NewWriterSize(os.Stdout, 1<<20)
	defer func() { _ = out.Flush() }()

	if err := dump(cfg, input, out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}

	return exitSuccess
}

func parseFlags() (config, bool) {
	var cfg config
	var showVersion, showHelp bool

	flag.StringVar(&cfg.inputFile, "i", "", "input FITS file (default: stdin, supports .gz)")
	flag.BoolVar(&cfg.showCards, "cards", false, "print every header card")
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
	flag.BoolVar(&showHelp, "h", false, "show help")

	flag.Usage = usage
	flag.Parse()

	if showHelp {
		flag.Usage()
		return cfg, true
	}

	if showVersion {
		fmt.Printf("fitsdump version %s\n", version)
		return cfg, true
	}

	// Handle positional arguments
	args := flag.Args()
	if len(args) > 0 && cfg.inputFile == "" {
		cfg.inputFile = args[0]
	}

	return cfg, false
}

func usage() {
	fmt.Fprintf(os.Stderr, `fitsdump - FITS file inspector

Usage:
  fitsdump [options] [-i input.fits]

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  fitsdump image.fits                 Summarize every HDU
  fitsdump -cards image.fits          Include all header cards
  fitsdump -i table.fits.gz           Inspect gzip-compressed input
  cat image.fits | fitsdump           Read from stdin
`)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return wrapInputMaybeGzip(path, os.Stdin, func() {})
	}

	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open input: %w", err)
	}
	cleanup := func() { _ = f.Close() }
	return wrapInputMaybeGzip(path, f, cleanup)
}

func wrapInputMaybeGzip(path string, in io.Reader, closeInput func()) (io.Reader, func(), error) {
	br := bufio.NewReaderSize(in, 1<<20)
	hasGzipMagic, err := inputHasGzipMagic(br)
	if err != nil {
		closeInput()
		return nil, nil, fmt.Errorf("cannot inspect input: %w", err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".gz") || hasGzipMagic {
		gz, err := gzip.NewReader(br)
		if err != nil {
			closeInput()
			return nil, nil, fmt.Errorf("cannot open gzip input: %w", err)
		}
		return gz, func() {
			_ = gz.Close()
			closeInput()
		}, nil
	}

	return br, closeInput, nil
}

func inputHasGzipMagic(br *bufio.Reader) (bool, error) {
	header, err := br.Peek(2)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return len(header) == 2 && header[0] == 0x1f && header[1] == 0x8b, nil
}

func dump(cfg config, input io.Reader, out io.Writer) error {
	f := gofits.NewReader(input, nil)
	defer func() { _ = f.Close() }()

	for i := 0; ; i++ {
		h, ok, err := f.Advance()
		if err != nil {
			return fmt.Errorf("HDU %d: %w", i, err)
		}
		if !ok {
			if i == 0 {
				fmt.Fprintln(out, "no HDUs found")
			}
			return nil
		}
		printHDU(out, i, h, cfg.showCards)
	}
}

func printHDU(out io.Writer, index int, h *gofits.HDU, showCards bool) {
	fmt.Fprintf(out, "HDU %d: %s\n", index, h.Kind())

	if name, ok := h.ExtName(); ok {
		fmt.Fprintf(out, "  extname: %s", name)
		if ver, ok := h.ExtVer(); ok {
			fmt.Fprintf(out, " (version %d)", ver)
		}
		fmt.Fprintln(out)
	}

	bitpix, _ := h.Bitpix()
	naxis, _ := h.Naxis()
	fmt.Fprintf(out, "  bitpix: %d, naxis: %d", bitpix, naxis)
	if naxis > 0 {
		dims := make([]string, naxis)
		for i := 1; i <= int(naxis); i++ {
			ax, _ := h.NaxisN(i)
			dims[i-1] = fmt.Sprintf("%d", ax)
		}
		fmt.Fprintf(out, " (%s)", strings.Join(dims, " x "))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  strides: %d x %d bytes\n", h.TotalStrides(), h.StrideLength())

	if cols := h.Columns(); len(cols) > 0 {
		fmt.Fprintf(out, "  columns:\n")
		for _, col := range cols {
			name := col.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Fprintf(out, "    %3d  %-16s %-6s %d bytes\n", col.Index, name, col.Form, col.Width())
		}
	}

	if showCards {
		fmt.Fprintf(out, "  cards:\n")
		for _, c := range h.Cards().Cards() {
			fmt.Fprintf(out, "    %s\n", strings.TrimRight(string(c.Serialize()), " "))
		}
	}
}
