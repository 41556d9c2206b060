// Package block provides the FITS 2880-byte block framing: a Stream that
// wraps an arbitrary byte source/sink, tracks a logical position whether or
// not the underlying stream is seekable, and pads reads/writes up to the
// next block boundary.
package block
