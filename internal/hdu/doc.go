// Package hdu implements the FITS Header/Data Unit: the shared lifecycle
// state machine (Start, Header, Strides, Done) over a block stream, header
// card I/O with mandatory-keyword validation, and per-kind stride geometry
// for primary images, image extensions, and binary tables.
package hdu
