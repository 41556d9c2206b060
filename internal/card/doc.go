// Package card implements parsing and serialization of single 80-byte FITS
// header records ("cards"): keyword, optional typed value, optional
// comment, plus the OGIP long-string continuation convention.
package card
