// Package ferr defines the typed error kinds used throughout gofits: Io,
// InvalidCard, InvalidHeader, InvalidState, Unsupported, and InvalidValue,
// each carrying the byte offset at which the failure was detected. Errors
// support errors.Is against the package's sentinel values and errors.As
// against *Error for offset/kind inspection.
package ferr
