// Package datatype holds the FITS binary-table data-type registry: TFORM
// descriptor parsing and formatting, per-element wire widths, and the
// per-column keyword mapping (TTYPEn, TSCALn, TZEROn, TNULLn, TDIMn).
package datatype
