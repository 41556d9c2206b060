// Package cardset provides CardCollection: an ordered, keyword-indexed
// container of header cards with the canonical FITS mandatory-keyword sort
// order and OGIP long-string continuation assembly.
package cardset
