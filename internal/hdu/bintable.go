package hdu

import (
	"errors"
	"strconv"

	"github.com/kestrelfits/gofits/internal/datatype"
	"github.com/kestrelfits/gofits/internal/ferr"
)

// computeTableGeometry derives the row stride from NAXIS1/NAXIS2 and parses
// the per-column descriptors. The sum of column widths must equal NAXIS1.
func (h *HDU) computeTableGeometry() error {
	n1, ok := h.NaxisN(1)
	if !ok {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "binary table missing NAXIS1")
	}
	n2, ok := h.NaxisN(2)
	if !ok {
		return ferr.New(ferr.InvalidHeader, h.headerPos, "binary table missing NAXIS2")
	}

	columns, err := h.parseColumns()
	if err != nil {
		return err
	}

	rowWidth := int64(0)
	for _, col := range columns {
		rowWidth += int64(col.Width())
	}
	if rowWidth != n1 {
		return ferr.New(ferr.InvalidHeader, h.headerPos,
			"column widths sum to %d but NAXIS1 = %d", rowWidth, n1)
	}

	h.columns = columns
	h.strideLen = n1
	h.totalStrides = n2
	return nil
}

// parseColumns reads TFIELDS and the per-column keyword families TFORMn,
// TTYPEn, TSCALn, TZEROn, TNULLn, TDIMn into column descriptors, 1-based
// per FITS.
func (h *HDU) parseColumns() ([]datatype.Column, error) {
	tfields, ok := h.cards.GetInt("TFIELDS")
	if !ok {
		return nil, ferr.New(ferr.InvalidHeader, h.headerPos, "binary table missing TFIELDS")
	}
	if tfields < 0 {
		return nil, ferr.New(ferr.InvalidHeader, h.headerPos, "negative TFIELDS %d", tfields)
	}

	columns := make([]datatype.Column, 0, tfields)
	for i := 1; i <= int(tfields); i++ {
		n := strconv.Itoa(i)

		tform, ok := h.cards.GetString("TFORM" + n)
		if !ok {
			return nil, ferr.New(ferr.InvalidHeader, h.headerPos, "missing TFORM%d", i)
		}
		form, err := datatype.ParseTForm(tform)
		if err != nil {
			var fe *ferr.Error
			if errors.As(err, &fe) {
				return nil, fe.WithOffset(h.headerPos)
			}
			return nil, err
		}

		col := datatype.Column{Index: i, Form: form}
		if name, ok := h.cards.GetString("TTYPE" + n); ok {
			col.Name = name
		}
		if v, ok := h.cards.GetFloat("TSCAL" + n); ok {
			col.Scale, col.HasScale = v, true
		}
		if v, ok := h.cards.GetFloat("TZERO" + n); ok {
			col.Zero, col.HasZero = v, true
		}
		if v, ok := h.cards.GetInt("TNULL" + n); ok {
			col.Null, col.HasNull = v, true
		}
		if v, ok := h.cards.GetString("TDIM" + n); ok {
			col.Dim = v
		}
		columns = append(columns, col)
	}
	return columns, nil
}
