package core

import (
	"fmt"
)

const DefaultNoData = -9999.0

// Raster is a row-major grid of elevations. Row 0 is the northern edge and
// (XMinimum, YMinimum) is the lower-left corner.
type Raster struct {
	NRows, NCols       int
	DataResolution     float64
	XMinimum, YMinimum float64
	NoDataValue        float64
	Data               []float64
}

func NewRaster(nrows, ncols int, resolution float64) *Raster {
	return &Raster{
		NRows:          nrows,
		NCols:          ncols,
		DataResolution: resolution,
		NoDataValue:    DefaultNoData,
		Data:           make([]float64, nrows*ncols),
	}
}

// NewRasterLike returns a zeroed raster with the geometry of r.
func NewRasterLike(r *Raster) *Raster {
	var out = *r
	out.Data = make([]float64, len(r.Data))
	return &out
}

// Filled returns a raster with r's geometry where every cell holds value.
func Filled(r *Raster, value float64) *Raster {
	out := NewRasterLike(r)
	for i := range out.Data {
		out.Data[i] = value
	}
	return out
}

func (r *Raster) Copy() *Raster {
	var out = *r
	out.Data = make([]float64, len(r.Data))
	copy(out.Data, r.Data)
	return &out
}

// CopyFrom overwrites the cell values of r with those of src.
func (r *Raster) CopyFrom(src *Raster) error {
	if err := r.SameShape(src); err != nil {
		return err
	}
	copy(r.Data, src.Data)
	return nil
}

func (r *Raster) Index(row, col int) int {
	return row*r.NCols + col
}

func (r *Raster) At(row, col int) float64 {
	return r.Data[row*r.NCols+col]
}

func (r *Raster) Set(row, col int, value float64) {
	r.Data[row*r.NCols+col] = value
}

func (r *Raster) InBounds(row, col int) bool {
	return row >= 0 && row < r.NRows && col >= 0 && col < r.NCols
}

func (r *Raster) IsNoData(row, col int) bool {
	return r.Data[row*r.NCols+col] == r.NoDataValue
}

func (r *Raster) Len() int {
	return r.NRows * r.NCols
}

func (r *Raster) Dimensions() (int, int) {
	return r.NRows, r.NCols
}

// SameShape reports ErrDimensionMismatch if other has a different grid size.
func (r *Raster) SameShape(other *Raster) error {
	if other == nil || r.NRows != other.NRows || r.NCols != other.NCols || len(other.Data) != len(r.Data) {
		var or, oc int
		if other != nil {
			or, oc = other.NRows, other.NCols
		}
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, r.NRows, r.NCols, or, oc)
	}
	return nil
}

// MaxAbsDiff returns the largest |r - other| over cells that hold data in both.
func (r *Raster) MaxAbsDiff(other *Raster) float64 {
	var max = 0.0
	for i, v := range r.Data {
		o := other.Data[i]
		if v == r.NoDataValue || o == other.NoDataValue {
			continue
		}
		d := v - o
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
