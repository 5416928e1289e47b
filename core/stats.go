package core

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Values returns the cells of r that hold data.
func (r *Raster) Values() []float64 {
	out := make([]float64, 0, len(r.Data))
	for _, v := range r.Data {
		if v != r.NoDataValue {
			out = append(out, v)
		}
	}
	return out
}

func (r *Raster) MaxElevation() float64 {
	values := r.Values()
	if len(values) == 0 {
		return r.NoDataValue
	}
	return floats.Max(values)
}

func (r *Raster) MinElevation() float64 {
	values := r.Values()
	if len(values) == 0 {
		return r.NoDataValue
	}
	return floats.Min(values)
}

func (r *Raster) MeanElevation() float64 {
	values := r.Values()
	if len(values) == 0 {
		return r.NoDataValue
	}
	return stat.Mean(values, nil)
}

// MeanRelief averages the local relief (max - min) over a moving window.
// A radius <= 0 uses the 3x3 neighbourhood, otherwise a circular window of
// the given radius in map units.
func (r *Raster) MeanRelief(radius float64) float64 {
	var k = 1
	if radius > 0 {
		k = int(math.Ceil(radius / r.DataResolution))
		if k < 1 {
			k = 1
		}
	}
	var circular = radius > 0
	var limit = radius / r.DataResolution

	var reliefs []float64
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			if r.IsNoData(row, col) {
				continue
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for dr := -k; dr <= k; dr++ {
				for dc := -k; dc <= k; dc++ {
					if circular && math.Hypot(float64(dr), float64(dc)) > limit {
						continue
					}
					rr, cc := row+dr, col+dc
					if !r.InBounds(rr, cc) || r.IsNoData(rr, cc) {
						continue
					}
					v := r.At(rr, cc)
					lo = math.Min(lo, v)
					hi = math.Max(hi, v)
				}
			}
			reliefs = append(reliefs, hi-lo)
		}
	}
	if len(reliefs) == 0 {
		return 0
	}
	return stat.Mean(reliefs, nil)
}
