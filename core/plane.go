package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Plane is the least-squares plane z = a + b*col + c*row through a raster.
type Plane struct {
	rows, cols int
	a, b, c    float64
}

func NewPlane(rows int, cols int) *Plane {
	return &Plane{rows: rows, cols: cols}
}

// Construct fits the plane to the valid cells of r.
func (p *Plane) Construct(r *Raster) error {
	if r.NRows != p.rows || r.NCols != p.cols {
		return fmt.Errorf("%w: plane %dx%d, raster %dx%d", ErrDimensionMismatch, p.rows, p.cols, r.NRows, r.NCols)
	}

	// A single row or column cannot constrain the other gradient.
	var useCol = p.cols > 1
	var useRow = p.rows > 1
	var terms = 1
	if useCol {
		terms++
	}
	if useRow {
		terms++
	}

	var design []float64
	var target []float64
	for row := 0; row < p.rows; row++ {
		for col := 0; col < p.cols; col++ {
			if r.IsNoData(row, col) {
				continue
			}
			design = append(design, 1)
			if useCol {
				design = append(design, float64(col))
			}
			if useRow {
				design = append(design, float64(row))
			}
			target = append(target, r.At(row, col))
		}
	}
	n := len(target)
	if n == 0 {
		return ErrNoData
	}
	if n < terms {
		// Not enough points for a plane: fall back to the mean.
		sum := 0.0
		for _, v := range target {
			sum += v
		}
		p.a, p.b, p.c = sum/float64(n), 0, 0
		return nil
	}

	A := mat.NewDense(n, terms, design)
	z := mat.NewVecDense(n, target)
	var x mat.VecDense
	if err := x.SolveVec(A, z); err != nil {
		return fmt.Errorf("core: plane fit: %w", err)
	}
	p.a = x.AtVec(0)
	p.b, p.c = 0, 0
	k := 1
	if useCol {
		p.b = x.AtVec(k)
		k++
	}
	if useRow {
		p.c = x.AtVec(k)
	}
	return nil
}

func (p *Plane) At(row, col int) float64 {
	return p.a + p.b*float64(col) + p.c*float64(row)
}

func (p *Plane) Coefficients() (a, b, c float64) {
	return p.a, p.b, p.c
}

// Detrend removes the best-fit plane from r. No-data cells are zero in the
// residual and carry the plane value in the trend.
func Detrend(r *Raster) (residual, trend *Raster, err error) {
	plane := NewPlane(r.NRows, r.NCols)
	if err := plane.Construct(r); err != nil {
		return nil, nil, err
	}
	residual = NewRasterLike(r)
	trend = NewRasterLike(r)
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			t := plane.At(row, col)
			trend.Set(row, col, t)
			if !r.IsNoData(row, col) {
				residual.Set(row, col, r.At(row, col)-t)
			}
		}
	}
	return residual, trend, nil
}
