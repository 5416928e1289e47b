package hillslope

import (
	"fmt"
	"io"
	"math"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/linsolve"
)

// FullGridOptions tune the full-grid creep solver.
type FullGridOptions struct {
	Tolerance      float64 // mean per-cell change that ends the iteration
	MaxIter        int     // iterations before the tolerance is relaxed
	MaxRelaxations int
	MinDenominator float64
	Solve          linsolve.Options
	Debug          io.Writer
}

func DefaultFullGridOptions() FullGridOptions {
	return FullGridOptions{
		Tolerance:      0.01,
		MaxIter:        100,
		MaxRelaxations: 6,
		MinDenominator: DefaultMinDenominator,
		Solve:          linsolve.Options{Tolerance: 1e-8, MaxIterations: 500},
	}
}

// kTable holds the system row of every grid cell and of its four neighbours.
// Rows 0 and NRows+1 of the system are the fixed north and south ghost rows.
type kTable struct {
	ij, ip1, im1, jp1, jm1 []int
}

// FullGrid solves nonlinear creep together with uplift and a fluvial erosion
// rate on a grid bounded by base level to the north and south and periodic
// to the east and west.
type FullGrid struct {
	nrows, ncols int
	dx           float64
	opts         FullGridOptions
	k            *kTable
}

func NewFullGrid(nrows, ncols int, dx float64, opts FullGridOptions) *FullGrid {
	return &FullGrid{nrows: nrows, ncols: ncols, dx: dx, opts: opts}
}

func (f *FullGrid) table() *kTable {
	if f.k != nil {
		return f.k
	}
	n := f.nrows * f.ncols
	t := &kTable{
		ij:  make([]int, n),
		ip1: make([]int, n),
		im1: make([]int, n),
		jp1: make([]int, n),
		jm1: make([]int, n),
	}
	nc := f.ncols
	counter := 0
	for row := 0; row < f.nrows; row++ {
		for col := 0; col < nc; col++ {
			t.ij[counter] = nc*(row+1) + col
			t.ip1[counter] = nc*(row+2) + col
			t.im1[counter] = nc*row + col
			t.jp1[counter] = nc*(row+1) + (col+1)%nc
			t.jm1[counter] = nc*(row+1) + (col+nc-1)%nc
			counter++
		}
	}
	f.k = t
	return t
}

// Step advances z by p.Dt. zOld is the surface at the start of the step,
// uplift and fluvialRate are per-year fields added to the right hand side.
// north and south are the fixed elevations of the ghost rows.
func (f *FullGrid) Step(z, zOld, uplift, fluvialRate *core.Raster, m boundary.Model, p Params, north, south float64) (Result, error) {
	if err := m.RequireNSBaseEWPeriodic(); err != nil {
		return Result{}, err
	}
	if z.NRows != f.nrows || z.NCols != f.ncols {
		return Result{}, fmt.Errorf("%w: solver %dx%d, raster %dx%d", core.ErrDimensionMismatch,
			f.nrows, f.ncols, z.NRows, z.NCols)
	}
	for _, other := range []*core.Raster{zOld, uplift, fluvialRate} {
		if err := z.SameShape(other); err != nil {
			return Result{}, err
		}
	}
	if p.Sc <= 0 {
		return Result{}, fmt.Errorf("%w: critical slope %g", ErrBadParameter, p.Sc)
	}

	tol := f.opts.Tolerance
	nNodes := 0.0
	for i := range z.Data {
		if z.Data[i] != z.NoDataValue {
			nNodes++
		}
	}
	if nNodes == 0 {
		return Result{Converged: true}, nil
	}
	var out Result
	iteration := 0
	for {
		clamped, lin, err := f.iterate(z, zOld, uplift, fluvialRate, m, p, north, south, out.Iterations == 0)
		if err != nil {
			return out, err
		}
		out.Clamped += clamped
		out.LinearIterations += lin.res.Iterations
		if !lin.res.Converged {
			out.LinearFailures++
		}

		sum := 0.0
		for i, v := range lin.x {
			if z.Data[i] == z.NoDataValue {
				continue
			}
			sum += math.Abs(v - z.Data[i])
			z.Data[i] = v
		}
		out.Residual = sum / nNodes
		out.Iterations++
		iteration++

		if out.Residual <= tol {
			out.Converged = true
			return out, nil
		}
		if iteration > f.opts.MaxIter {
			if out.Relaxations >= f.opts.MaxRelaxations {
				return out, nil
			}
			tol *= 10
			iteration = 0
			out.Relaxations++
		}
	}
}

type fullGridSolve struct {
	x   []float64
	res linsolve.Result
}

func (f *FullGrid) iterate(z, zOld, uplift, fluvialRate *core.Raster, m boundary.Model, p Params, north, south float64, first bool) (int, fullGridSolve, error) {
	buff, err := m.Buffer(z, boundary.Fixed{North: north, South: south})
	if err != nil {
		return 0, fullGridSolve{}, err
	}
	t := f.table()
	nc := f.ncols
	dim := (f.nrows + 2) * nc
	dx2 := f.dx * f.dx
	front := p.Dt * p.D / dx2
	invTerm := 1 / (dx2 * p.Sc * p.Sc)

	b := linsolve.NewBuilder(dim)
	rhs := make([]float64, dim)
	for k := 0; k < nc; k++ {
		b.Set(k, k, 1)
		rhs[k] = north
	}
	for k := (f.nrows + 1) * nc; k < dim; k++ {
		b.Set(k, k, 1)
		rhs[k] = south
	}

	clamped := 0
	coeff := func(dz float64) float64 {
		c, was := conductance(front, invTerm, dz, f.opts.MinDenominator)
		if was {
			clamped++
		}
		return c
	}

	// faces to no-data cells carry no flux
	face := func(row, col int, dz float64) float64 {
		if buff.IsNoData(row, col) {
			return 0
		}
		return coeff(dz)
	}

	counter := 0
	for row := 0; row < f.nrows; row++ {
		for col := 0; col < nc; col++ {
			k := t.ij[counter]
			// no-data rows are decoupled identities solved to zero and
			// never copied back
			if z.IsNoData(row, col) {
				b.Set(k, k, 1)
				counter++
				continue
			}
			here := buff.At(row+1, col+1)
			A := face(row+2, col+1, buff.At(row+2, col+1)-here)
			B := face(row, col+1, here-buff.At(row, col+1))
			C := face(row+1, col+2, buff.At(row+1, col+2)-here)
			D := face(row+1, col, here-buff.At(row+1, col))

			rhs[k] = zOld.Data[counter] + p.Dt*uplift.Data[counter] - p.Dt*fluvialRate.Data[counter]
			b.Add(k, t.ip1[counter], -A)
			b.Add(k, t.im1[counter], -B)
			b.Add(k, t.jp1[counter], -C)
			b.Add(k, t.jm1[counter], -D)
			b.Add(k, k, 1+A+B+C+D)
			counter++
		}
	}

	A := b.Build()
	if first && f.opts.Debug != nil {
		if err := linsolve.Dump(f.opts.Debug, A, rhs); err != nil {
			return clamped, fullGridSolve{}, err
		}
	}
	x0 := make([]float64, dim)
	for k := 0; k < nc; k++ {
		x0[k] = north
		x0[(f.nrows+1)*nc+k] = south
	}
	for i, v := range z.Data {
		if v != z.NoDataValue {
			x0[nc+i] = v
		}
	}
	x, res, err := linsolve.BiCGSTAB(A, rhs, x0, f.opts.Solve)
	if err != nil {
		return clamped, fullGridSolve{}, fmt.Errorf("hillslope: full grid solve: %w", err)
	}
	return clamped, fullGridSolve{x: x[nc : (f.nrows+1)*nc], res: res}, nil
}
