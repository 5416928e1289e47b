package hillslope

import (
	"fmt"
	"io"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/linsolve"
)

// Params are the physical inputs of one diffusion step.
type Params struct {
	D  float64 // diffusivity, m^2/yr
	Sc float64 // critical slope as a gradient (tan of the angle)
	Dt float64
}

// Result describes how a step went. A step that did not converge still
// leaves its best estimate in the raster.
type Result struct {
	Iterations       int
	Converged        bool
	Residual         float64
	Clamped          int
	LinearIterations int
	LinearFailures   int
	Relaxations      int
	SubSteps         int
}

func (r *Result) merge(o Result) {
	r.Iterations += o.Iterations
	r.Clamped += o.Clamped
	r.LinearIterations += o.LinearIterations
	r.LinearFailures += o.LinearFailures
	r.Relaxations += o.Relaxations
	r.SubSteps += o.SubSteps
	r.Residual = o.Residual
	r.Converged = r.Converged && o.Converged
}

// DefaultSolveOptions are the sparse solver settings of the linear and
// nonlinear creep solvers.
func DefaultSolveOptions() linsolve.Options {
	return linsolve.Options{Tolerance: 1e-10, MaxIterations: 500}
}

// Solver advances a surface by one implicit diffusion step.
type Solver interface {
	Step(z *core.Raster, m boundary.Model, p Params) (Result, error)
}

// unknowns numbers the cells that take part in a solve: every cell that is
// neither no-data nor on a base-level edge.
type unknowns struct {
	index []int
	nodes []int
}

func newUnknowns(z *core.Raster, m boundary.Model) unknowns {
	u := unknowns{index: make([]int, z.Len())}
	for row := 0; row < z.NRows; row++ {
		for col := 0; col < z.NCols; col++ {
			node := z.Index(row, col)
			if z.IsNoData(row, col) || m.IsBaseLevel(row, col) {
				u.index[node] = -1
				continue
			}
			u.index[node] = len(u.nodes)
			u.nodes = append(u.nodes, node)
		}
	}
	return u
}

func checkModel(z *core.Raster, m boundary.Model) error {
	if z.NRows != m.NRows || z.NCols != m.NCols {
		return fmt.Errorf("%w: boundary model %dx%d, raster %dx%d", core.ErrDimensionMismatch,
			m.NRows, m.NCols, z.NRows, z.NCols)
	}
	return nil
}

// solve runs the sparse solver and writes the solution back into z.
func solve(z *core.Raster, u unknowns, b *linsolve.Builder, rhs []float64, opts linsolve.Options, debug io.Writer) (linsolve.Result, error) {
	A := b.Build()
	if debug != nil {
		if err := linsolve.Dump(debug, A, rhs); err != nil {
			return linsolve.Result{}, err
		}
	}
	x0 := make([]float64, len(u.nodes))
	for k, node := range u.nodes {
		x0[k] = z.Data[node]
	}
	x, res, err := linsolve.BiCGSTAB(A, rhs, x0, opts)
	if err != nil {
		return res, err
	}
	for k, node := range u.nodes {
		z.Data[node] = x[k]
	}
	return res, nil
}

var axisOffsets = [4][2]int{{-1, 0}, {0, 1}, {1, 0}, {0, -1}}

var diagonalOffsets = [4][2]int{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}}
