package hillslope

import (
	"fmt"
	"io"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/linsolve"
)

// Linear is implicit linear diffusion on a nine point stencil. Axis
// neighbours weigh r = D dt / dx^2 and diagonals r_ = D dt / (2 dx^2).
type Linear struct {
	Solve linsolve.Options
	Debug io.Writer
}

func NewLinear() *Linear {
	return &Linear{Solve: DefaultSolveOptions()}
}

func (l *Linear) Step(z *core.Raster, m boundary.Model, p Params) (Result, error) {
	if err := checkModel(z, m); err != nil {
		return Result{}, err
	}
	u := newUnknowns(z, m)
	if len(u.nodes) == 0 {
		return Result{Converged: true}, nil
	}

	dx2 := z.DataResolution * z.DataResolution
	r := p.D * p.Dt / dx2
	rDiag := p.D * p.Dt / (2 * dx2)

	b := linsolve.NewBuilder(len(u.nodes))
	rhs := make([]float64, len(u.nodes))
	for k, node := range u.nodes {
		row, col := node/z.NCols, node%z.NCols
		diag := 1.0
		rhs[k] = z.Data[node]

		couple := func(offsets [4][2]int, w float64) {
			for _, d := range offsets {
				rr, cc, ok := m.Neighbour(row, col, d[0], d[1])
				if !ok || z.IsNoData(rr, cc) {
					continue
				}
				diag += w
				nb := z.Index(rr, cc)
				if j := u.index[nb]; j >= 0 {
					b.Add(k, j, -w)
				} else {
					rhs[k] += w * z.Data[nb]
				}
			}
		}
		couple(axisOffsets, r)
		couple(diagonalOffsets, rDiag)
		b.Add(k, k, diag)
	}

	res, err := solve(z, u, b, rhs, l.Solve, l.Debug)
	if err != nil {
		return Result{}, fmt.Errorf("hillslope: linear solve: %w", err)
	}
	out := Result{
		Iterations:       1,
		Converged:        res.Converged,
		Residual:         res.Residual,
		LinearIterations: res.Iterations,
	}
	if !res.Converged {
		out.LinearFailures = 1
	}
	return out, nil
}
