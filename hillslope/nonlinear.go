package hillslope

import (
	"fmt"
	"io"
	"math"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/linsolve"
)

const (
	DefaultEpsilon        = 0.00001
	DefaultMaxIter        = 200
	DefaultMinDenominator = 0.01
)

// Nonlinear is finite-volume creep with a critical slope. Face conductances
// front / (1 - dz^2 / (dx^2 Sc^2)) come from the previous iterate and the
// system is re-solved until the largest change drops below Epsilon.
type Nonlinear struct {
	Epsilon float64
	MaxIter int
	// MinDenominator bounds 1 - (S/Sc)^2 away from zero near the critical slope.
	MinDenominator float64
	Solve          linsolve.Options
	Debug          io.Writer
}

func NewNonlinear() *Nonlinear {
	return &Nonlinear{
		Epsilon:        DefaultEpsilon,
		MaxIter:        DefaultMaxIter,
		MinDenominator: DefaultMinDenominator,
		Solve:          DefaultSolveOptions(),
	}
}

// conductance returns the clamped face coefficient and whether it was clamped.
func conductance(front, invTerm, dz, minDenominator float64) (float64, bool) {
	denom := 1 - dz*dz*invTerm
	if denom < minDenominator || math.IsNaN(denom) {
		return front / minDenominator, true
	}
	return front / denom, false
}

func (n *Nonlinear) Step(z *core.Raster, m boundary.Model, p Params) (Result, error) {
	if err := checkModel(z, m); err != nil {
		return Result{}, err
	}
	if p.Sc <= 0 {
		return Result{}, fmt.Errorf("%w: critical slope %g", ErrBadParameter, p.Sc)
	}
	u := newUnknowns(z, m)
	if len(u.nodes) == 0 {
		return Result{Converged: true}, nil
	}

	dx2 := z.DataResolution * z.DataResolution
	front := p.Dt * p.D / dx2
	invTerm := 1 / (dx2 * p.Sc * p.Sc)

	old := z.Copy()
	var out Result
	for out.Iterations < n.MaxIter {
		last := z.Copy()
		b := linsolve.NewBuilder(len(u.nodes))
		rhs := make([]float64, len(u.nodes))
		clamped := 0
		for k, node := range u.nodes {
			row, col := node/z.NCols, node%z.NCols
			diag := 1.0
			rhs[k] = old.Data[node]
			for _, d := range axisOffsets {
				rr, cc, ok := m.Neighbour(row, col, d[0], d[1])
				if !ok || z.IsNoData(rr, cc) {
					continue
				}
				nb := z.Index(rr, cc)
				c, wasClamped := conductance(front, invTerm, last.Data[node]-last.Data[nb], n.MinDenominator)
				if wasClamped {
					clamped++
				}
				diag += c
				if j := u.index[nb]; j >= 0 {
					b.Add(k, j, -c)
				} else {
					rhs[k] += c * old.Data[nb]
				}
			}
			b.Add(k, k, diag)
		}

		var debug io.Writer
		if out.Iterations == 0 {
			debug = n.Debug
		}
		res, err := solve(z, u, b, rhs, n.Solve, debug)
		if err != nil {
			return out, fmt.Errorf("hillslope: nonlinear solve: %w", err)
		}
		out.Iterations++
		out.Clamped += clamped
		out.LinearIterations += res.Iterations
		if !res.Converged {
			out.LinearFailures++
		}

		out.Residual = z.MaxAbsDiff(last)
		if out.Residual <= n.Epsilon {
			out.Converged = true
			break
		}
	}
	return out, nil
}
