package fluvial

import (
	"fmt"
	"math"

	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/flow"
)

const (
	DefaultTolerance = 0.001
	DefaultMaxNewton = 100
)

// Solver is implicit stream-power incision E = K A^m S^n, integrated along
// the flow stack so that every receiver is updated before its donors.
type Solver struct {
	K, M, N   float64
	Tolerance float64
	MaxNewton int
}

func NewSolver(k, m, n float64) *Solver {
	return &Solver{K: k, M: m, N: n, Tolerance: DefaultTolerance, MaxNewton: DefaultMaxNewton}
}

// Result counts the nodes touched by one incision step.
type Result struct {
	Visited      int
	NonConverged int
}

func (s *Solver) linear() bool {
	return math.Abs(s.N-1) < 0.0001
}

// Incise lowers z in place over dt.
func (s *Solver) Incise(z *core.Raster, info *flow.Info, dt float64) (Result, error) {
	if z.NRows != info.NRows || z.NCols != info.NCols {
		return Result{}, fmt.Errorf("%w: flow %dx%d, raster %dx%d", core.ErrDimensionMismatch,
			info.NRows, info.NCols, z.NRows, z.NCols)
	}
	var res Result
	for _, node := range info.Stack {
		dx := info.FlowLength(node)
		if dx == 0 {
			continue
		}
		res.Visited++
		next, ok := s.solveNode(z.Data[node], z.Data[info.Receiver[node]], info.DrainageArea(node), dx, dt)
		if !ok {
			res.NonConverged++
		}
		z.Data[node] = next
	}
	return res, nil
}

// solveNode returns the new elevation of a node whose receiver already sits
// at zr. ok is false when the Newton iteration ran out of steps.
func (s *Solver) solveNode(z, zr, area, dx, dt float64) (float64, bool) {
	if s.linear() {
		f := s.K * math.Pow(area, s.M) * dt / dx
		return (z + zr*f) / (1 + f), true
	}

	if z <= zr {
		return z, true
	}
	f := s.K * math.Pow(area, s.M) * dt
	old, next := z, z
	for i := 0; i < s.MaxNewton; i++ {
		slope := (next - zr) / dx
		if slope <= 0 {
			return zr, true
		}
		eps := (next - old + f*math.Pow(slope, s.N)) /
			(1 + f*(s.N/dx)*math.Pow(slope, s.N-1))
		next -= eps
		if math.Abs(eps) < s.Tolerance {
			return next, true
		}
	}
	return next, false
}

// ErosionRate returns the incision rate each node would see over dt,
// positive where the surface is lowered. z is not modified; receivers are
// taken at their current elevation.
func (s *Solver) ErosionRate(z *core.Raster, info *flow.Info, dt float64) (*core.Raster, error) {
	if z.NRows != info.NRows || z.NCols != info.NCols {
		return nil, fmt.Errorf("%w: flow %dx%d, raster %dx%d", core.ErrDimensionMismatch,
			info.NRows, info.NCols, z.NRows, z.NCols)
	}
	rate := core.NewRasterLike(z)
	for node := range rate.Data {
		if z.Data[node] == z.NoDataValue {
			rate.Data[node] = z.NoDataValue
			continue
		}
		dx := info.FlowLength(node)
		if dx == 0 {
			continue
		}
		next, _ := s.solveNode(z.Data[node], z.Data[info.Receiver[node]], info.DrainageArea(node), dx, dt)
		rate.Data[node] = (z.Data[node] - next) / dt
	}
	return rate, nil
}
