package hillslope

import (
	"bytes"
	"math"
	"testing"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spike(n int, height float64) *core.Raster {
	z := core.NewRaster(n, n, 1)
	z.Set(n/2, n/2, height)
	return z
}

func TestSpikeSmoothing(t *testing.T) {
	solvers := map[string]Solver{
		"linear":    NewLinear(),
		"nonlinear": NewNonlinear(),
	}
	for name, s := range solvers {
		t.Run(name, func(t *testing.T) {
			z := spike(5, 1)
			m := boundary.NewModel(boundary.MustParse("bbbb"), 5, 5)
			res, err := s.Step(z, m, Params{D: 0.02, Sc: 10, Dt: 10})
			require.NoError(t, err)
			assert.True(t, res.Converged)

			assert.Less(t, z.At(2, 2), 1.0)
			for _, d := range axisOffsets {
				assert.Greater(t, z.At(2+d[0], 2+d[1]), 0.0)
			}
			for col := 0; col < 5; col++ {
				assert.Equal(t, 0.0, z.At(0, col))
				assert.Equal(t, 0.0, z.At(4, col))
			}
		})
	}
}

func TestLinearNoFluxConservesVolume(t *testing.T) {
	z := spike(6, 3)
	z.Set(1, 4, 2)
	before := 0.0
	for _, v := range z.Data {
		before += v
	}
	m := boundary.NewModel(boundary.MustParse("nnnn"), 6, 6)
	_, err := NewLinear().Step(z, m, Params{D: 0.05, Dt: 50})
	require.NoError(t, err)

	after := 0.0
	for _, v := range z.Data {
		after += v
	}
	assert.InDelta(t, before, after, 1e-6)
}

func TestFlatSurfaceUnchanged(t *testing.T) {
	m := boundary.NewModel(boundary.MustParse("bpbp"), 4, 6)
	for name, s := range map[string]Solver{"linear": NewLinear(), "nonlinear": NewNonlinear()} {
		t.Run(name, func(t *testing.T) {
			z := core.NewRaster(4, 6, 10)
			_, err := s.Step(z, m, Params{D: 0.02, Sc: 0.6, Dt: 100})
			require.NoError(t, err)
			for _, v := range z.Data {
				assert.InDelta(t, 0, v, 1e-12)
			}
		})
	}
}

func TestNonlinearClampsNearCriticalSlope(t *testing.T) {
	z := spike(5, 1)
	m := boundary.NewModel(boundary.MustParse("bbbb"), 5, 5)
	res, err := NewNonlinear().Step(z, m, Params{D: 0.02, Sc: 0.5, Dt: 10})
	require.NoError(t, err)

	assert.Greater(t, res.Clamped, 0)
	for _, v := range z.Data {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.Less(t, z.At(2, 2), 1.0)
}

func TestNonlinearRejectsNonPositiveSc(t *testing.T) {
	z := spike(3, 1)
	m := boundary.NewModel(boundary.MustParse("bbbb"), 3, 3)
	_, err := NewNonlinear().Step(z, m, Params{D: 0.02, Sc: 0, Dt: 10})
	assert.ErrorIs(t, err, ErrBadParameter)
}

func TestStepDimensionMismatch(t *testing.T) {
	z := spike(3, 1)
	m := boundary.NewModel(boundary.MustParse("bbbb"), 4, 3)
	_, err := NewLinear().Step(z, m, Params{D: 0.02, Dt: 10})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestLinearDebugDump(t *testing.T) {
	var buf bytes.Buffer
	l := NewLinear()
	l.Debug = &buf
	z := spike(3, 1)
	m := boundary.NewModel(boundary.MustParse("bbbb"), 3, 3)
	_, err := l.Step(z, m, Params{D: 0.02, Dt: 10})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Matrix")
}

func TestFullGridUnsupportedBoundary(t *testing.T) {
	z := core.NewRaster(4, 4, 1)
	m := boundary.NewModel(boundary.MustParse("bbbb"), 4, 4)
	f := NewFullGrid(4, 4, 1, DefaultFullGridOptions())
	_, err := f.Step(z, z.Copy(), core.NewRasterLike(z), core.NewRasterLike(z), m, Params{D: 0.02, Sc: 0.6, Dt: 10}, 0, 0)
	assert.ErrorIs(t, err, boundary.ErrUnsupportedBoundary)
}

func TestFullGridFlatSurface(t *testing.T) {
	z := core.Filled(core.NewRaster(5, 4, 1), 5)
	m := boundary.NewModel(boundary.MustParse("bpbp"), 5, 4)
	f := NewFullGrid(5, 4, 1, DefaultFullGridOptions())
	res, err := f.Step(z, z.Copy(), core.NewRasterLike(z), core.NewRasterLike(z), m, Params{D: 0.02, Sc: 0.6, Dt: 10}, 5, 5)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	for _, v := range z.Data {
		assert.InDelta(t, 5, v, 1e-6)
	}
}

func TestFullGridUpliftRaisesInterior(t *testing.T) {
	z := core.NewRaster(6, 4, 1)
	m := boundary.NewModel(boundary.MustParse("bpbp"), 6, 4)
	uplift := core.Filled(core.NewRasterLike(z), 0.001)
	f := NewFullGrid(6, 4, 1, DefaultFullGridOptions())
	_, err := f.Step(z, z.Copy(), uplift, core.NewRasterLike(z), m, Params{D: 0.02, Sc: 0.6, Dt: 10}, 0, 0)
	require.NoError(t, err)

	mid := z.At(2, 1)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 0.01+1e-9)
	assert.Greater(t, mid, z.At(0, 1))
	for row := 0; row < 6; row++ {
		assert.InDelta(t, z.At(row, 0), z.At(row, 3), 1e-9, "periodic columns diverged")
	}
}

func TestFullGridLeavesNoDataAlone(t *testing.T) {
	z := core.Filled(core.NewRaster(6, 4, 1), 5)
	z.Set(3, 1, z.NoDataValue)
	m := boundary.NewModel(boundary.MustParse("bpbp"), 6, 4)
	uplift := core.NewRasterLike(z)
	f := NewFullGrid(6, 4, 1, DefaultFullGridOptions())
	res, err := f.Step(z, z.Copy(), uplift, core.NewRasterLike(z), m, Params{D: 0.02, Sc: 0.6, Dt: 10}, 5, 5)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Clamped)

	assert.Equal(t, z.NoDataValue, z.At(3, 1))
	for i, v := range z.Data {
		if i == z.Index(3, 1) {
			continue
		}
		assert.InDelta(t, 5, v, 1e-6, "cell %d", i)
	}
}

func TestSolversLeaveNoDataAlone(t *testing.T) {
	solvers := map[string]Solver{
		"linear":    NewLinear(),
		"nonlinear": NewNonlinear(),
	}
	for name, s := range solvers {
		t.Run(name, func(t *testing.T) {
			z := spike(5, 1)
			z.Set(2, 1, z.NoDataValue)
			m := boundary.NewModel(boundary.MustParse("bbbb"), 5, 5)
			_, err := s.Step(z, m, Params{D: 0.02, Sc: 10, Dt: 10})
			require.NoError(t, err)
			assert.Equal(t, z.NoDataValue, z.At(2, 1))
			assert.Greater(t, z.At(2, 2), 0.0)
			assert.Greater(t, z.At(1, 1), -1e-9)
		})
	}
}

func TestSolversShareSolveOptions(t *testing.T) {
	assert.Equal(t, DefaultSolveOptions(), NewLinear().Solve)
	assert.Equal(t, DefaultSolveOptions(), NewNonlinear().Solve)
	assert.Equal(t, 1e-10, DefaultSolveOptions().Tolerance)
	assert.Equal(t, 500, DefaultSolveOptions().MaxIterations)
}

func TestFullGridRelaxationCap(t *testing.T) {
	opts := DefaultFullGridOptions()
	opts.Tolerance = -1
	opts.MaxIter = 2
	opts.MaxRelaxations = 1
	z := core.NewRaster(3, 3, 1)
	m := boundary.NewModel(boundary.MustParse("bpbp"), 3, 3)
	res, err := NewFullGrid(3, 3, 1, opts).Step(z, z.Copy(), core.NewRasterLike(z), core.NewRasterLike(z), m, Params{D: 0.02, Sc: 0.6, Dt: 10}, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 1, res.Relaxations)
	assert.Equal(t, 6, res.Iterations)
}

func TestFixedPolicy(t *testing.T) {
	z := core.NewRaster(1, 1, 1)
	calls := 0
	res, err := Fixed{}.Integrate(z, 100, func(h float64) (Result, error) {
		calls++
		assert.Equal(t, 100.0, h)
		return Result{Iterations: 3, Converged: true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.SubSteps)
}

func TestAdaptivePolicyCoversStep(t *testing.T) {
	t.Run("shrinks and restores", func(t *testing.T) {
		z := core.NewRaster(1, 1, 1)
		a := NewAdaptive()
		res, err := a.Integrate(z, 100, func(h float64) (Result, error) {
			z.Data[0] += h
			if h > 25 {
				return Result{Iterations: 10}, nil
			}
			return Result{Iterations: 2, Converged: true}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 10, res.SubSteps)
		assert.True(t, res.Converged)
		assert.Equal(t, 100.0, z.Data[0])
	})

	t.Run("grows after easy steps", func(t *testing.T) {
		z := core.NewRaster(1, 1, 1)
		a := NewAdaptive()
		a.h = 10
		var hs []float64
		res, err := a.Integrate(z, 100, func(h float64) (Result, error) {
			hs = append(hs, h)
			return Result{Iterations: 1, Converged: true}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 40, 30}, hs)
		assert.Equal(t, 4, res.SubSteps)
	})
}
