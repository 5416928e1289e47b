package fluvial

import (
	"math"
	"testing"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// column is a single column ramp draining north to base level.
func column(n int) (*core.Raster, boundary.Model) {
	z := core.NewRaster(n, 1, 1)
	for row := 0; row < n; row++ {
		z.Set(row, 0, float64(row))
	}
	return z, boundary.NewModel(boundary.MustParse("bnnn"), n, 1)
}

func TestInciseLinearMonotone(t *testing.T) {
	z, m := column(5)
	before := z.Copy()
	info := flow.Route(z, m)

	res, err := NewSolver(1e-3, 0.5, 1).Incise(z, info, 100)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Visited)
	assert.Zero(t, res.NonConverged)

	// F = 1e-3 * sqrt(4) * 100 / 1
	assert.InDelta(t, 1/1.2, z.At(1, 0), 1e-12)
	assert.Equal(t, 0.0, z.At(0, 0))
	for row := 1; row < 5; row++ {
		assert.LessOrEqual(t, z.At(row, 0), before.At(row, 0))
		assert.GreaterOrEqual(t, z.At(row, 0), z.At(row-1, 0))
	}
}

func TestInciseZeroErodibility(t *testing.T) {
	z, m := column(4)
	before := z.Copy()
	_, err := NewSolver(0, 0.5, 1).Incise(z, flow.Route(z, m), 100)
	require.NoError(t, err)
	assert.Equal(t, before.Data, z.Data)
}

func TestInciseSkipsNodesWithoutReceiver(t *testing.T) {
	z := core.Filled(core.NewRaster(4, 4, 1), 3)
	m := boundary.NewModel(boundary.MustParse("nnnn"), 4, 4)
	res, err := NewSolver(1e-3, 0.5, 1).Incise(z, flow.Route(z, m), 100)
	require.NoError(t, err)
	assert.Zero(t, res.Visited)
	for _, v := range z.Data {
		assert.Equal(t, 3.0, v)
	}
}

func TestInciseNewton(t *testing.T) {
	z, m := column(5)
	old := z.Copy()
	info := flow.Route(z, m)
	s := NewSolver(1e-3, 0.5, 2)

	res, err := s.Incise(z, info, 100)
	require.NoError(t, err)
	assert.Zero(t, res.NonConverged)

	for row := 1; row < 5; row++ {
		node := z.Index(row, 0)
		f := s.K * math.Pow(info.DrainageArea(node), s.M) * 100
		slope := z.At(row, 0) - z.At(row-1, 0)
		require.Greater(t, slope, 0.0)
		residual := z.At(row, 0) - old.At(row, 0) + f*math.Pow(slope, s.N)
		assert.InDelta(t, 0, residual, 1e-4, "row %d", row)
		assert.Less(t, z.At(row, 0), old.At(row, 0))
	}
}

func TestInciseNewtonExhaustion(t *testing.T) {
	z, m := column(4)
	s := NewSolver(1e-2, 0.5, 2)
	s.MaxNewton = 1
	s.Tolerance = 1e-15
	res, err := s.Incise(z, flow.Route(z, m), 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NonConverged)
	for _, v := range z.Data {
		assert.False(t, math.IsNaN(v))
	}
}

func TestErosionRateDoesNotMutate(t *testing.T) {
	z, m := column(5)
	before := z.Copy()
	rate, err := NewSolver(1e-3, 0.5, 1).ErosionRate(z, flow.Route(z, m), 100)
	require.NoError(t, err)

	assert.Equal(t, before.Data, z.Data)
	assert.Equal(t, 0.0, rate.At(0, 0))
	assert.InDelta(t, (1-1/1.2)/100, rate.At(1, 0), 1e-12)
	for row := 1; row < 5; row++ {
		assert.Greater(t, rate.At(row, 0), 0.0)
	}
}

func TestInciseDimensionMismatch(t *testing.T) {
	z, m := column(4)
	info := flow.Route(z, m)
	_, err := NewSolver(1e-3, 0.5, 1).Incise(core.NewRaster(3, 1, 1), info, 100)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
