package erosion

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ob6160/Landscape/clock"
	"github.com/ob6160/Landscape/config"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/generators"
)

var quiet = log.New(io.Discard, "", 0)

func newTestEroder(t *testing.T, mutate func(p *config.Params)) (*Eroder, string) {
	t.Helper()
	return newTestEroderOn(t, mutate, nil)
}

// newTestEroderOn lets shape edit the initial surface, which starts flat at 0.
func newTestEroderOn(t *testing.T, mutate func(p *config.Params), shape func(z *core.Raster)) (*Eroder, string) {
	t.Helper()
	p := config.Defaults()
	p.Name = "test"
	p.NRows, p.NCols = 8, 6
	p.EndTime = 1000
	p.Reporting = false
	p.PrintInterval = 0
	p.Quiet = true
	if mutate != nil {
		mutate(&p)
	}
	require.NoError(t, p.Validate())

	m, err := p.Boundary()
	require.NoError(t, err)
	clk, err := NewClock(p, quiet)
	require.NoError(t, err)

	dir := t.TempDir()
	surface := core.NewRaster(p.NRows, p.NCols, p.Resolution)
	if shape != nil {
		shape(surface)
	}
	gen := generators.NewLoaded(surface)
	e := NewEroder(gen, m, clk, NewState(p), WithOutput(dir), WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, e.Initialise())
	t.Cleanup(func() { e.Close() })
	return e, dir
}

func TestZeroForcingLeavesSurfaceUnchanged(t *testing.T) {
	e, _ := newTestEroder(t, func(p *config.Params) { p.MaxUplift = 0 })
	require.NoError(t, e.Run(context.Background()))

	for _, v := range e.Terrain().Elevation().Data {
		assert.Equal(t, 0.0, v)
	}
	assert.Equal(t, 10, e.Summary().Steps)
	assert.Equal(t, 1000.0, e.Summary().FinalTime)
	assert.True(t, e.Clock.InitialSteadyState)
}

func TestRunUpliftsAndWritesReports(t *testing.T) {
	e, dir := newTestEroder(t, func(p *config.Params) {
		p.Reporting = true
		p.PrintInterval = 5
		p.PrintHillshade = true
		p.PrintErosion = true
	})
	require.NoError(t, e.Run(context.Background()))
	require.NoError(t, e.Close())

	z := e.Terrain().Elevation()
	assert.Greater(t, z.MaxElevation(), 0.0)
	for col := 0; col < z.NCols; col++ {
		assert.Equal(t, 0.0, z.At(0, col))
		assert.Equal(t, 0.0, z.At(z.NRows-1, col))
	}

	for _, name := range []string{"test_report", "test1.asc", "test2.asc", "test1_hillshade.asc",
		"test2_erosion.asc", ".test_frame_metadata", "test_final"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	// the last frame was printed on schedule
	_, err := os.Stat(filepath.Join(dir, "test3.asc"))
	assert.True(t, os.IsNotExist(err))
}

func TestFinalFrameWhenOffSchedule(t *testing.T) {
	e, dir := newTestEroder(t, func(p *config.Params) { p.PrintInterval = 3 })
	require.NoError(t, e.Run(context.Background()))
	for _, name := range []string{"test1.asc", "test3.asc", "test4.asc"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSolverVariants(t *testing.T) {
	cases := map[string]func(p *config.Params){
		"linear":    func(p *config.Params) {},
		"nonlinear": func(p *config.Params) { p.Nonlinear = true },
		"full grid": func(p *config.Params) { p.FullGrid = true },
		"adaptive":  func(p *config.Params) { p.Nonlinear = true; p.AdaptiveTimestep = true },
		"airy":      func(p *config.Params) { p.Isostasy = true },
		"flexure":   func(p *config.Params) { p.Isostasy = true; p.Flexure = true },
		"nonlinear n": func(p *config.Params) {
			p.N = 2
			p.K = 0.001
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestEroder(t, mutate)
			for i := 0; i < 3; i++ {
				res, err := e.SimulationStep()
				require.NoError(t, err)
				assert.False(t, res.Hung)
			}
			assert.Equal(t, 3, e.Summary().Steps)
			assert.Equal(t, 300.0, e.Clock.Time)
			assert.Greater(t, e.Terrain().Elevation().MaxElevation(), 0.0)
		})
	}
}

func TestIsostasyLowersSurface(t *testing.T) {
	plain, _ := newTestEroder(t, nil)
	airy, _ := newTestEroder(t, func(p *config.Params) { p.Isostasy = true })
	for i := 0; i < 5; i++ {
		_, err := plain.SimulationStep()
		require.NoError(t, err)
		_, err = airy.SimulationStep()
		require.NoError(t, err)
	}
	assert.Less(t, airy.Terrain().Elevation().MaxElevation(), plain.Terrain().Elevation().MaxElevation())
	assert.Greater(t, airy.Terrain().Root().MaxElevation(), 0.0)
}

func TestWashOut(t *testing.T) {
	e, _ := newTestEroder(t, func(p *config.Params) { p.ThresholdDrainage = 0 })
	ter := e.Terrain()
	ter.Snapshot()
	ter.Elevation().Set(3, 3, 5)
	n := e.WashOut()
	assert.Equal(t, 8*6, n)
	assert.Equal(t, 0.0, ter.Elevation().At(3, 3))

	off, _ := newTestEroder(t, nil)
	assert.Equal(t, 0, off.WashOut())
}

func TestToggleAndUpdate(t *testing.T) {
	e, _ := newTestEroder(t, nil)
	assert.False(t, e.IsRunning())
	_, err := e.Update()
	require.NoError(t, err)
	assert.Equal(t, 0, e.Summary().Steps)

	e.Toggle()
	assert.True(t, e.IsRunning())
	_, err = e.Update()
	require.NoError(t, err)
	assert.Equal(t, 1, e.Summary().Steps)

	e.Reset()
	assert.Equal(t, 0, e.Summary().Steps)
	assert.Equal(t, 0.0, e.Terrain().Elevation().MaxElevation())
}

func TestCancelledRun(t *testing.T) {
	e, _ := newTestEroder(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(e.Run(ctx), context.Canceled))
}

func TestSteadyStateWorkflow(t *testing.T) {
	e, dir := newTestEroder(t, func(p *config.Params) {
		p.Periodicity = 1000
		p.KMode = 1
		p.KAmplitude = 0.2
	})
	assert.True(t, errors.Is(e.RunFromSteadyState(context.Background()), ErrNoSteadyState))

	require.NoError(t, e.ReachSteadyState(context.Background()))
	require.NotNil(t, e.SteadyState())
	assert.False(t, e.Summary().Hung)

	// the run settings are restored
	assert.Equal(t, 1000.0, e.Clock.EndTime)
	assert.Equal(t, clock.EndAbsolute, e.Clock.EndMode)
	assert.Equal(t, clock.Sine, e.Clock.K.Mode)
	assert.False(t, e.Clock.K.EarlyStart)
	assert.False(t, e.Clock.CycleSteadyCheck)

	require.NoError(t, e.RunFromSteadyState(context.Background()))
	assert.True(t, e.Clock.InitialSteadyState)
	_, err := os.Stat(filepath.Join(dir, "test_final"))
	assert.NoError(t, err)
}

func TestMissingStreamFallsBack(t *testing.T) {
	p := config.Defaults()
	p.DMode = 3
	p.DFile = filepath.Join(t.TempDir(), "missing")
	clk, err := NewClock(p, quiet)
	require.NoError(t, err)
	assert.Equal(t, clock.Constant, clk.D.Mode)
	assert.Equal(t, p.D, clk.D.Base)
}

func TestNoDataCellsSurviveEveryComponent(t *testing.T) {
	cases := map[string]func(p *config.Params){
		"linear":          func(p *config.Params) {},
		"nonlinear":       func(p *config.Params) { p.Nonlinear = true },
		"full grid":       func(p *config.Params) { p.FullGrid = true },
		"full grid alone": func(p *config.Params) { p.FullGrid = true; p.Fluvial = false },
		"fluvial":         func(p *config.Params) { p.Hillslope = false },
		"airy":            func(p *config.Params) { p.Isostasy = true },
		"flexure":         func(p *config.Params) { p.Isostasy = true; p.Flexure = true },
		"relaxed flexure": func(p *config.Params) { p.Isostasy = true; p.Flexure = true; p.FlexureAlpha = 0.5 },
	}
	hole := func(z *core.Raster) { z.Set(3, 2, z.NoDataValue) }
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestEroderOn(t, mutate, hole)
			assert.Equal(t, 0.0, e.Terrain().Uplift.At(3, 2))
			for i := 0; i < 3; i++ {
				_, err := e.SimulationStep()
				require.NoError(t, err)
			}
			z := e.Terrain().Elevation()
			assert.True(t, z.IsNoData(3, 2))
			for i, v := range z.Data {
				if i == z.Index(3, 2) {
					continue
				}
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "cell %d", i)
				assert.Greater(t, v, -1.0, "cell %d pulled towards no-data", i)
				assert.Less(t, v, 1.0, "cell %d", i)
			}
		})
	}
}

func TestRelaxedFlexureCountsNonConvergence(t *testing.T) {
	e, _ := newTestEroder(t, func(p *config.Params) {
		p.Isostasy = true
		p.Flexure = true
		p.FlexureAlpha = 0.5
	})
	e.flexure.Tolerance = -1
	e.flexure.MaxIter = 3

	res, err := e.SimulationStep()
	require.NoError(t, err)
	assert.Equal(t, 3, res.Isostasy.Iterations)
	assert.False(t, res.Isostasy.Converged)
	assert.Equal(t, 1, e.Summary().IsostasyNonConvergent)
	assert.Equal(t, 1, e.Summary().NonConvergentSteps)
}

func TestAltFlexureIsSingleUpdate(t *testing.T) {
	e, _ := newTestEroder(t, func(p *config.Params) { p.Isostasy = true; p.Flexure = true })
	res, err := e.SimulationStep()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Isostasy.Iterations)
	assert.True(t, res.Isostasy.Converged)
	assert.Equal(t, 0, e.Summary().IsostasyNonConvergent)
}

func TestMalformedStreamStopsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k_series")
	require.NoError(t, os.WriteFile(path, []byte("0 0.001\n100 bogus\n"), 0o644))
	e, _ := newTestEroder(t, func(p *config.Params) {
		p.KMode = 3
		p.KFile = path
	})
	require.Equal(t, clock.Streamed, e.Clock.K.Mode)
	e.Clock.InitialSteadyState = true

	_, err := e.SimulationStep()
	assert.ErrorIs(t, err, clock.ErrMalformedStream)

	require.NoError(t, e.Close())
	assert.NoError(t, e.Clock.K.Stream.Close())
}

func TestFullGridSouthGhostAtBaseLevel(t *testing.T) {
	e, _ := newTestEroderOn(t, func(p *config.Params) {
		p.FullGrid = true
		p.Fluvial = false
		p.MaxUplift = 0
	}, func(z *core.Raster) {
		for i := range z.Data {
			z.Data[i] = 0.01
		}
	})
	_, err := e.SimulationStep()
	require.NoError(t, err)

	z := e.Terrain().Elevation()
	for col := 0; col < z.NCols; col++ {
		assert.Less(t, z.At(z.NRows-1, col), z.At(0, col))
		assert.Less(t, z.At(z.NRows-1, col), 0.01)
	}
}

func TestDrainageFrames(t *testing.T) {
	e, dir := newTestEroder(t, func(p *config.Params) {
		p.PrintInterval = 5
		p.PrintDrainage = true
	})
	require.NoError(t, e.Run(context.Background()))
	_, err := os.Stat(filepath.Join(dir, "test1_drainage.asc"))
	assert.NoError(t, err)
}
