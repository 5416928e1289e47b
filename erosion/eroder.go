package erosion

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/clock"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/flow"
	"github.com/ob6160/Landscape/fluvial"
	"github.com/ob6160/Landscape/generators"
	"github.com/ob6160/Landscape/hillslope"
	"github.com/ob6160/Landscape/isostasy"
	"github.com/ob6160/Landscape/report"
	"github.com/ob6160/Landscape/terrain"
)

const fillSlope = 1e-5

// StepResult describes one timestep.
type StepResult struct {
	Hung      bool
	Hillslope hillslope.Result
	Fluvial   fluvial.Result
	Isostasy  isostasy.Result
	WashedOut int
	Erosion   float64
}

func (r StepResult) converged() bool {
	return (r.Hillslope.SubSteps == 0 || r.Hillslope.Converged) && r.Fluvial.NonConverged == 0 &&
		(r.Isostasy.Iterations == 0 || r.Isostasy.Converged)
}

// Summary accumulates over the life of an eroder.
type Summary struct {
	Steps                  int
	NonConvergentSteps     int
	HillslopeNonConvergent int
	FluvialNonConvergent   int
	IsostasyNonConvergent  int
	Clamped                int
	Hung                   bool
	FinalTime              float64
}

type Option func(*Eroder)

func WithLogger(l *log.Logger) Option {
	return func(e *Eroder) { e.logger = l }
}

// WithOutput sets the directory reports and frames are written to.
func WithOutput(dir string) Option {
	return func(e *Eroder) { e.outDir = dir }
}

func WithRand(r *rand.Rand) Option {
	return func(e *Eroder) { e.rng = r }
}

// WithDebug dumps the first linear system of each diffusion solve to w.
func WithDebug(w io.Writer) Option {
	return func(e *Eroder) { e.debug = w }
}

// Eroder evolves a landscape through uplift, hillslope creep, fluvial
// incision and isostasy.
type Eroder struct {
	Clock   *clock.Clock
	state   *State
	terrain *terrain.Terrain
	model   boundary.Model
	running bool

	linear    *hillslope.Linear
	nonlinear *hillslope.Nonlinear
	fullGrid  *hillslope.FullGrid
	policy    hillslope.TimestepPolicy
	fluvial   *fluvial.Solver
	flexure   *isostasy.Flexure

	erosion     *report.Erosion
	cycles      *report.CycleAccumulator
	steps       *report.StepReport
	cycleReport *report.CycleReport
	frames      *report.Frames
	runID       uuid.UUID

	logger *log.Logger
	rng    *rand.Rand
	outDir string
	debug  io.Writer

	frame, print int
	steadyData   *core.Raster
	summary      Summary
}

func NewEroder(heightmap generators.TerrainGenerator, m boundary.Model, clk *clock.Clock, state *State, opts ...Option) *Eroder {
	e := &Eroder{
		Clock:  clk,
		state:  state,
		model:  m,
		logger: log.New(os.Stderr, "lem: ", log.LstdFlags),
		outDir: ".",
		runID:  uuid.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(1))
	}
	if state.Quiet {
		e.logger = log.New(io.Discard, "", 0)
	}
	e.terrain = terrain.FromGenerator(heightmap, m)
	e.erosion = report.NewErosion()
	e.cycles = report.NewCycleAccumulator(state.PrintErosionCycle)
	e.Reset()
	return e
}

// Initialise builds the solvers and the uplift field and prepares the
// output directory.
func (e *Eroder) Initialise() error {
	e.running = false
	s := e.state
	z := e.terrain.Elevation()
	if z.NRows != e.model.NRows || z.NCols != e.model.NCols {
		return fmt.Errorf("%w: surface %dx%d, boundary model %dx%d", core.ErrDimensionMismatch,
			z.NRows, z.NCols, e.model.NRows, e.model.NCols)
	}
	for _, w := range e.model.Validate() {
		e.logger.Print(w)
	}
	if s.FullGrid {
		if err := e.model.RequireNSBaseEWPeriodic(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return err
	}

	e.linear = hillslope.NewLinear()
	e.linear.Debug = e.debug
	e.nonlinear = hillslope.NewNonlinear()
	e.nonlinear.Debug = e.debug
	opts := hillslope.DefaultFullGridOptions()
	opts.Debug = e.debug
	e.fullGrid = hillslope.NewFullGrid(z.NRows, z.NCols, z.DataResolution, opts)
	e.policy = hillslope.Fixed{}
	if s.AdaptiveTimestep {
		e.policy = hillslope.NewAdaptive()
	}
	e.fluvial = fluvial.NewSolver(e.Clock.K.Base, s.M, s.N)
	e.flexure = isostasy.NewFlexure(s.Rigidity)
	e.terrain.Uplift = terrain.UpliftField(s.UpliftMode, s.MaxUplift, z, e.model)

	e.frames = report.NewFrames(e.outDir, s.Name, e.runID)
	e.frames.Elevation = s.PrintElevation
	e.frames.Hillshade = s.PrintHillshade
	e.frames.Erosion = s.PrintErosion
	e.frames.SlopeArea = s.PrintSlopeArea
	e.frames.Drainage = s.PrintDrainage

	e.logger.Printf("run %s (%s): %dx%d cells of %gm, boundary %s, dt %g, end %g (mode %d)",
		s.Name, e.runID, z.NRows, z.NCols, z.DataResolution, e.model.Conditions,
		e.Clock.TimeStep, e.Clock.EndTime, e.Clock.EndMode)
	e.logger.Printf("fluvial %t (K %g %s, m %g, n %g), hillslope %t (D %g %s, nonlinear %t, full grid %t), isostasy %t (flexure %t)",
		s.Fluvial, e.Clock.K.Base, e.Clock.K.Mode, s.M, s.N,
		s.Hillslope, e.Clock.D.Base, e.Clock.D.Mode, s.Nonlinear, s.FullGrid,
		s.Isostasy, s.Flexure)
	if s.Isostasy && s.Flexure && s.FlexureAlpha > 0 {
		e.logger.Printf("flexure relaxed with alpha %g", s.FlexureAlpha)
	}
	return nil
}

// Reset returns the surface to the generated one.
func (e *Eroder) Reset() {
	e.terrain.Reset()
	e.summary = Summary{}
}

func (e *Eroder) Toggle() {
	e.running = !e.running
}

func (e *Eroder) IsRunning() bool {
	return e.running
}

// Update advances one step while running.
func (e *Eroder) Update() (StepResult, error) {
	if !e.running {
		return StepResult{}, nil
	}
	return e.SimulationStep()
}

func (e *Eroder) Terrain() *terrain.Terrain {
	return e.terrain
}

func (e *Eroder) RunID() uuid.UUID {
	return e.runID
}

func (e *Eroder) Summary() Summary {
	s := e.summary
	s.FinalTime = e.Clock.Time
	return s
}

func (e *Eroder) path(suffix string) string {
	return filepath.Join(e.outDir, e.state.Name+suffix)
}

// SimulationStep advances the model by one timestep.
func (e *Eroder) SimulationStep() (StepResult, error) {
	var res StepResult
	clk := e.Clock
	s := e.state
	dt := clk.TimeStep

	if clk.CheckHung() {
		e.logger.Printf("no steady state by t=%g, assuming the run is stuck", clk.Time)
		e.summary.Hung = true
		res.Hung = true
		return res, nil
	}
	if clk.CheckPeriodicitySwitch() {
		e.logger.Printf("t=%g: periodicity switched to %g", clk.Time, clk.Periodicity)
	}
	e.terrain.Snapshot()

	var err error
	coupled := s.Hillslope && s.FullGrid
	if s.Hillslope {
		if res.Hillslope, err = e.diffuse(dt); err != nil {
			return res, fmt.Errorf("hillslope at t=%g: %w", clk.Time, err)
		}
		if !res.Hillslope.Converged {
			e.summary.HillslopeNonConvergent++
			e.logger.Printf("t=%g: hillslope did not converge after %d iterations (residual %g, %d clamped)",
				clk.Time, res.Hillslope.Iterations, res.Hillslope.Residual, res.Hillslope.Clamped)
		}
		e.summary.Clamped += res.Hillslope.Clamped
	}
	res.WashedOut = e.WashOut()
	if s.Fluvial && !coupled {
		if res.Fluvial, err = e.incise(dt); err != nil {
			return res, fmt.Errorf("fluvial at t=%g: %w", clk.Time, err)
		}
		if res.Fluvial.NonConverged > 0 {
			e.summary.FluvialNonConvergent++
			e.logger.Printf("t=%g: fluvial Newton did not converge at %d nodes", clk.Time, res.Fluvial.NonConverged)
		}
	}
	if s.Isostasy {
		if res.Isostasy, err = e.compensate(); err != nil {
			return res, fmt.Errorf("isostasy at t=%g: %w", clk.Time, err)
		}
		if !res.Isostasy.Converged {
			e.summary.IsostasyNonConvergent++
			e.logger.Printf("t=%g: flexure did not relax after %d iterations (change %g)",
				clk.Time, res.Isostasy.Iterations, res.Isostasy.MaxChange)
		}
	}
	if !coupled {
		e.terrain.ApplyUplift(dt)
	}
	if res.Erosion, err = e.writeReport(); err != nil {
		return res, err
	}
	if err := streamErr(clk); err != nil {
		return res, fmt.Errorf("forcing at t=%g: %w", clk.Time, err)
	}

	clk.Advance()
	if s.PrintInterval > 0 && e.print%s.PrintInterval == 0 {
		if err := e.writeFrame(); err != nil {
			return res, err
		}
		e.frame++
	}
	e.print++
	if clk.CheckSteadyState(e.terrain.Elevation(), e.terrain.ZetaOld()) {
		e.logger.Printf("steady state reached at t=%g", clk.Time)
	}

	e.summary.Steps++
	if !res.converged() {
		e.summary.NonConvergentSteps++
	}
	return res, nil
}

func (e *Eroder) diffuse(dt float64) (hillslope.Result, error) {
	z := e.terrain.Elevation()
	p := hillslope.Params{D: e.Clock.DValue(), Sc: e.state.Sc}

	if e.state.FullGrid {
		rate := core.NewRasterLike(z)
		if e.state.Fluvial {
			e.fluvial.K = e.Clock.KValue()
			var err error
			if rate, err = e.fluvial.ErosionRate(z, flow.Route(z, e.model), dt); err != nil {
				return hillslope.Result{}, err
			}
		}
		// the southern ghost row sits at base level
		north := e.terrain.MaxBoundary(boundary.North)
		south := 0.0
		start := z.Copy()
		return e.policy.Integrate(z, dt, func(h float64) (hillslope.Result, error) {
			copy(start.Data, z.Data)
			p.Dt = h
			return e.fullGrid.Step(z, start, e.terrain.Uplift, rate, e.model, p, north, south)
		})
	}

	var solver hillslope.Solver = e.linear
	if e.state.Nonlinear {
		solver = e.nonlinear
	}
	return e.policy.Integrate(z, dt, func(h float64) (hillslope.Result, error) {
		p.Dt = h
		return solver.Step(z, e.model, p)
	})
}

func (e *Eroder) incise(dt float64) (fluvial.Result, error) {
	z := e.terrain.Elevation()
	e.fluvial.K = e.Clock.KValue()
	return e.fluvial.Incise(z, flow.Route(z, e.model), dt)
}

func (e *Eroder) compensate() (isostasy.Result, error) {
	z, root := e.terrain.Elevation(), e.terrain.Root()
	if e.state.Flexure {
		if alpha := e.state.FlexureAlpha; alpha > 0 {
			return e.flexure.Relaxed(z, root, e.model, alpha)
		}
		if err := e.flexure.Alt(z, root, e.model); err != nil {
			return isostasy.Result{}, err
		}
		return isostasy.Result{Iterations: 1, Converged: true}, nil
	}
	return isostasy.Result{Iterations: 1, Converged: true}, isostasy.Airy(z, root)
}

// WashOut resets cells whose drainage area at the start of the step exceeds
// the threshold, so creep cannot fill channels. It returns the number of
// cells reset.
func (e *Eroder) WashOut() int {
	s := e.state
	if s.ThresholdDrainage < 0 || !s.Hillslope || !s.Fluvial {
		return 0
	}
	zOld := e.terrain.ZetaOld()
	z := e.terrain.Elevation()
	info := flow.Route(zOld, e.model)
	n := 0
	for i := range z.Data {
		if info.DrainageArea(i) > s.ThresholdDrainage {
			z.Data[i] = zOld.Data[i]
			n++
		}
	}
	return n
}

func (e *Eroder) reporting() bool {
	return e.state.Reporting && e.Clock.Time > e.state.ReportDelay
}

// writeReport updates the erosion statistics and writes the step and cycle
// reports. It returns the mean erosion rate of the step.
func (e *Eroder) writeReport() (float64, error) {
	clk := e.Clock
	s := e.state
	dt := clk.TimeStep
	clk.CheckRecording()

	mean := e.terrain.MeanErosion(dt)
	e.erosion.Update(mean, clk.Recording)

	cycling := (clk.InitialSteadyState || clk.CycleSteadyCheck) && clk.Forcing()
	if !e.reporting() && !cycling {
		return mean, nil
	}

	z := e.terrain.Elevation()
	info := flow.Route(z, e.model)
	maxElev, meanElev := z.MaxElevation(), z.MeanElevation()
	relief3, relief10 := z.MeanRelief(0), z.MeanRelief(10)
	drain20, drain200 := info.DrainageDensity(20), info.DrainageDensity(200)

	if e.reporting() {
		if e.steps == nil {
			w, err := report.CreateStepReport(e.path("_report"), s.Name, e.runID, s.Fluvial, s.Hillslope)
			if err != nil {
				return mean, err
			}
			e.steps = w
		}
		err := e.steps.Write(report.Step{
			Time:         clk.Time,
			Periodicity:  clk.Periodicity,
			K:            clk.KValue(),
			D:            clk.DValue(),
			Erosion:      mean,
			TotalErosion: e.erosion.Total,
			Steady:       clk.SteadyState,
			MaxHeight:    maxElev,
			MeanHeight:   meanElev,
			Relief3px:    relief3,
			Relief10m:    relief10,
			Drainage20:   drain20,
			Drainage200:  drain200,
		})
		if err != nil {
			return mean, err
		}
	}

	if !cycling {
		return mean, nil
	}
	sample := report.Sample{
		Erosion:     mean,
		Elevation:   meanElev,
		Relief3px:   relief3,
		Relief10m:   relief10,
		Drainage20:  drain20,
		Drainage200: drain200,
	}
	if s.PrintErosionCycle {
		sample.Rates = e.terrain.ErosionRates(dt)
	}
	cycle := e.cycles.Add(clk, sample)
	if cycle == nil {
		return mean, nil
	}
	if e.reporting() {
		if e.cycleReport == nil {
			w, err := report.CreateCycleReport(e.path("_cycle_report"), s.Name, e.runID)
			if err != nil {
				return mean, err
			}
			e.cycleReport = w
		}
		if err := e.cycleReport.Write(cycle); err != nil {
			return mean, err
		}
	}
	if cycle.Field != nil {
		name := fmt.Sprintf("%s%d_cycle_erosion", s.Name, cycle.Number)
		if err := e.frames.WriteRaster(name, cycle.Field); err != nil {
			return mean, err
		}
	}
	return mean, nil
}

func (e *Eroder) writeFrame() error {
	s := e.state
	z := e.terrain.Elevation()
	fr := report.Frame{
		Number:    e.frame,
		Time:      e.Clock.Time,
		K:         e.Clock.KValue(),
		D:         e.Clock.DValue(),
		Erosion:   e.erosion.Current,
		MaxUplift: s.MaxUplift,
		Surface:   z,
	}
	if s.PrintErosion {
		fr.Rates = e.terrain.ErosionRates(e.Clock.TimeStep)
	}
	if s.PrintSlopeArea || s.PrintDrainage {
		fr.Flow = flow.Route(z, e.model)
	}
	return e.frames.Write(fr)
}

// RunComponents runs the model until the clock's end condition, then
// prints the last frame if it was not printed already.
func (e *Eroder) RunComponents(ctx context.Context) error {
	clk := e.Clock
	clk.ResetComponents()
	e.erosion.ResetRun()
	e.cycles.Restart()
	e.frame, e.print = 1, 1

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := e.SimulationStep()
		if err != nil {
			return err
		}
		if res.Hung || clk.CheckEndCondition() {
			break
		}
	}
	if n := e.state.PrintInterval; n == 0 || (e.print-1)%n != 0 {
		return e.writeFrame()
	}
	return nil
}

// Run performs every configured run from the current surface and writes
// the final report.
func (e *Eroder) Run(ctx context.Context) error {
	e.erosion.Reset()
	for run := 1; run <= e.state.NumRuns; run++ {
		e.Clock.ResetRun()
		if err := e.RunComponents(ctx); err != nil {
			return err
		}
	}
	return e.finish()
}

// RunFromSteadyState restarts from the surface stored by ReachSteadyState
// with the forcing active from the first step.
func (e *Eroder) RunFromSteadyState(ctx context.Context) error {
	if e.steadyData == nil {
		return ErrNoSteadyState
	}
	e.erosion.Reset()
	for run := 1; run <= e.state.NumRuns; run++ {
		if err := e.terrain.Restore(e.steadyData); err != nil {
			return err
		}
		e.Clock.ResetRun()
		e.Clock.InitialSteadyState = true
		if err := e.RunComponents(ctx); err != nil {
			return err
		}
	}
	return e.finish()
}

// ReachSteadyState perturbs and fills the surface, then runs it to steady
// state under a modest sinusoidal K until the cycle mean erosion settles,
// and finally for ten steps with the configured forcing. The result is kept
// for RunFromSteadyState.
func (e *Eroder) ReachSteadyState(ctx context.Context) error {
	clk := e.Clock
	s := e.state
	clk.ResetRun()
	e.erosion.Reset()

	saved := *clk
	printInterval, reporting := s.PrintInterval, s.Reporting
	defer func() {
		clk.EndTime, clk.EndMode = saved.EndTime, saved.EndMode
		clk.Periodicity, clk.PeriodMode = saved.Periodicity, saved.PeriodMode
		clk.HungCheck, clk.HungLimit = saved.HungCheck, saved.HungLimit
		clk.K, clk.D = saved.K, saved.D
		clk.CycleSteadyCheck = false
		s.PrintInterval, s.Reporting = printInterval, reporting
	}()

	z := e.terrain.Elevation()
	generators.AddNoise(z, e.model, s.Noise, e.rng)
	if err := z.CopyFrom(flow.Fill(z, e.model, fillSlope)); err != nil {
		return err
	}

	clk.K = clock.Parameter{Base: saved.K.Base, Amplitude: 0.3 * saved.K.Base, Mode: clock.Sine, EarlyStart: true}
	clk.EndTime = 0
	clk.EndMode = clock.EndAfterSteady
	clk.PeriodMode = clock.PeriodSingle
	clk.CycleSteadyCheck = true
	clk.ResetCycleRecord()
	clk.HungCheck = true
	clk.HungLimit = 100 * math.Max(saved.EndTime, clk.Periodicity)
	s.PrintInterval = 0
	s.Reporting = false

	e.logger.Print("producing steady state profile")
	if err := e.RunComponents(ctx); err != nil {
		return err
	}

	clk.K, clk.D = saved.K, saved.D
	clk.EndTime = 10 * clk.TimeStep
	clk.EndMode = clock.EndAbsolute
	clk.CycleSteadyCheck = false
	clk.InitialSteadyState = false
	clk.Time = 0

	e.logger.Print("producing steady state elevation of base level forcing")
	if err := e.RunComponents(ctx); err != nil {
		return err
	}
	e.steadyData = z.Copy()
	return nil
}

// SteadyState returns the stored steady surface, or nil.
func (e *Eroder) SteadyState() *core.Raster {
	return e.steadyData
}

func (e *Eroder) finish() error {
	clk := e.Clock
	f := report.NewFinal(e.erosion, clk.RunTime(), e.state.NumRuns, clk.InitialSteadyState)
	f.KAmplitude = clk.K.Amplitude
	f.DAmplitude = clk.D.Amplitude
	f.Periodicity = clk.Periodicity
	f.Overshoot = clk.Overshoot()
	f.NonConvergent = e.summary.NonConvergentSteps

	out, err := os.Create(e.path("_final"))
	if err != nil {
		return err
	}
	if err := report.WriteFinal(out, e.state.Name, e.runID, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	e.logger.Printf("finished at t=%g after %d steps, %d non-convergent", clk.Time, e.summary.Steps, e.summary.NonConvergentSteps)
	return nil
}

// Close flushes and closes every open report and forcing stream.
func (e *Eroder) Close() error {
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}
	if e.steps != nil {
		keep(e.steps.Close())
	}
	if e.cycleReport != nil {
		keep(e.cycleReport.Close())
	}
	if e.frames != nil {
		keep(e.frames.Close())
	}
	keep(closeStreams(e.Clock))
	return first
}
