package report

import (
	"math"

	"github.com/google/uuid"

	"github.com/ob6160/Landscape/clock"
	"github.com/ob6160/Landscape/core"
)

var CycleColumns = []string{
	"Cycle", "Start_time", "End_time", "Periodicity",
	"Erosion", "Erosion_response",
	"Elevation", "Elevation_response",
	"Relief-3px", "Relief-3px_response",
	"Relief-10m", "Relief-10m_response",
	"Drainage-20m2", "Drainage-20m2_response",
	"Drainage-200m2", "Drainage-200m2_response",
}

// series keeps the sum and range of one quantity over a cycle.
type series struct {
	sum, max, min float64
	seen          bool
}

func (s *series) reset() {
	*s = series{}
}

func (s *series) add(v float64) {
	s.sum += v
	if !s.seen {
		s.max, s.min, s.seen = v, v, true
		return
	}
	s.max = math.Max(s.max, v)
	s.min = math.Min(s.min, v)
}

func (s *series) mean(n int) float64 {
	if n == 0 {
		return 0
	}
	return s.sum / float64(n)
}

func (s *series) response() float64 {
	return s.max - s.min
}

// Sample is what one timestep contributes to the cycle statistics.
type Sample struct {
	Erosion     float64
	Elevation   float64
	Relief3px   float64
	Relief10m   float64
	Drainage20  float64
	Drainage200 float64
	// Rates is the erosion rate field, summed when fields are kept.
	Rates *core.Raster
}

// Cycle is a completed forcing cycle.
type Cycle struct {
	Number      int
	Start, End  float64
	Periodicity float64
	N           int

	Erosion, ErosionResponse         float64
	Elevation, ElevationResponse     float64
	Relief3px, Relief3pxResponse     float64
	Relief10m, Relief10mResponse     float64
	Drainage20, Drainage20Response   float64
	Drainage200, Drainage200Response float64

	// Field is the cycle mean erosion rate, nil unless KeepField is set.
	Field *core.Raster
}

func (c Cycle) values() []float64 {
	return []float64{
		float64(c.Number), c.Start, c.End, c.Periodicity,
		c.Erosion, c.ErosionResponse,
		c.Elevation, c.ElevationResponse,
		c.Relief3px, c.Relief3pxResponse,
		c.Relief10m, c.Relief10mResponse,
		c.Drainage20, c.Drainage20Response,
		c.Drainage200, c.Drainage200Response,
	}
}

// CycleAccumulator splits the run into forcing cycles. A cycle closes on
// the step before the unit forcing sine rises above 1.
type CycleAccumulator struct {
	KeepField bool

	above   bool
	started bool
	start   float64
	n       int

	erosion, elevation, relief3, relief10, drain20, drain200 series
	field                                                    *core.Raster
}

func NewCycleAccumulator(keepField bool) *CycleAccumulator {
	c := &CycleAccumulator{KeepField: keepField, above: true}
	c.reset()
	return c
}

func (c *CycleAccumulator) reset() {
	for _, s := range []*series{&c.erosion, &c.elevation, &c.relief3, &c.relief10, &c.drain20, &c.drain200} {
		s.reset()
	}
	c.n = 0
	c.field = nil
}

// Restart forgets the current cycle, as at the start of a run.
func (c *CycleAccumulator) Restart() {
	c.reset()
	c.started = false
	c.above = true
}

// Add records one step. When the step closes a cycle the clock's cycle
// number advances, the cycle mean erosion is pushed onto the clock's steady
// state window if it checks cycles, and the finished cycle is returned.
func (c *CycleAccumulator) Add(clk *clock.Clock, s Sample) *Cycle {
	if clk.Time == 0 {
		c.reset()
	}
	if !c.started {
		c.started = true
		c.start = clk.Time
	}

	var done *Cycle
	if clk.NextPhase() > 1 {
		if !c.above {
			clk.CycleNumber++
			done = c.close(clk)
			if clk.CycleSteadyCheck {
				clk.PushCycleErosion(done.Erosion)
			}
			c.start = clk.Time
			c.reset()
		}
		c.above = true
	} else {
		c.above = false
	}

	c.erosion.add(s.Erosion)
	c.elevation.add(s.Elevation)
	c.relief3.add(s.Relief3px)
	c.relief10.add(s.Relief10m)
	c.drain20.add(s.Drainage20)
	c.drain200.add(s.Drainage200)
	if c.KeepField && s.Rates != nil {
		if c.field == nil {
			c.field = core.NewRasterLike(s.Rates)
		}
		for i, v := range s.Rates.Data {
			c.field.Data[i] += v
		}
	}
	c.n++
	return done
}

func (c *CycleAccumulator) close(clk *clock.Clock) *Cycle {
	n := c.n
	cy := &Cycle{
		Number:              clk.CycleNumber - 1,
		Start:               c.start,
		End:                 clk.Time,
		Periodicity:         clk.Periodicity,
		N:                   n,
		Erosion:             c.erosion.mean(n),
		ErosionResponse:     c.erosion.response(),
		Elevation:           c.elevation.mean(n),
		ElevationResponse:   c.elevation.response(),
		Relief3px:           c.relief3.mean(n),
		Relief3pxResponse:   c.relief3.response(),
		Relief10m:           c.relief10.mean(n),
		Relief10mResponse:   c.relief10.response(),
		Drainage20:          c.drain20.mean(n),
		Drainage20Response:  c.drain20.response(),
		Drainage200:         c.drain200.mean(n),
		Drainage200Response: c.drain200.response(),
	}
	if c.field != nil && n > 0 {
		cy.Field = c.field
		for i := range cy.Field.Data {
			cy.Field.Data[i] /= float64(n)
		}
	}
	return cy
}

// CycleReport writes Cycle rows.
type CycleReport struct {
	*Writer
}

func CreateCycleReport(path, name string, runID uuid.UUID) (*CycleReport, error) {
	w, err := Create(path, name, runID, CycleColumns)
	if err != nil {
		return nil, err
	}
	return &CycleReport{Writer: w}, nil
}

func (r *CycleReport) Write(c *Cycle) error {
	return r.Row(c.values()...)
}
