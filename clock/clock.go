package clock

import (
	"math"

	"github.com/ob6160/Landscape/core"
)

// Unset marks an empty slot in the cycle erosion record and an unset minimum.
const Unset = -99.0

// End time modes.
const (
	EndAbsolute    = 0 // stop at EndTime
	EndAfterSteady = 1 // EndTime years after steady state
	EndCycles      = 2 // EndTime forcing cycles after steady state
	EndWholeCycles = 3 // like EndAfterSteady, rounded up to whole cycles
)

// Period modes. Modes 2 and 4 swap Periodicity and Periodicity2 at
// SwitchTime; modes 3 and 4 blend the two periods.
const (
	PeriodSingle      = 1
	PeriodSwitch      = 2
	PeriodBlend       = 3
	PeriodBlendSwitch = 4
)

// Phase is the coarse state of a run.
type Phase int

const (
	WarmingUp Phase = iota
	SteadyReached
	Recording
	Cycling
)

func (p Phase) String() string {
	switch p {
	case WarmingUp:
		return "warming up"
	case SteadyReached:
		return "steady state reached"
	case Recording:
		return "recording"
	case Cycling:
		return "cycling"
	}
	return "unknown"
}

// Clock tracks simulated time, steady state detection and the forcing
// cycle. All of its state is explicit so several runs can share a process.
type Clock struct {
	Time     float64
	TimeStep float64
	EndTime  float64
	EndMode  int

	// TimeDelay is the time at which steady state was first reached.
	TimeDelay   float64
	SwitchDelay float64

	InitialSteadyState bool
	SteadyState        bool
	Recording          bool
	CycleNumber        int
	CycleSteadyCheck   bool
	SteadyTolerance    float64
	SteadyLimit        float64
	CycleRecord        [5]float64

	Periodicity  float64
	Periodicity2 float64
	PeriodMode   int
	PWeight      float64
	SwitchTime   float64

	K, D Parameter

	// HungCheck enables the abort when steady state never arrives. A
	// positive HungLimit replaces the default limit of 100 times EndTime.
	HungCheck bool
	HungLimit float64
}

func New(dt, endTime float64) *Clock {
	c := &Clock{
		TimeStep:        dt,
		EndTime:         endTime,
		SteadyTolerance: 0.0001,
		SteadyLimit:     -1,
		Periodicity:     10000,
		Periodicity2:    20000,
		PeriodMode:      PeriodSingle,
		PWeight:         0.8,
		SwitchTime:      endTime / 2,
		CycleNumber:     1,
	}
	c.ResetCycleRecord()
	return c
}

// Forcing reports whether K or D varies in time.
func (c *Clock) Forcing() bool {
	return c.K.Mode != Constant || c.D.Mode != Constant
}

func (c *Clock) Phase() Phase {
	switch {
	case c.Recording && c.Forcing():
		return Cycling
	case c.Recording:
		return Recording
	case c.InitialSteadyState:
		return SteadyReached
	}
	return WarmingUp
}

// ResetRun rewinds the clock for a new run.
func (c *Clock) ResetRun() {
	c.Time = 0
	c.InitialSteadyState = false
	c.SteadyState = false
	c.Recording = false
}

// ResetComponents clears the per-run cycle bookkeeping.
func (c *Clock) ResetComponents() {
	c.CycleNumber = 1
	c.SwitchDelay = 0
	c.TimeDelay = 0
}

func (c *Clock) ResetCycleRecord() {
	for i := range c.CycleRecord {
		c.CycleRecord[i] = Unset
	}
}

// PushCycleErosion appends the mean erosion of a completed cycle to the
// rolling window used by cycle steady state detection.
func (c *Clock) PushCycleErosion(v float64) {
	copy(c.CycleRecord[:], c.CycleRecord[1:])
	c.CycleRecord[len(c.CycleRecord)-1] = v
}

func (c *Clock) Advance() {
	c.Time += c.TimeStep
}

// SnapPeriodicity rounds the period up to a whole number of timesteps.
func (c *Clock) SnapPeriodicity() {
	c.Periodicity = math.Ceil(c.Periodicity/c.TimeStep) * c.TimeStep
}

// CheckSteadyState updates SteadyState from the change between zOld and z,
// or from the cycle erosion record when CycleSteadyCheck is set. It returns
// true the first time steady state is reached, when TimeDelay is frozen.
func (c *Clock) CheckSteadyState(z, zOld *core.Raster) bool {
	c.SteadyState = c.steady(z, zOld)
	if !c.SteadyState || c.InitialSteadyState {
		return false
	}
	c.InitialSteadyState = true
	c.TimeDelay = c.Time
	if c.EndMode == EndAfterSteady || c.EndMode == EndWholeCycles {
		c.EndTime += c.TimeDelay
	}
	return true
}

func (c *Clock) steady(z, zOld *core.Raster) bool {
	if c.CycleSteadyCheck {
		for i := 0; i < len(c.CycleRecord)-1; i++ {
			if c.CycleRecord[i] == Unset || math.Abs(c.CycleRecord[i]-c.CycleRecord[i+1]) > c.SteadyTolerance {
				return false
			}
		}
		return true
	}
	if c.SteadyLimit >= 0 && c.Time >= c.SteadyLimit {
		return true
	}
	for i := range z.Data {
		if z.Data[i] == z.NoDataValue {
			continue
		}
		if math.Abs(z.Data[i]-zOld.Data[i]) > c.SteadyTolerance {
			return false
		}
	}
	return true
}

func (c *Clock) cyclesSinceSteady() int {
	return int((c.Time - c.TimeDelay) / c.Periodicity)
}

// CheckRecording switches recording on once steady state has been reached,
// waiting one full period when the forcing varies.
func (c *Clock) CheckRecording() {
	switch {
	case c.Recording:
	case !c.InitialSteadyState:
		c.Recording = false
	case !c.Forcing():
		c.Recording = true
	case c.cyclesSinceSteady() >= 1:
		c.Recording = true
	default:
		c.Recording = false
	}
}

// CheckEndCondition reports whether the run is over.
func (c *Clock) CheckEndCondition() bool {
	cycles := c.cyclesSinceSteady()
	if c.Forcing() {
		cycles = c.CycleNumber - 1
	}
	switch c.EndMode {
	case EndAfterSteady:
		return c.InitialSteadyState && c.Time > c.EndTime+c.TimeStep
	case EndCycles:
		return c.InitialSteadyState && float64(cycles) > c.EndTime
	case EndWholeCycles:
		n := math.Ceil((c.EndTime - c.TimeDelay) / c.Periodicity)
		if n == 1 {
			n++
		}
		adjusted := n*c.Periodicity + c.TimeDelay
		c.EndTime = adjusted
		return c.InitialSteadyState && c.Time >= adjusted+c.TimeStep
	default:
		return c.Time >= c.EndTime
	}
}

// CheckPeriodicitySwitch swaps the two periods once SwitchTime has passed
// since steady state (or since the previous switch). It reports whether a
// swap happened.
func (c *Clock) CheckPeriodicitySwitch() bool {
	if !c.Forcing() || (!c.InitialSteadyState && !c.CycleSteadyCheck) {
		return false
	}
	if c.PeriodMode != PeriodSwitch && c.PeriodMode != PeriodBlendSwitch {
		return false
	}
	t := c.SwitchTime
	switch c.EndMode {
	case EndCycles:
		t = c.SwitchTime * c.Periodicity
	case EndWholeCycles:
		t = math.Ceil(c.SwitchTime/c.Periodicity) * c.Periodicity
	}
	if c.Time-c.TimeDelay <= t+c.SwitchDelay {
		return false
	}
	c.Periodicity, c.Periodicity2 = c.Periodicity2, c.Periodicity
	c.SwitchDelay = c.Time - c.TimeDelay - c.TimeStep
	return true
}

// CheckHung reports a run that has gone far past its end time without
// reaching steady state. It is always false unless HungCheck is set.
func (c *Clock) CheckHung() bool {
	if !c.HungCheck || c.InitialSteadyState {
		return false
	}
	if c.HungLimit > 0 {
		return c.Time > c.HungLimit
	}
	switch c.EndMode {
	case EndAfterSteady, EndWholeCycles:
		return c.Time > c.EndTime*100
	case EndCycles:
		return float64(int(c.Time/c.Periodicity)) > c.EndTime*100
	}
	return false
}

// RunTime is the time spent after steady state, less the first forcing
// period when the forcing varies.
func (c *Clock) RunTime() float64 {
	rt := c.Time - c.TimeDelay
	if c.Forcing() {
		rt -= c.Periodicity
	}
	return rt
}

// Overshoot is how far the run went past its end time.
func (c *Clock) Overshoot() float64 {
	return c.Time - c.EndTime
}
