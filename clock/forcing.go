package clock

import "math"

// Mode selects how a forcing parameter varies in time.
type Mode int

const (
	Constant Mode = iota
	Sine
	Square
	Streamed
)

func (m Mode) String() string {
	switch m {
	case Constant:
		return "constant"
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Streamed:
		return "streamed"
	}
	return "unknown"
}

// Parameter is a forcing parameter such as erodibility or diffusivity.
// Varying modes only take effect after steady state; with EarlyStart the
// sine mode also runs during a cycle steady state warm-up.
type Parameter struct {
	Base       float64
	Amplitude  float64
	Mode       Mode
	Stream     *Stream
	EarlyStart bool
}

// phaseTime is the time used by the periodic forcing functions.
func (c *Clock) phaseTime(t float64) float64 {
	return t - c.TimeDelay - c.SwitchDelay
}

func (c *Clock) periodicAt(t, base, amplitude float64) float64 {
	x := c.phaseTime(t) * 2 * math.Pi
	if c.PeriodMode == PeriodBlend || c.PeriodMode == PeriodBlendSwitch {
		return c.PWeight*math.Sin(x/c.Periodicity)*amplitude +
			(1-c.PWeight)*math.Sin(x/c.Periodicity2)*amplitude + base
	}
	return math.Sin(x/c.Periodicity)*amplitude + base
}

// Periodic is the sinusoidal forcing value at the current time.
func (c *Clock) Periodic(base, amplitude float64) float64 {
	return c.periodicAt(c.Time, base, amplitude)
}

// NextPhase evaluates a unit sine one step ahead; it rises above 1 as a new
// forcing cycle begins.
func (c *Clock) NextPhase() float64 {
	return c.periodicAt(c.Time+c.TimeStep, 1, 1)
}

// Square is a square wave of the current period, high for the first half.
func (c *Clock) Square(base, amplitude float64) float64 {
	wave := int(c.phaseTime(c.Time) / (c.Periodicity / 2))
	if wave%2 == 0 {
		return base + amplitude
	}
	return base - amplitude
}

// Value resolves p at the current time.
func (c *Clock) Value(p Parameter) float64 {
	switch p.Mode {
	case Sine:
		if c.InitialSteadyState || (p.EarlyStart && c.CycleSteadyCheck) {
			return c.Periodic(p.Base, p.Amplitude)
		}
	case Square:
		if c.InitialSteadyState {
			return c.Square(p.Base, p.Amplitude)
		}
	case Streamed:
		if c.InitialSteadyState && p.Stream != nil {
			return p.Stream.At(c.Time, c.TimeDelay)
		}
	}
	return p.Base
}

func (c *Clock) KValue() float64 {
	return c.Value(c.K)
}

func (c *Clock) DValue() float64 {
	return c.Value(c.D)
}
