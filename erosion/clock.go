package erosion

import (
	"errors"
	"log"

	"github.com/ob6160/Landscape/clock"
	"github.com/ob6160/Landscape/config"
)

// NewClock builds the simulation clock and its forcing from p. A missing
// stream file falls back to constant forcing with a warning.
func NewClock(p config.Params, logger *log.Logger) (*clock.Clock, error) {
	c := clock.New(p.TimeStep, p.EndTime)
	c.EndMode = p.EndMode
	c.SteadyTolerance = p.SteadyTolerance
	c.SteadyLimit = p.SteadyLimit
	c.Periodicity = p.Periodicity
	c.Periodicity2 = p.Periodicity2
	c.PeriodMode = p.PeriodMode
	c.PWeight = p.PWeight
	c.SwitchTime = p.SwitchTime
	c.HungCheck = p.HungCheck
	c.SnapPeriodicity()

	var err error
	if c.K, err = forcing("K", p.K, p.KAmplitude, p.KMode, p.KFile, logger); err != nil {
		return nil, err
	}
	if c.D, err = forcing("D", p.D, p.DAmplitude, p.DMode, p.DFile, logger); err != nil {
		return nil, err
	}
	return c, nil
}

func forcing(name string, base, fraction float64, mode int, file string, logger *log.Logger) (clock.Parameter, error) {
	param := clock.Parameter{Base: base, Amplitude: fraction * base, Mode: clock.Mode(mode)}
	if param.Mode != clock.Streamed {
		return param, nil
	}
	s, err := clock.NewStream(file, base)
	if errors.Is(err, clock.ErrNoStream) {
		logger.Printf("%s forcing: %v, using constant %s", name, err, name)
		param.Mode = clock.Constant
		return param, nil
	}
	if err != nil {
		return param, err
	}
	param.Stream = s
	return param, nil
}

// streamErr returns the first error met reading either forcing stream.
func streamErr(c *clock.Clock) error {
	for _, p := range []clock.Parameter{c.K, c.D} {
		if p.Stream == nil {
			continue
		}
		if err := p.Stream.Err(); err != nil {
			return err
		}
	}
	return nil
}

func closeStreams(c *clock.Clock) error {
	var errs []error
	for _, p := range []clock.Parameter{c.K, c.D} {
		if p.Stream != nil {
			errs = append(errs, p.Stream.Close())
		}
	}
	return errors.Join(errs...)
}
