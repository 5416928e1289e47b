package hillslope

import (
	"math"

	"github.com/ob6160/Landscape/core"
)

// StepFunc advances the surface by h years.
type StepFunc func(h float64) (Result, error)

// TimestepPolicy decides how a diffusion step of length dt is split up.
type TimestepPolicy interface {
	Integrate(z *core.Raster, dt float64, step StepFunc) (Result, error)
}

// Fixed takes the whole step at once.
type Fixed struct{}

func (Fixed) Integrate(_ *core.Raster, dt float64, step StepFunc) (Result, error) {
	res, err := step(dt)
	res.SubSteps = 1
	return res, err
}

// Adaptive sub-steps dt. A sub-step that needs MaxIterations or more is
// undone and retried with h/Shrink; one that converges in a single
// iteration lets the next sub-step grow by Grow. The last accepted h is
// remembered across calls.
type Adaptive struct {
	MaxIterations int
	Grow          float64
	Shrink        float64
	MinDt         float64

	h float64
}

func NewAdaptive() *Adaptive {
	return &Adaptive{MaxIterations: 10, Grow: 2, Shrink: 10, MinDt: 1e-3}
}

func (a *Adaptive) Integrate(z *core.Raster, dt float64, step StepFunc) (Result, error) {
	if dt <= 0 {
		return Result{Converged: true}, nil
	}
	if a.h <= 0 || a.h > dt {
		a.h = dt
	}
	out := Result{Converged: true}
	backup := z.Copy()
	covered := 0.0
	for covered < dt {
		h := math.Min(a.h, dt-covered)
		if err := backup.CopyFrom(z); err != nil {
			return out, err
		}
		res, err := step(h)
		if err != nil {
			return out, err
		}
		if res.Iterations >= a.MaxIterations && h/a.Shrink >= a.MinDt {
			if err := z.CopyFrom(backup); err != nil {
				return out, err
			}
			a.h = h / a.Shrink
			continue
		}
		out.merge(res)
		out.SubSteps++
		covered += h
		if res.Iterations <= 1 {
			a.h = h * a.Grow
		}
	}
	return out, nil
}
