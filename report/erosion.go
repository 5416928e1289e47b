package report

import "github.com/ob6160/Landscape/clock"

// Erosion follows the landscape mean erosion rate from step to step. Total
// only grows while recording; Response is the widest swing between a local
// high and low.
type Erosion struct {
	Current  float64
	Last     float64
	Total    float64
	Max      float64
	Min      float64
	Response float64
}

func NewErosion() *Erosion {
	return &Erosion{Min: clock.Unset}
}

// ResetRun clears the swing tracking at the start of a run.
func (e *Erosion) ResetRun() {
	e.Max = 0
	e.Min = clock.Unset
}

// Reset clears everything, totals included.
func (e *Erosion) Reset() {
	*e = Erosion{Min: clock.Unset}
}

func (e *Erosion) Update(mean float64, recording bool) {
	e.Last = e.Current
	e.Current = mean
	if recording {
		e.Total += mean
	}

	switch {
	case mean > e.Last:
		e.Max = mean
	case mean < e.Last:
		e.Min = mean
	}
	if e.Min != clock.Unset && e.Max-e.Min > e.Response {
		e.Response = e.Max - e.Min
	}
	if recording {
		if mean > e.Max {
			e.Max = mean
		}
		if e.Min == clock.Unset || mean < e.Min {
			e.Min = mean
		}
	}
}
