package report

import (
	"io"

	"github.com/google/uuid"

	"github.com/ob6160/Landscape/clock"
)

var FinalColumns = []string{
	"Erosion", "Averaged", "Response", "K_amp", "D_amp", "Periodicity", "Overshoot", "NonConvergent",
}

// Final summarises all runs of a model.
type Final struct {
	Erosion       float64
	Averaged      float64
	Response      float64
	KAmplitude    float64
	DAmplitude    float64
	Periodicity   float64
	Overshoot     float64
	NonConvergent int
}

// NewFinal averages the total erosion over the recorded time of every run.
// Response is reported as clock.Unset when steady state was never reached.
func NewFinal(e *Erosion, runTime float64, runs int, steady bool) Final {
	f := Final{Erosion: e.Total, Response: clock.Unset}
	if runTime > 0 && runs > 0 {
		f.Averaged = e.Total / (runTime * float64(runs))
	}
	if steady && runs > 0 {
		f.Response = e.Response / float64(runs)
	}
	return f
}

func WriteFinal(w io.Writer, name string, runID uuid.UUID, f Final) error {
	wr := NewWriter(w, name, runID, FinalColumns)
	if err := wr.Row(f.Erosion, f.Averaged, f.Response, f.KAmplitude, f.DAmplitude,
		f.Periodicity, f.Overshoot, float64(f.NonConvergent)); err != nil {
		return err
	}
	return wr.Close()
}
