package report

import (
	"github.com/google/uuid"
)

// Step is one row of the per-timestep report.
type Step struct {
	Time         float64
	Periodicity  float64
	K, D         float64
	Erosion      float64
	TotalErosion float64
	Steady       bool
	MaxHeight    float64
	MeanHeight   float64
	Relief3px    float64
	Relief10m    float64
	Drainage20   float64
	Drainage200  float64
}

// StepReport writes Step rows. The K and D columns only appear when the
// matching process is on.
type StepReport struct {
	*Writer
	fluvial, hillslope bool
}

func StepColumns(fluvial, hillslope bool) []string {
	cols := []string{"Time", "Periodicity"}
	if fluvial {
		cols = append(cols, "K")
	}
	if hillslope {
		cols = append(cols, "D")
	}
	return append(cols, "Erosion", "Total_erosion", "Steady", "Max_height", "Mean_height",
		"Relief-3px", "Relief-10m", "Drainage-20m2", "Drainage-200m2")
}

func NewStepReport(w *Writer, fluvial, hillslope bool) *StepReport {
	w.Columns = StepColumns(fluvial, hillslope)
	return &StepReport{Writer: w, fluvial: fluvial, hillslope: hillslope}
}

// CreateStepReport opens <path> for a step report.
func CreateStepReport(path, name string, runID uuid.UUID, fluvial, hillslope bool) (*StepReport, error) {
	w, err := Create(path, name, runID, nil)
	if err != nil {
		return nil, err
	}
	return NewStepReport(w, fluvial, hillslope), nil
}

func (s *StepReport) Write(row Step) error {
	values := []float64{row.Time, row.Periodicity}
	if s.fluvial {
		values = append(values, row.K)
	}
	if s.hillslope {
		values = append(values, row.D)
	}
	values = append(values, row.Erosion, row.TotalErosion, boolFloat(row.Steady),
		row.MaxHeight, row.MeanHeight, row.Relief3px, row.Relief10m,
		row.Drainage20, row.Drainage200)
	return s.Row(values...)
}
