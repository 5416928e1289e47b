package erosion

import (
	"github.com/ob6160/Landscape/config"
)

// State holds the switches and physical constants the eroder reads each
// step. Time keeping and forcing live in the clock.
type State struct {
	Name    string
	NumRuns int

	Fluvial          bool
	Hillslope        bool
	Nonlinear        bool
	FullGrid         bool
	AdaptiveTimestep bool
	Isostasy         bool
	Flexure          bool
	FlexureAlpha     float64

	M, N              float64
	Sc                float64 // gradient
	ThresholdDrainage float64
	Rigidity          float64
	Noise             float64
	UpliftMode        int
	MaxUplift         float64

	Reporting         bool
	ReportDelay       float64
	PrintInterval     int
	PrintElevation    bool
	PrintHillshade    bool
	PrintErosion      bool
	PrintErosionCycle bool
	PrintSlopeArea    bool
	PrintDrainage     bool
	Quiet             bool
}

func NewState(p config.Params) *State {
	return &State{
		Name:              p.Name,
		NumRuns:           p.NumRuns,
		Fluvial:           p.Fluvial,
		Hillslope:         p.Hillslope,
		Nonlinear:         p.Nonlinear,
		FullGrid:          p.FullGrid,
		AdaptiveTimestep:  p.AdaptiveTimestep,
		Isostasy:          p.Isostasy,
		Flexure:           p.Flexure,
		FlexureAlpha:      p.FlexureAlpha,
		M:                 p.M,
		N:                 p.N,
		Sc:                p.ScSlope(),
		ThresholdDrainage: p.ThresholdDrainage,
		Rigidity:          p.Rigidity,
		Noise:             p.Noise,
		UpliftMode:        p.UpliftMode,
		MaxUplift:         p.MaxUplift,
		Reporting:         p.Reporting,
		ReportDelay:       p.ReportDelay,
		PrintInterval:     p.PrintInterval,
		PrintElevation:    p.PrintElevation,
		PrintHillshade:    p.PrintHillshade,
		PrintErosion:      p.PrintErosion,
		PrintErosionCycle: p.PrintErosionCycle,
		PrintSlopeArea:    p.PrintSlopeArea,
		PrintDrainage:     p.PrintDrainage,
		Quiet:             p.Quiet,
	}
}
