package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ob6160/Landscape/boundary"
	"gopkg.in/yaml.v3"
)

// Params is every setting of a model run. Amplitudes are fractions of the
// base K and D.
type Params struct {
	Name         string  `yaml:"name"`
	BoundaryCode string  `yaml:"boundary_code"`
	NRows        int     `yaml:"nrows"`
	NCols        int     `yaml:"ncols"`
	Resolution   float64 `yaml:"resolution"`
	LoadFile     string  `yaml:"load_file"`

	TimeStep        float64 `yaml:"time_step"`
	EndTime         float64 `yaml:"end_time"`
	EndMode         int     `yaml:"end_time_mode"`
	NumRuns         int     `yaml:"num_runs"`
	SteadyTolerance float64 `yaml:"tolerance"`
	SteadyLimit     float64 `yaml:"steady_limit"`
	HungCheck       bool    `yaml:"hung_check"`

	UpliftMode int     `yaml:"uplift_mode"`
	MaxUplift  float64 `yaml:"max_uplift"`

	K                 float64 `yaml:"k"`
	M                 float64 `yaml:"m"`
	N                 float64 `yaml:"n"`
	D                 float64 `yaml:"d"`
	Sc                float64 `yaml:"s_c"`
	ThresholdDrainage float64 `yaml:"threshold_drainage"`
	Rigidity          float64 `yaml:"rigidity"`
	Noise             float64 `yaml:"noise"`

	KMode        int     `yaml:"k_mode"`
	DMode        int     `yaml:"d_mode"`
	KAmplitude   float64 `yaml:"k_amplitude"`
	DAmplitude   float64 `yaml:"d_amplitude"`
	KFile        string  `yaml:"k_file"`
	DFile        string  `yaml:"d_file"`
	Periodicity  float64 `yaml:"periodicity"`
	Periodicity2 float64 `yaml:"periodicity_2"`
	PeriodMode   int     `yaml:"period_mode"`
	PWeight      float64 `yaml:"p_ratio"`
	SwitchTime   float64 `yaml:"switch_time"`

	Fluvial          bool `yaml:"fluvial"`
	Hillslope        bool `yaml:"hillslope"`
	Nonlinear        bool `yaml:"non_linear"`
	FullGrid         bool `yaml:"full_grid"`
	AdaptiveTimestep bool `yaml:"adaptive_timestep"`
	Isostasy         bool `yaml:"isostasy"`
	Flexure          bool `yaml:"flexure"`
	// FlexureAlpha under-relaxes flexure to equilibrium each step; zero
	// applies a single full update instead.
	FlexureAlpha float64 `yaml:"flexure_alpha"`

	Quiet             bool    `yaml:"quiet"`
	Reporting         bool    `yaml:"reporting"`
	ReportDelay       float64 `yaml:"report_delay"`
	PrintInterval     int     `yaml:"print_interval"`
	PrintElevation    bool    `yaml:"print_elevation"`
	PrintHillshade    bool    `yaml:"print_hillshade"`
	PrintErosion      bool    `yaml:"print_erosion"`
	PrintErosionCycle bool    `yaml:"print_erosion_cycle"`
	PrintSlopeArea    bool    `yaml:"print_slope_area"`
	PrintDrainage     bool    `yaml:"print_drainage"`
}

func Defaults() Params {
	return Params{
		Name:         "LSDRM",
		BoundaryCode: "bpbp",
		NRows:        100,
		NCols:        100,
		Resolution:   1,

		TimeStep:        100,
		EndTime:         10000,
		NumRuns:         1,
		SteadyTolerance: 0.0001,
		SteadyLimit:     -1,

		MaxUplift: 0.0005,

		K:                 0.0002,
		M:                 0.5,
		N:                 1,
		D:                 0.02,
		Sc:                30,
		ThresholdDrainage: -99,
		Rigidity:          1e7,
		Noise:             0.1,

		KAmplitude:   0.001,
		DAmplitude:   0.001,
		Periodicity:  10000,
		Periodicity2: 20000,
		PeriodMode:   1,
		PWeight:      0.8,
		SwitchTime:   5000,

		Fluvial:   true,
		Hillslope: true,

		Reporting:      true,
		PrintInterval:  10,
		PrintElevation: true,
	}
}

// ScSlope is the critical slope as a gradient.
func (p Params) ScSlope() float64 {
	return math.Tan(p.Sc * math.Pi / 180)
}

func (p Params) Boundary() (boundary.Model, error) {
	c, err := boundary.Parse(p.BoundaryCode)
	if err != nil {
		return boundary.Model{}, err
	}
	return boundary.NewModel(c, p.NRows, p.NCols), nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate reports every problem with p.
func (p Params) Validate() error {
	var errs []error
	m, err := p.Boundary()
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if p.NRows < 3 || p.NCols < 3 {
		errs = append(errs, invalid("grid %dx%d is smaller than 3x3", p.NRows, p.NCols))
	}
	if p.Resolution <= 0 {
		errs = append(errs, invalid("resolution %g must be positive", p.Resolution))
	}
	if p.TimeStep <= 0 {
		errs = append(errs, invalid("time step %g must be positive", p.TimeStep))
	}
	if p.NumRuns < 1 {
		errs = append(errs, invalid("num runs %d must be at least 1", p.NumRuns))
	}
	if p.EndMode < 0 || p.EndMode > 3 {
		errs = append(errs, invalid("end time mode %d out of range", p.EndMode))
	}
	if p.PeriodMode < 1 || p.PeriodMode > 4 {
		errs = append(errs, invalid("period mode %d out of range", p.PeriodMode))
	}
	if p.UpliftMode < 0 || p.UpliftMode > 3 {
		errs = append(errs, invalid("uplift mode %d out of range", p.UpliftMode))
	}
	for name, mode := range map[string]int{"K": p.KMode, "D": p.DMode} {
		if mode < 0 || mode > 3 {
			errs = append(errs, invalid("%s mode %d out of range", name, mode))
		}
	}
	if p.KMode == 3 && p.KFile == "" {
		errs = append(errs, invalid("K mode 3 needs a K file"))
	}
	if p.DMode == 3 && p.DFile == "" {
		errs = append(errs, invalid("D mode 3 needs a D file"))
	}
	if p.Periodicity <= 0 || p.Periodicity2 <= 0 {
		errs = append(errs, invalid("periodicities must be positive"))
	}
	if p.Sc <= 0 || p.Sc >= 90 {
		errs = append(errs, invalid("S_c %g must be between 0 and 90 degrees", p.Sc))
	}
	if p.FlexureAlpha < 0 || p.FlexureAlpha > 1 {
		errs = append(errs, invalid("flexure alpha %g must be between 0 and 1", p.FlexureAlpha))
	}
	if p.PrintInterval < 0 {
		errs = append(errs, invalid("print interval %d is negative", p.PrintInterval))
	}
	if p.FullGrid && err == nil {
		if ferr := m.RequireNSBaseEWPeriodic(); ferr != nil {
			errs = append(errs, fmt.Errorf("%w: full grid: %w", ErrInvalidConfig, ferr))
		}
	}
	return errors.Join(errs...)
}

// LoadYAML decodes parameters over the defaults. Unknown fields are an
// error.
func LoadYAML(r io.Reader) (Params, error) {
	p := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return p, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if p.PWeight > 1 {
		p.PWeight = 1
	}
	return p, nil
}

// WriteYAML encodes p in the form LoadYAML reads.
func WriteYAML(w io.Writer, p Params) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

// Load reads a parameter file, YAML when the extension says so and the
// key: value format otherwise. Warnings are non-fatal problems such as
// unknown keys.
func Load(path string) (Params, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, nil, err
	}
	defer f.Close()

	var p Params
	var warnings []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = LoadYAML(f)
	default:
		p, warnings, err = ParseLegacy(f)
	}
	if err != nil {
		return p, warnings, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, warnings, nil
}
