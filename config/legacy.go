package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type setter func(p *Params, value string) error

func float(dst func(p *Params) *float64) setter {
	return func(p *Params, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*dst(p) = v
		return nil
	}
}

func integer(dst func(p *Params) *int) setter {
	return func(p *Params, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*dst(p) = v
		return nil
	}
}

func flag(dst func(p *Params) *bool) setter {
	return func(p *Params, value string) error {
		*dst(p) = strings.EqualFold(value, "on")
		return nil
	}
}

func text(dst func(p *Params) *string) setter {
	return func(p *Params, value string) error {
		*dst(p) = value
		return nil
	}
}

// legacyKeys maps lower-cased parameter names to their fields.
var legacyKeys = map[string]setter{
	"run name":      text(func(p *Params) *string { return &p.Name }),
	"boundary code": text(func(p *Params) *string { return &p.BoundaryCode }),
	"load file":     text(func(p *Params) *string { return &p.LoadFile }),
	"k file":        text(func(p *Params) *string { return &p.KFile }),
	"d file":        text(func(p *Params) *string { return &p.DFile }),

	"nrows":          integer(func(p *Params) *int { return &p.NRows }),
	"ncols":          integer(func(p *Params) *int { return &p.NCols }),
	"num runs":       integer(func(p *Params) *int { return &p.NumRuns }),
	"end time mode":  integer(func(p *Params) *int { return &p.EndMode }),
	"uplift mode":    integer(func(p *Params) *int { return &p.UpliftMode }),
	"print interval": integer(func(p *Params) *int { return &p.PrintInterval }),
	"k mode":         integer(func(p *Params) *int { return &p.KMode }),
	"d mode":         integer(func(p *Params) *int { return &p.DMode }),
	"period mode":    integer(func(p *Params) *int { return &p.PeriodMode }),

	"resolution":         float(func(p *Params) *float64 { return &p.Resolution }),
	"time step":          float(func(p *Params) *float64 { return &p.TimeStep }),
	"end time":           float(func(p *Params) *float64 { return &p.EndTime }),
	"max uplift":         float(func(p *Params) *float64 { return &p.MaxUplift }),
	"tolerance":          float(func(p *Params) *float64 { return &p.SteadyTolerance }),
	"steady limit":       float(func(p *Params) *float64 { return &p.SteadyLimit }),
	"m":                  float(func(p *Params) *float64 { return &p.M }),
	"n":                  float(func(p *Params) *float64 { return &p.N }),
	"k":                  float(func(p *Params) *float64 { return &p.K }),
	"d":                  float(func(p *Params) *float64 { return &p.D }),
	"s_c":                float(func(p *Params) *float64 { return &p.Sc }),
	"threshold drainage": float(func(p *Params) *float64 { return &p.ThresholdDrainage }),
	"rigidity":           float(func(p *Params) *float64 { return &p.Rigidity }),
	"periodicity":        float(func(p *Params) *float64 { return &p.Periodicity }),
	"periodicity 2":      float(func(p *Params) *float64 { return &p.Periodicity2 }),
	"p ratio":            float(func(p *Params) *float64 { return &p.PWeight }),
	"switch time":        float(func(p *Params) *float64 { return &p.SwitchTime }),
	"k amplitude":        float(func(p *Params) *float64 { return &p.KAmplitude }),
	"d amplitude":        float(func(p *Params) *float64 { return &p.DAmplitude }),
	"noise":              float(func(p *Params) *float64 { return &p.Noise }),
	"report delay":       float(func(p *Params) *float64 { return &p.ReportDelay }),
	"flexure alpha":      float(func(p *Params) *float64 { return &p.FlexureAlpha }),

	"fluvial":             flag(func(p *Params) *bool { return &p.Fluvial }),
	"hillslope":           flag(func(p *Params) *bool { return &p.Hillslope }),
	"non-linear":          flag(func(p *Params) *bool { return &p.Nonlinear }),
	"full grid":           flag(func(p *Params) *bool { return &p.FullGrid }),
	"adaptive timestep":   flag(func(p *Params) *bool { return &p.AdaptiveTimestep }),
	"hung check":          flag(func(p *Params) *bool { return &p.HungCheck }),
	"isostasy":            flag(func(p *Params) *bool { return &p.Isostasy }),
	"flexure":             flag(func(p *Params) *bool { return &p.Flexure }),
	"quiet":               flag(func(p *Params) *bool { return &p.Quiet }),
	"reporting":           flag(func(p *Params) *bool { return &p.Reporting }),
	"print elevation":     flag(func(p *Params) *bool { return &p.PrintElevation }),
	"print hillshade":     flag(func(p *Params) *bool { return &p.PrintHillshade }),
	"print erosion":       flag(func(p *Params) *bool { return &p.PrintErosion }),
	"print erosion cycle": flag(func(p *Params) *bool { return &p.PrintErosionCycle }),
	"print slope-area":    flag(func(p *Params) *bool { return &p.PrintSlopeArea }),
	"print drainage":      flag(func(p *Params) *bool { return &p.PrintDrainage }),
}

// ParseLegacy reads "Key: value" lines over the defaults. Keys are case
// insensitive, '#' starts a comment and only the first word of a value is
// used. Unknown keys are reported as warnings.
func ParseLegacy(r io.Reader) (Params, []string, error) {
	p := Defaults()
	var warnings []string
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		colon := strings.IndexByte(raw, ':')
		if colon < 0 {
			return p, warnings, fmt.Errorf("%w: line %d: %q has no ':'", ErrSyntax, line, raw)
		}
		key := strings.ToLower(strings.TrimSpace(raw[:colon]))
		fields := strings.Fields(raw[colon+1:])
		if len(fields) == 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: parameter %q has no value", line, key))
			continue
		}
		set, ok := legacyKeys[key]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: no parameter %q expected, check spelling", line, key))
			continue
		}
		if err := set(&p, fields[0]); err != nil {
			return p, warnings, fmt.Errorf("%w: line %d: %s: %w", ErrSyntax, line, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return p, warnings, err
	}
	if p.PWeight > 1 {
		p.PWeight = 1
	}
	return p, warnings, nil
}

// WriteTemplate writes a commented parameter file in the format
// ParseLegacy reads.
func WriteTemplate(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, section := range [][]string{
		{
			"# Template for parameter file",
			"Run Name:\t\ttemplate",
			"NRows:\t\t\t100",
			"NCols:\t\t\t100",
			"Resolution:\t\t1",
			"Boundary code:\t\tbpbp\t# north, east, south, west",
			"# b = base level, p = periodic, n = no flow",
			"Time step:\t\t50",
			"End time:\t\t2000",
			"End time mode:\t\t0\t# 1, 2 and 3 count from steady state",
			"Uplift mode:\t\t0\t# block uplift",
			"Max uplift:\t\t0.001",
			"Tolerance:\t\t0.0001",
			"Print interval:\t\t5",
			"#Periodicity:\t\t1000",
		},
		{
			"Fluvial:\t\ton",
			"K:\t\t\t0.01",
			"m:\t\t\t0.5",
			"n:\t\t\t1",
			"K mode:\t\t\t0\t# constant",
			"#K amplitude:\t\t0.5\t# fraction of K",
		},
		{
			"Hillslope:\t\ton",
			"Non-linear:\t\toff",
			"Full grid:\t\toff",
			"Threshold drainage:\t-1\t# ignored if negative",
			"D:\t\t\t0.05",
			"S_c:\t\t\t30\t# degrees",
			"D mode:\t\t\t0\t# constant",
			"#D amplitude:\t\t0.5\t# fraction of D",
		},
		{
			"Isostasy:\t\toff",
			"Flexure:\t\toff",
			"Rigidity:\t\t1000000",
			"#Flexure alpha:\t\t0.5\t# relax to equilibrium each step",
		},
	} {
		for _, l := range section {
			fmt.Fprintln(bw, l)
		}
		fmt.Fprintln(bw, "\n#####################")
	}
	return bw.Flush()
}
