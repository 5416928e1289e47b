package boundary

import (
	"fmt"
	"strings"

	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/utils"
)

type Code byte

const (
	BaseLevel Code = 'b'
	Periodic  Code = 'p'
	NoFlux    Code = 'n'
)

func (c Code) String() string {
	switch c {
	case BaseLevel:
		return "Base level"
	case Periodic:
		return "Periodic"
	default:
		return "No flow"
	}
}

type Edge int

const (
	North Edge = iota
	East
	South
	West
)

var edgeNames = [4]string{"North", "East", "South", "West"}

func (e Edge) String() string {
	return edgeNames[e]
}

// Conditions holds one code per edge in north, east, south, west order.
type Conditions [4]Code

// Parse reads a four letter code such as "bpbp".
func Parse(code string) (Conditions, error) {
	var c Conditions
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != 4 {
		return c, fmt.Errorf("%w: %q must have four characters", ErrMalformedCode, code)
	}
	for i := 0; i < 4; i++ {
		switch Code(code[i]) {
		case BaseLevel, Periodic, NoFlux:
			c[i] = Code(code[i])
		default:
			return c, fmt.Errorf("%w: %q has invalid character %q", ErrMalformedCode, code, code[i])
		}
	}
	return c, nil
}

func MustParse(code string) Conditions {
	c, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Conditions) Classify(e Edge) Code {
	return c[e]
}

func (c Conditions) String() string {
	return string([]byte{byte(c[0]), byte(c[1]), byte(c[2]), byte(c[3])})
}

// Model ties boundary conditions to a grid size.
type Model struct {
	Conditions
	NRows, NCols int
}

func NewModel(c Conditions, nrows, ncols int) Model {
	return Model{Conditions: c, NRows: nrows, NCols: ncols}
}

// IsBaseLevel reports whether the cell lies on an edge held at base level.
func (m Model) IsBaseLevel(row, col int) bool {
	switch {
	case row == 0 && m.Conditions[North] == BaseLevel:
		return true
	case col == 0 && m.Conditions[West] == BaseLevel:
		return true
	case row == m.NRows-1 && m.Conditions[South] == BaseLevel:
		return true
	case col == m.NCols-1 && m.Conditions[East] == BaseLevel:
		return true
	}
	return false
}

// PeriodicNS is true when either the north or south edge is periodic; a
// lone periodic edge is treated as a periodic pair.
func (m Model) PeriodicNS() bool {
	return m.Conditions[North] == Periodic || m.Conditions[South] == Periodic
}

func (m Model) PeriodicEW() bool {
	return m.Conditions[East] == Periodic || m.Conditions[West] == Periodic
}

func (m Model) HasBaseLevel() bool {
	for _, c := range m.Conditions {
		if c == BaseLevel {
			return true
		}
	}
	return false
}

// Validate returns configuration warnings. They are never fatal.
func (m Model) Validate() []string {
	var warnings []string
	pairs := [][2]Edge{{North, South}, {East, West}}
	for _, p := range pairs {
		a, b := m.Conditions[p[0]], m.Conditions[p[1]]
		if (a == Periodic) != (b == Periodic) {
			warnings = append(warnings, fmt.Sprintf(
				"%s is %s but %s is %s; treating both as periodic", p[0], a, p[1], b))
		}
	}
	if !m.HasBaseLevel() {
		warnings = append(warnings, "no base-level edge; the landscape has no outlet")
	}
	return warnings
}

// Neighbour resolves the cell at (row+dr, col+dc). Periodic edges wrap; ok is
// false when the offset leaves the grid through any other edge.
func (m Model) Neighbour(row, col, dr, dc int) (int, int, bool) {
	rr, cc := row+dr, col+dc
	if rr < 0 || rr >= m.NRows {
		if !m.PeriodicNS() {
			return 0, 0, false
		}
		rr = utils.Wrap(rr, m.NRows)
	}
	if cc < 0 || cc >= m.NCols {
		if !m.PeriodicEW() {
			return 0, 0, false
		}
		cc = utils.Wrap(cc, m.NCols)
	}
	return rr, cc, true
}

// RequireNSBaseEWPeriodic checks the only combination the full-grid creep
// solver supports.
func (m Model) RequireNSBaseEWPeriodic() error {
	c := m.Conditions
	if c[North] != BaseLevel || c[South] != BaseLevel || !m.PeriodicEW() {
		return fmt.Errorf("%w: %s (need base level north and south, periodic east and west)",
			ErrUnsupportedBoundary, c)
	}
	return nil
}

// Fixed supplies the elevation of base-level edges when buffering.
type Fixed struct {
	North, East, South, West float64
}

// Buffer returns r padded by one cell on every side.
func (m Model) Buffer(r *core.Raster, fixed Fixed) (*core.Raster, error) {
	if r.NRows != m.NRows || r.NCols != m.NCols {
		return nil, fmt.Errorf("%w: model %dx%d, raster %dx%d", core.ErrDimensionMismatch,
			m.NRows, m.NCols, r.NRows, r.NCols)
	}
	nr, nc := m.NRows, m.NCols
	buff := core.NewRaster(nr+2, nc+2, r.DataResolution)
	buff.XMinimum = r.XMinimum - r.DataResolution
	buff.YMinimum = r.YMinimum - r.DataResolution
	buff.NoDataValue = r.NoDataValue

	for row := 0; row < nr; row++ {
		for col := 0; col < nc; col++ {
			buff.Set(row+1, col+1, r.At(row, col))
		}
	}

	for col := 0; col < nc; col++ {
		switch {
		case m.PeriodicNS():
			buff.Set(0, col+1, r.At(nr-1, col))
			buff.Set(nr+1, col+1, r.At(0, col))
		default:
			buff.Set(0, col+1, edgeValue(m.Conditions[North], fixed.North, r.At(0, col)))
			buff.Set(nr+1, col+1, edgeValue(m.Conditions[South], fixed.South, r.At(nr-1, col)))
		}
	}
	for row := 0; row < nr; row++ {
		switch {
		case m.PeriodicEW():
			buff.Set(row+1, 0, r.At(row, nc-1))
			buff.Set(row+1, nc+1, r.At(row, 0))
		default:
			buff.Set(row+1, 0, edgeValue(m.Conditions[West], fixed.West, r.At(row, 0)))
			buff.Set(row+1, nc+1, edgeValue(m.Conditions[East], fixed.East, r.At(row, nc-1)))
		}
	}

	buff.Set(0, 0, r.At(0, 0))
	buff.Set(0, nc+1, r.At(0, nc-1))
	buff.Set(nr+1, 0, r.At(nr-1, 0))
	buff.Set(nr+1, nc+1, r.At(nr-1, nc-1))
	return buff, nil
}

func edgeValue(code Code, fixed, adjacent float64) float64 {
	if code == BaseLevel {
		return fixed
	}
	return adjacent
}
