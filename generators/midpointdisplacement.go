package generators

import (
	"math"
	"math/rand"

	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/utils"
)

// TerrainGenerator produces an initial elevation surface.
type TerrainGenerator interface {
	Generate()
	Raster() *core.Raster
	Dimensions() (int, int)
}

// MidpointDisplacement builds fractal relief on a square power-of-two
// lattice and crops it to the requested size. Heights are normalised to
// [0, Relief].
type MidpointDisplacement struct {
	rows, cols int
	resolution float64
	Spread     float64
	Reduce     float64
	Relief     float64
	rng        *rand.Rand
	size       int
	heightmap  []float64
	raster     *core.Raster
}

func NewMidPointDisplacement(rows, cols int, resolution float64, rng *rand.Rand) *MidpointDisplacement {
	size := utils.NextPow2(max(rows, cols)-1) + 1
	return &MidpointDisplacement{
		rows:       rows,
		cols:       cols,
		resolution: resolution,
		Spread:     0.3,
		Reduce:     0.5,
		Relief:     1,
		rng:        rng,
		size:       size,
		heightmap:  make([]float64, size*size),
	}
}

func (m *MidpointDisplacement) Dimensions() (int, int) {
	return m.rows, m.cols
}

// Raster returns the last generated surface, or nil before Generate.
func (m *MidpointDisplacement) Raster() *core.Raster {
	return m.raster
}

func (m *MidpointDisplacement) at(p utils.Point) float64 {
	return m.heightmap[p.ToIndex(m.size)]
}

func (m *MidpointDisplacement) set(p utils.Point, value float64) {
	m.heightmap[p.ToIndex(m.size)] = value
}

func (m *MidpointDisplacement) normalize() {
	maxValue, minValue := math.Inf(-1), math.Inf(1)
	for _, v := range m.heightmap {
		maxValue = math.Max(maxValue, v)
		minValue = math.Min(minValue, v)
	}
	diff := maxValue - minValue
	for i := range m.heightmap {
		if diff == 0 {
			m.heightmap[i] = 0
			continue
		}
		m.heightmap[i] = (m.heightmap[i] - minValue) / diff
	}
}

func (m *MidpointDisplacement) Generate() {
	for i := range m.heightmap {
		m.heightmap[i] = 0
	}
	last := m.size - 1
	topLeft := utils.Point{X: 0, Y: 0}
	topRight := utils.Point{X: 0, Y: last}
	bottomLeft := utils.Point{X: last, Y: 0}
	bottomRight := utils.Point{X: last, Y: last}
	for _, p := range []utils.Point{topLeft, topRight, bottomLeft, bottomRight} {
		m.set(p, m.rng.Float64())
	}
	m.displace(0, 0, last, last, m.Spread)
	m.normalize()

	r := core.NewRaster(m.rows, m.cols, m.resolution)
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			r.Set(row, col, m.Relief*m.at(utils.Point{X: row, Y: col}))
		}
	}
	m.raster = r
}

// displace fills the square with corners (top, left) and (bottom, right).
// Cells already set by a neighbouring square are left alone.
func (m *MidpointDisplacement) displace(top, left, bottom, right int, spread float64) {
	if bottom-top < 2 {
		return
	}
	midRow := utils.Midpoint(top, bottom)
	midCol := utils.Midpoint(left, right)
	tl := utils.Point{X: top, Y: left}
	tr := utils.Point{X: top, Y: right}
	bl := utils.Point{X: bottom, Y: left}
	br := utils.Point{X: bottom, Y: right}

	topMid := utils.Point{X: top, Y: midCol}
	leftMid := utils.Point{X: midRow, Y: left}
	rightMid := utils.Point{X: midRow, Y: right}
	bottomMid := utils.Point{X: bottom, Y: midCol}
	centre := utils.Point{X: midRow, Y: midCol}

	fill := func(p utils.Point, from ...utils.Point) {
		if m.at(p) != 0 {
			return
		}
		values := make([]float64, len(from))
		for i, f := range from {
			values[i] = m.at(f)
		}
		m.set(p, utils.Jitter(utils.Average(values...), spread, m.rng))
	}
	fill(topMid, tl, tr)
	fill(leftMid, tl, bl)
	fill(rightMid, tr, br)
	fill(bottomMid, bl, br)
	fill(centre, topMid, leftMid, rightMid, bottomMid)

	next := spread * m.Reduce
	m.displace(top, left, midRow, midCol, next)
	m.displace(top, midCol, midRow, right, next)
	m.displace(midRow, left, bottom, midCol, next)
	m.displace(midRow, midCol, bottom, right, next)
}
