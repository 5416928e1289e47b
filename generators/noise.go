package generators

import (
	"math/rand"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
)

// AddNoise raises every cell off the base-level edges by a uniform amount
// in [0, amplitude).
func AddNoise(r *core.Raster, m boundary.Model, amplitude float64, rng *rand.Rand) {
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			if m.IsBaseLevel(row, col) || r.IsNoData(row, col) {
				continue
			}
			r.Set(row, col, r.At(row, col)+rng.Float64()*amplitude)
		}
	}
}

// Noise is a flat surface with random perturbation, the fallback when no
// initial topography is supplied.
type Noise struct {
	Model      boundary.Model
	Resolution float64
	Amplitude  float64
	rng        *rand.Rand
	raster     *core.Raster
}

func NewNoise(m boundary.Model, resolution, amplitude float64, rng *rand.Rand) *Noise {
	return &Noise{Model: m, Resolution: resolution, Amplitude: amplitude, rng: rng}
}

func (n *Noise) Generate() {
	r := core.NewRaster(n.Model.NRows, n.Model.NCols, n.Resolution)
	AddNoise(r, n.Model, n.Amplitude, n.rng)
	n.raster = r
}

func (n *Noise) Raster() *core.Raster {
	return n.raster
}

func (n *Noise) Dimensions() (int, int) {
	return n.Model.NRows, n.Model.NCols
}

// Parabolic is a ridge running east-west, highest midway between the north
// and south edges, with the same perturbation as Noise.
type Parabolic struct {
	Noise
	Relief float64
}

func NewParabolic(m boundary.Model, resolution, relief, amplitude float64, rng *rand.Rand) *Parabolic {
	return &Parabolic{Noise: *NewNoise(m, resolution, amplitude, rng), Relief: relief}
}

func (p *Parabolic) Generate() {
	m := p.Model
	r := core.NewRaster(m.NRows, m.NCols, p.Resolution)
	for row := 0; row < m.NRows; row++ {
		x := 0.0
		if m.NRows > 1 {
			x = 2*float64(row)/float64(m.NRows-1) - 1
		}
		for col := 0; col < m.NCols; col++ {
			if m.IsBaseLevel(row, col) {
				continue
			}
			r.Set(row, col, p.Relief*(1-x*x))
		}
	}
	AddNoise(r, m, p.Amplitude, p.rng)
	p.raster = r
}
