package terrain

import (
	"math"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
)

// Uplift templates.
const (
	UpliftBlock     = 0
	UpliftTilt      = 1
	UpliftGaussian  = 2
	UpliftQuadratic = 3
)

// UpliftField returns the uplift rate per year of every cell. Base-level
// and no-data cells do not uplift.
func UpliftField(mode int, maxUplift float64, like *core.Raster, m boundary.Model) *core.Raster {
	out := core.NewRasterLike(like)
	nr, nc := like.NRows, like.NCols
	muI, muJ := float64(nr/2), float64(nc/2)
	sigmaI, sigmaJ := float64(nr/10), float64(nc/10)

	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if m.IsBaseLevel(i, j) || like.IsNoData(i, j) {
				continue
			}
			var u float64
			switch mode {
			case UpliftTilt:
				u = maxUplift
				if nr > 1 {
					u = float64(nr-i-1) * maxUplift / float64(nr-1)
				}
			case UpliftGaussian:
				e := 0.0
				if sigmaI > 0 {
					e += (float64(i) - muI) * (float64(i) - muI) / (2 * sigmaI * sigmaI)
				}
				if sigmaJ > 0 {
					e += (float64(j) - muJ) * (float64(j) - muJ) / (2 * sigmaJ * sigmaJ)
				}
				u = maxUplift * math.Pow(1.1, -e)
			case UpliftQuadratic:
				x, y := 0.0, 0.0
				if nr > 1 {
					x = 2*float64(i)/float64(nr-1) - 1
				}
				if nc > 1 {
					y = 2*float64(j)/float64(nc-1) - 1
				}
				u = math.Max(0, maxUplift*(1-x*x-y*y))
			default:
				u = maxUplift
			}
			out.Set(i, j, u)
		}
	}
	return out
}

// ApplyUplift raises the surface by the uplift field over dt.
func (t *Terrain) ApplyUplift(dt float64) {
	z := t.Elevation()
	for row := 0; row < z.NRows; row++ {
		for col := 0; col < z.NCols; col++ {
			if t.Model.IsBaseLevel(row, col) || z.IsNoData(row, col) {
				continue
			}
			i := z.Index(row, col)
			z.Data[i] += t.Uplift.Data[i] * dt
		}
	}
}

// ErosionAt is the erosion rate of a cell over the last step of length dt.
func (t *Terrain) ErosionAt(row, col int, dt float64) float64 {
	i := t.Elevation().Index(row, col)
	return (t.ZetaOld().Data[i] - t.Elevation().Data[i] + t.Uplift.Data[i]*dt) / dt
}

// ErosionRates maps ErosionAt over the grid.
func (t *Terrain) ErosionRates(dt float64) *core.Raster {
	z := t.Elevation()
	out := core.NewRasterLike(z)
	for row := 0; row < z.NRows; row++ {
		for col := 0; col < z.NCols; col++ {
			if z.IsNoData(row, col) {
				out.Set(row, col, z.NoDataValue)
				continue
			}
			out.Set(row, col, t.ErosionAt(row, col, dt))
		}
	}
	return out
}

// MeanErosion averages the erosion rate over cells off the base-level edges.
func (t *Terrain) MeanErosion(dt float64) float64 {
	z := t.Elevation()
	sum, n := 0.0, 0
	for row := 0; row < z.NRows; row++ {
		for col := 0; col < z.NCols; col++ {
			if t.Model.IsBaseLevel(row, col) || z.IsNoData(row, col) {
				continue
			}
			sum += t.ErosionAt(row, col, dt)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MaxBoundary is the highest elevation along an edge.
func (t *Terrain) MaxBoundary(e boundary.Edge) float64 {
	z := t.Elevation()
	best := 0.0
	switch e {
	case boundary.North, boundary.South:
		row := 0
		if e == boundary.South {
			row = z.NRows - 1
		}
		for col := 0; col < z.NCols; col++ {
			best = math.Max(best, z.At(row, col))
		}
	default:
		col := 0
		if e == boundary.East {
			col = z.NCols - 1
		}
		for row := 0; row < z.NRows; row++ {
			best = math.Max(best, z.At(row, col))
		}
	}
	return best
}
