package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh holds a unit surface normal for every cell of a raster. Axes are
// x east, y north, z up.
type Mesh struct {
	rows, cols int
	Normals    []mgl64.Vec3
	valid      []bool
}

func NewMesh(rows int, cols int) *Mesh {
	return &Mesh{
		rows:    rows,
		cols:    cols,
		Normals: make([]mgl64.Vec3, rows*cols),
		valid:   make([]bool, rows*cols),
	}
}

// Construct computes normals from central differences, one-sided at the
// edges and next to no-data cells. zFactor scales elevations.
func (m *Mesh) Construct(r *Raster, zFactor float64) {
	var h = r.DataResolution
	sample := func(row, col, fallbackRow, fallbackCol int) (float64, bool) {
		if !r.InBounds(row, col) || r.IsNoData(row, col) {
			return r.At(fallbackRow, fallbackCol) * zFactor, false
		}
		return r.At(row, col) * zFactor, true
	}

	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			i := row*m.cols + col
			if r.IsNoData(row, col) {
				m.valid[i] = false
				m.Normals[i] = mgl64.Vec3{0, 0, 1}
				continue
			}
			m.valid[i] = true

			east, okE := sample(row, col+1, row, col)
			west, okW := sample(row, col-1, row, col)
			north, okN := sample(row-1, col, row, col)
			south, okS := sample(row+1, col, row, col)

			spanX := h * float64(boolInt(okE)+boolInt(okW))
			spanY := h * float64(boolInt(okN)+boolInt(okS))
			if spanX == 0 {
				spanX = h
			}
			if spanY == 0 {
				spanY = h
			}

			dxv := mgl64.Vec3{spanX, 0, east - west}
			dyv := mgl64.Vec3{0, spanY, north - south}
			m.Normals[i] = dxv.Cross(dyv).Normalize()
		}
	}
}

func (m *Mesh) Valid(row, col int) bool {
	return m.valid[row*m.cols+col]
}

// SlopeAt returns the tangent of the surface inclination.
func (m *Mesh) SlopeAt(row, col int) float64 {
	n := m.Normals[row*m.cols+col]
	return math.Hypot(n.X(), n.Y()) / n.Z()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
