package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Hillshade returns illumination in [0, 255] for a sun at the given altitude
// and azimuth (degrees, azimuth clockwise from north).
func Hillshade(r *Raster, altitude, azimuth, zFactor float64) *Raster {
	mesh := NewMesh(r.NRows, r.NCols)
	mesh.Construct(r, zFactor)

	alt := mgl64.DegToRad(altitude)
	az := mgl64.DegToRad(azimuth)
	sun := mgl64.Vec3{
		math.Sin(az) * math.Cos(alt),
		math.Cos(az) * math.Cos(alt),
		math.Sin(alt),
	}

	out := NewRasterLike(r)
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			if !mesh.Valid(row, col) {
				out.Set(row, col, r.NoDataValue)
				continue
			}
			shade := mesh.Normals[row*r.NCols+col].Dot(sun)
			out.Set(row, col, 255*math.Max(0, shade))
		}
	}
	return out
}

// Slope returns the gradient magnitude of every cell.
func Slope(r *Raster) *Raster {
	mesh := NewMesh(r.NRows, r.NCols)
	mesh.Construct(r, 1)

	out := NewRasterLike(r)
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			if !mesh.Valid(row, col) {
				out.Set(row, col, r.NoDataValue)
				continue
			}
			out.Set(row, col, mesh.SlopeAt(row, col))
		}
	}
	return out
}
