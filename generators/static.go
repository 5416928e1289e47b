package generators

import (
	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/flow"
)

// Loaded serves a surface read from disk.
type Loaded struct {
	source *core.Raster
	raster *core.Raster
}

func NewLoaded(r *core.Raster) *Loaded {
	return &Loaded{source: r}
}

func (l *Loaded) Generate() {
	l.raster = l.source.Copy()
}

func (l *Loaded) Raster() *core.Raster {
	return l.raster
}

func (l *Loaded) Dimensions() (int, int) {
	return l.source.NRows, l.source.NCols
}

// Filled removes the pits of another generator's surface so every cell
// drains to base level.
type Filled struct {
	TerrainGenerator
	Model    boundary.Model
	MinSlope float64
	raster   *core.Raster
}

func NewFilled(g TerrainGenerator, m boundary.Model, minSlope float64) *Filled {
	return &Filled{TerrainGenerator: g, Model: m, MinSlope: minSlope}
}

func (f *Filled) Generate() {
	f.TerrainGenerator.Generate()
	f.raster = flow.Fill(f.TerrainGenerator.Raster(), f.Model, f.MinSlope)
}

func (f *Filled) Raster() *core.Raster {
	return f.raster
}
