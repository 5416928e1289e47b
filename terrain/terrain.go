package terrain

import (
	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/generators"
)

// LayerData holds the fields the model evolves.
type LayerData struct {
	Elevation *core.Raster
	Root      *core.Raster
	ZetaOld   *core.Raster
}

func newLayerData(surface *core.Raster) *LayerData {
	return &LayerData{
		Elevation: surface.Copy(),
		Root:      core.NewRasterLike(surface),
		ZetaOld:   surface.Copy(),
	}
}

// Terrain keeps the pristine initial surface next to the working layers so
// a run can be restarted.
type Terrain struct {
	initial *LayerData
	swap    *LayerData
	Model   boundary.Model
	Uplift  *core.Raster
}

func NewTerrain(surface *core.Raster, m boundary.Model) *Terrain {
	t := &Terrain{
		initial: newLayerData(surface),
		Model:   m,
		Uplift:  core.NewRasterLike(surface),
	}
	t.Reset()
	return t
}

// FromGenerator generates a surface and wraps it.
func FromGenerator(g generators.TerrainGenerator, m boundary.Model) *Terrain {
	g.Generate()
	return NewTerrain(g.Raster(), m)
}

// Reset discards all evolution since the initial surface.
func (t *Terrain) Reset() {
	t.swap = newLayerData(t.initial.Elevation)
}

// Restore replaces the working surface, keeping the root.
func (t *Terrain) Restore(r *core.Raster) error {
	if err := t.swap.Elevation.CopyFrom(r); err != nil {
		return err
	}
	return t.swap.ZetaOld.CopyFrom(r)
}

// Snapshot records the current surface as the start of a timestep.
func (t *Terrain) Snapshot() {
	copy(t.swap.ZetaOld.Data, t.swap.Elevation.Data)
}

func (t *Terrain) Elevation() *core.Raster {
	return t.swap.Elevation
}

func (t *Terrain) Root() *core.Raster {
	return t.swap.Root
}

func (t *Terrain) ZetaOld() *core.Raster {
	return t.swap.ZetaOld
}

func (t *Terrain) Initial() *core.Raster {
	return t.initial.Elevation
}
