package generators

import (
	"math/rand"
	"testing"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidpointDisplacement(t *testing.T) {
	m := NewMidPointDisplacement(20, 13, 5, rand.New(rand.NewSource(7)))
	m.Relief = 40
	assert.Nil(t, m.Raster())
	m.Generate()

	r := m.Raster()
	require.NotNil(t, r)
	rows, cols := m.Dimensions()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 13, cols)
	assert.Equal(t, 20, r.NRows)
	assert.Equal(t, 13, r.NCols)
	assert.Equal(t, 5.0, r.DataResolution)
	for _, v := range r.Data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 40.0)
	}
	assert.Greater(t, r.MaxElevation()-r.MinElevation(), 0.0)
}

func TestMidpointDisplacementReproducible(t *testing.T) {
	a := NewMidPointDisplacement(9, 9, 1, rand.New(rand.NewSource(3)))
	b := NewMidPointDisplacement(9, 9, 1, rand.New(rand.NewSource(3)))
	a.Generate()
	b.Generate()
	assert.Equal(t, a.Raster().Data, b.Raster().Data)
}

func TestNoiseSkipsBaseLevel(t *testing.T) {
	m := boundary.NewModel(boundary.MustParse("bpbp"), 6, 5)
	n := NewNoise(m, 1, 0.1, rand.New(rand.NewSource(1)))
	var g TerrainGenerator = n
	g.Generate()
	r := g.Raster()
	for row := 0; row < 6; row++ {
		for col := 0; col < 5; col++ {
			v := r.At(row, col)
			if row == 0 || row == 5 {
				assert.Equal(t, 0.0, v)
				continue
			}
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 0.1)
		}
	}
}

func TestParabolic(t *testing.T) {
	m := boundary.NewModel(boundary.MustParse("bpbp"), 11, 4)
	p := NewParabolic(m, 1, 50, 0, rand.New(rand.NewSource(1)))
	p.Generate()
	r := p.Raster()
	assert.Equal(t, 0.0, r.At(0, 2))
	assert.Equal(t, 0.0, r.At(10, 2))
	assert.InDelta(t, 50, r.At(5, 0), 1e-12)
	assert.InDelta(t, r.At(3, 1), r.At(7, 1), 1e-12)
	assert.Less(t, r.At(2, 1), r.At(4, 1))
}

func TestLoadedCopiesSource(t *testing.T) {
	src := core.Filled(core.NewRaster(3, 4, 2), 5)
	l := NewLoaded(src)
	rows, cols := l.Dimensions()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	l.Generate()
	l.Raster().Set(1, 1, 0)
	assert.Equal(t, 5.0, src.At(1, 1))
}

func TestFilledRemovesPit(t *testing.T) {
	m := boundary.NewModel(boundary.MustParse("bnbn"), 5, 3)
	src := core.Filled(core.NewRaster(5, 3, 1), 4)
	for col := 0; col < 3; col++ {
		src.Set(0, col, 0)
		src.Set(4, col, 0)
	}
	src.Set(2, 1, 1)
	f := NewFilled(NewLoaded(src), m, 1e-5)
	f.Generate()
	assert.Greater(t, f.Raster().At(2, 1), 1.0)
}
