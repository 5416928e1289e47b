package boundary

import (
	"testing"

	"github.com/ob6160/Landscape/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(nrows, ncols int) *core.Raster {
	r := core.NewRaster(nrows, ncols, 1)
	for i := range r.Data {
		r.Data[i] = float64(i + 1)
	}
	return r
}

func TestParse(t *testing.T) {
	c, err := Parse("bpbp")
	require.NoError(t, err)
	assert.Equal(t, BaseLevel, c.Classify(North))
	assert.Equal(t, Periodic, c.Classify(East))
	assert.Equal(t, BaseLevel, c.Classify(South))
	assert.Equal(t, Periodic, c.Classify(West))
	assert.Equal(t, "bpbp", c.String())

	c, err = Parse("BNBN")
	require.NoError(t, err)
	assert.Equal(t, NoFlux, c.Classify(East))

	for _, bad := range []string{"", "bpb", "bpbpb", "bxbp"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformedCode, bad)
	}
}

func TestIsBaseLevel(t *testing.T) {
	m := NewModel(MustParse("bnbn"), 4, 5)
	assert.True(t, m.IsBaseLevel(0, 2))
	assert.True(t, m.IsBaseLevel(3, 0))
	assert.False(t, m.IsBaseLevel(1, 0))
	assert.False(t, m.IsBaseLevel(2, 4))

	m = NewModel(MustParse("nbnb"), 4, 5)
	assert.True(t, m.IsBaseLevel(2, 0))
	assert.True(t, m.IsBaseLevel(2, 4))
	assert.False(t, m.IsBaseLevel(0, 2))
}

func TestValidateWarnsOnPeriodicMismatch(t *testing.T) {
	m := NewModel(MustParse("bpbn"), 3, 3)
	warnings := m.Validate()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "periodic")
	assert.True(t, m.PeriodicEW())

	assert.Empty(t, NewModel(MustParse("bpbp"), 3, 3).Validate())
	assert.Len(t, NewModel(MustParse("nnnn"), 3, 3).Validate(), 1)
}

func TestBufferShapeAndPeriodicWrap(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {3, 4}, {6, 2}} {
		nr, nc := size[0], size[1]
		r := numbered(nr, nc)
		m := NewModel(MustParse("bpbp"), nr, nc)
		buff, err := m.Buffer(r, Fixed{North: -1, South: -2})
		require.NoError(t, err)
		assert.Equal(t, nr+2, buff.NRows)
		assert.Equal(t, nc+2, buff.NCols)
		for row := 0; row < nr; row++ {
			assert.Equal(t, r.At(row, nc-1), buff.At(row+1, 0))
			assert.Equal(t, r.At(row, 0), buff.At(row+1, nc+1))
		}
		for col := 0; col < nc; col++ {
			assert.Equal(t, -1.0, buff.At(0, col+1))
			assert.Equal(t, -2.0, buff.At(nr+1, col+1))
		}
		assert.Equal(t, r.At(0, 0), buff.At(0, 0))
		assert.Equal(t, r.At(nr-1, nc-1), buff.At(nr+1, nc+1))
	}
}

func TestBufferNoFluxCopiesEdges(t *testing.T) {
	r := numbered(3, 3)
	m := NewModel(MustParse("nnnn"), 3, 3)
	buff, err := m.Buffer(r, Fixed{})
	require.NoError(t, err)
	for col := 0; col < 3; col++ {
		assert.Equal(t, r.At(0, col), buff.At(0, col+1))
		assert.Equal(t, r.At(2, col), buff.At(4, col+1))
	}
	for row := 0; row < 3; row++ {
		assert.Equal(t, r.At(row, 0), buff.At(row+1, 0))
		assert.Equal(t, r.At(row, 2), buff.At(row+1, 4))
	}
	assert.Equal(t, r.XMinimum-1, buff.XMinimum)
}

func TestBufferDimensionMismatch(t *testing.T) {
	m := NewModel(MustParse("bpbp"), 3, 3)
	_, err := m.Buffer(numbered(2, 3), Fixed{})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestNeighbour(t *testing.T) {
	m := NewModel(MustParse("bpbp"), 4, 5)
	r, c, ok := m.Neighbour(1, 0, 0, -1)
	assert.True(t, ok)
	assert.Equal(t, [2]int{1, 4}, [2]int{r, c})

	_, _, ok = m.Neighbour(0, 2, -1, 0)
	assert.False(t, ok)

	r, c, ok = m.Neighbour(3, 4, 0, 1)
	assert.True(t, ok)
	assert.Equal(t, [2]int{3, 0}, [2]int{r, c})
}

func TestRequireNSBaseEWPeriodic(t *testing.T) {
	assert.NoError(t, NewModel(MustParse("bpbp"), 3, 3).RequireNSBaseEWPeriodic())
	assert.ErrorIs(t, NewModel(MustParse("bnbn"), 3, 3).RequireNSBaseEWPeriodic(), ErrUnsupportedBoundary)
	assert.ErrorIs(t, NewModel(MustParse("pbpb"), 3, 3).RequireNSBaseEWPeriodic(), ErrUnsupportedBoundary)
}
