package linsolve

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// poisson builds the 1D matrix tridiag(-a, 1+2a, -a).
func poisson(n int, a float64) *Builder {
	b := NewBuilder(n)
	for i := 0; i < n; i++ {
		b.Add(i, i, 1+2*a)
		if i > 0 {
			b.Add(i, i-1, -a)
		}
		if i < n-1 {
			b.Add(i, i+1, -a)
		}
	}
	return b
}

func denseOf(b *Builder, n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, b.At(i, j))
		}
	}
	return d
}

func TestBuilderAccumulates(t *testing.T) {
	b := NewBuilder(3)
	b.Add(0, 0, 1)
	b.Add(0, 0, 2)
	b.Add(1, 2, -1)
	b.Add(2, 1, 0)
	A := b.Build()

	assert.Equal(t, 3.0, A.At(0, 0))
	assert.Equal(t, -1.0, A.At(1, 2))
	assert.Equal(t, 0.0, A.At(2, 1))
	assert.Equal(t, 2, A.NNZ())
	assert.Equal(t, []float64{3, 0, 0}, A.Diagonal())

	dst := make([]float64, 3)
	A.MulVecTo(dst, []float64{1, 2, 3})
	assert.Equal(t, []float64{3, -3, 0}, dst)
}

func TestBiCGSTABMatchesDenseSolve(t *testing.T) {
	cases := []struct {
		name string
		n    int
		skew float64
	}{
		{"symmetric", 40, 0},
		{"nonsymmetric", 25, 0.3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := poisson(c.n, 2)
			for i := 0; i < c.n-1; i++ {
				b.Add(i, i+1, c.skew)
			}
			rhs := make([]float64, c.n)
			for i := range rhs {
				rhs[i] = float64(i%7) - 2.5
			}

			x, res, err := BiCGSTAB(b.Build(), rhs, nil, Options{Tolerance: 1e-10, MaxIterations: 500})
			require.NoError(t, err)
			assert.True(t, res.Converged)

			var want mat.VecDense
			require.NoError(t, want.SolveVec(denseOf(b, c.n), mat.NewVecDense(c.n, rhs)))
			for i := range x {
				assert.InDelta(t, want.AtVec(i), x[i], 1e-7)
			}
		})
	}
}

func TestBiCGSTABZeroRHS(t *testing.T) {
	x, res, err := BiCGSTAB(poisson(5, 1).Build(), make([]float64, 5), []float64{1, 1, 1, 1, 1}, Options{})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, make([]float64, 5), x)
}

func TestBiCGSTABReportsIterationCap(t *testing.T) {
	n := 60
	rhs := make([]float64, n)
	rhs[n/2] = 1
	_, res, err := BiCGSTAB(poisson(n, 50).Build(), rhs, nil, Options{Tolerance: 1e-12, MaxIterations: 2})
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
}

func TestBiCGSTABDimensionMismatch(t *testing.T) {
	_, _, err := BiCGSTAB(poisson(3, 1).Build(), []float64{1, 2}, nil, Options{})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, poisson(2, 1).Build(), []float64{1, 2}))
	assert.Contains(t, buf.String(), "Matrix")
	assert.Contains(t, buf.String(), "Vector")
}
