package linsolve

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/james-bowman/sparse"
)

// Builder accumulates matrix entries in dictionary-of-keys form.
type Builder struct {
	n   int
	dok *sparse.DOK
}

func NewBuilder(n int) *Builder {
	return &Builder{n: n, dok: sparse.NewDOK(n, n)}
}

// Add sums v into (i, j).
func (b *Builder) Add(i, j int, v float64) {
	if v == 0 {
		return
	}
	b.dok.Set(i, j, b.dok.At(i, j)+v)
}

func (b *Builder) Set(i, j int, v float64) {
	b.dok.Set(i, j, v)
}

func (b *Builder) At(i, j int) float64 {
	return b.dok.At(i, j)
}

// Build converts the entries to compressed sparse rows.
func (b *Builder) Build() *Matrix {
	csr := b.dok.ToCSR()
	m := &Matrix{n: b.n, csr: csr, indptr: make([]int, b.n+1)}

	csr.DoNonZero(func(i, j int, v float64) {
		m.indptr[i+1]++
	})
	for i := 0; i < b.n; i++ {
		m.indptr[i+1] += m.indptr[i]
	}
	nnz := m.indptr[b.n]
	m.ind = make([]int, nnz)
	m.data = make([]float64, nnz)
	next := make([]int, b.n)
	copy(next, m.indptr[:b.n])
	csr.DoNonZero(func(i, j int, v float64) {
		k := next[i]
		m.ind[k] = j
		m.data[k] = v
		next[i]++
	})
	return m
}

// Matrix is a square CSR matrix with row arrays unpacked for fast products.
type Matrix struct {
	n      int
	csr    *sparse.CSR
	indptr []int
	ind    []int
	data   []float64
}

func (m *Matrix) Dims() (int, int) {
	return m.n, m.n
}

func (m *Matrix) NNZ() int {
	return len(m.data)
}

func (m *Matrix) At(i, j int) float64 {
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		if m.ind[k] == j {
			return m.data[k]
		}
	}
	return 0
}

// MulVecTo sets dst = A x.
func (m *Matrix) MulVecTo(dst, x []float64) {
	for i := 0; i < m.n; i++ {
		sum := 0.0
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum += m.data[k] * x[m.ind[k]]
		}
		dst[i] = sum
	}
}

func (m *Matrix) Diagonal() []float64 {
	d := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		d[i] = m.At(i, i)
	}
	return d
}

// CSR exposes the underlying sparse matrix.
func (m *Matrix) CSR() *sparse.CSR {
	return m.csr
}

// Dump writes a dense view of a small system for debugging.
func Dump(w io.Writer, A *Matrix, b []float64) error {
	if A.n > 100 {
		_, err := fmt.Fprintf(w, "linsolve: system of %d unknowns (%d non-zeros) too large to dump\n", A.n, A.NNZ())
		return err
	}
	dense := make([][]float64, A.n)
	for i := range dense {
		dense[i] = make([]float64, A.n)
		for k := A.indptr[i]; k < A.indptr[i+1]; k++ {
			dense[i][A.ind[k]] = A.data[k]
		}
	}
	spew.Fdump(w, struct {
		Matrix [][]float64
		Vector []float64
	}{dense, b})
	return nil
}
