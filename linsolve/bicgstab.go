package linsolve

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

type Options struct {
	Tolerance     float64 // relative to |b|
	MaxIterations int
}

type Result struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// BiCGSTAB solves A x = b with a Jacobi preconditioner, starting from x0 (or
// zero when x0 is nil). Hitting the iteration cap is reported through
// Result.Converged; the last iterate is still returned.
func BiCGSTAB(A *Matrix, b, x0 []float64, opts Options) ([]float64, Result, error) {
	n, _ := A.Dims()
	if len(b) != n || (x0 != nil && len(x0) != n) {
		return nil, Result{}, fmt.Errorf("%w: matrix %d, rhs %d", ErrDimension, n, len(b))
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 200
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}

	x := make([]float64, n)
	if x0 != nil {
		copy(x, x0)
	}

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		return x, Result{Converged: true}, nil
	}

	invDiag := A.Diagonal()
	for i, d := range invDiag {
		if d == 0 {
			invDiag[i] = 1
		} else {
			invDiag[i] = 1 / d
		}
	}

	r := make([]float64, n)
	A.MulVecTo(r, x)
	floats.SubTo(r, b, r)
	rhat := make([]float64, n)
	copy(rhat, r)

	res := floats.Norm(r, 2) / bnorm
	if res <= opts.Tolerance {
		return x, Result{Residual: res, Converged: true}, nil
	}

	p := make([]float64, n)
	v := make([]float64, n)
	y := make([]float64, n)
	s := make([]float64, n)
	z := make([]float64, n)
	t := make([]float64, n)

	rho, alpha, omega := 1.0, 1.0, 1.0
	for it := 1; it <= opts.MaxIterations; it++ {
		rhoNew := floats.Dot(rhat, r)
		if rhoNew == 0 {
			return x, Result{Iterations: it, Residual: res}, ErrBreakdown
		}
		beta := (rhoNew / rho) * (alpha / omega)
		// p = r + beta (p - omega v)
		floats.AddScaled(p, -omega, v)
		floats.Scale(beta, p)
		floats.Add(p, r)

		floats.MulTo(y, invDiag, p)
		A.MulVecTo(v, y)
		denom := floats.Dot(rhat, v)
		if denom == 0 {
			return x, Result{Iterations: it, Residual: res}, ErrBreakdown
		}
		alpha = rhoNew / denom

		floats.AddScaledTo(s, r, -alpha, v)
		floats.AddScaled(x, alpha, y)
		if res = floats.Norm(s, 2) / bnorm; res <= opts.Tolerance {
			return x, Result{Iterations: it, Residual: res, Converged: true}, nil
		}

		floats.MulTo(z, invDiag, s)
		A.MulVecTo(t, z)
		tt := floats.Dot(t, t)
		if tt == 0 {
			return x, Result{Iterations: it, Residual: res}, ErrBreakdown
		}
		omega = floats.Dot(t, s) / tt
		floats.AddScaled(x, omega, z)
		floats.AddScaledTo(r, s, -omega, t)

		if res = floats.Norm(r, 2) / bnorm; res <= opts.Tolerance {
			return x, Result{Iterations: it, Residual: res, Converged: true}, nil
		}
		if omega == 0 {
			return x, Result{Iterations: it, Residual: res}, ErrBreakdown
		}
		rho = rhoNew
	}
	return x, Result{Iterations: opts.MaxIterations, Residual: res}, nil
}
