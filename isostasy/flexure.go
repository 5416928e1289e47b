package isostasy

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
	"github.com/ob6160/Landscape/utils"
)

const (
	DefaultRelaxTolerance = 0.0001
	DefaultRelaxMaxIter   = 200
)

// Flexure supports the surface on a thin elastic plate of the given flexural
// rigidity (N m).
type Flexure struct {
	Rigidity  float64
	Tolerance float64
	MaxIter   int
}

func NewFlexure(rigidity float64) *Flexure {
	return &Flexure{Rigidity: rigidity, Tolerance: DefaultRelaxTolerance, MaxIter: DefaultRelaxMaxIter}
}

// Result reports the relaxation loop.
type Result struct {
	Iterations int
	MaxChange  float64
	Converged  bool
}

// coefficient is the spectral response of the plate at wavenumber k in
// cycles per cell. The mean (k = 0) carries no root.
func (f *Flexure) coefficient(k float64) float64 {
	if k == 0 {
		return 0
	}
	drho := RhoMantle - RhoCrust
	pk4 := math.Pow(math.Pi*k, 4)
	return (RhoCrust / drho) / (1 + 4*(4*f.Rigidity/(math.Sqrt(drho*Gravity)*pk4)))
}

// frequency maps FFT bin i of n to a signed frequency in cycles per cell.
func frequency(i, n int) float64 {
	if i > n/2 {
		i -= n
	}
	return float64(i) / float64(n)
}

// Root computes the flexural root of z. The surface is detrended, padded to
// powers of two and filtered in the frequency domain; the trend is added back
// and base-level edges carry no root.
func (f *Flexure) Root(z *core.Raster, m boundary.Model) (*core.Raster, error) {
	residual, trend, err := core.Detrend(z)
	if err != nil {
		return nil, err
	}
	ly, lx := utils.NextPow2(z.NRows), utils.NextPow2(z.NCols)
	padded := make([][]float64, ly)
	for i := range padded {
		padded[i] = make([]float64, lx)
		if i < z.NRows {
			for j := 0; j < z.NCols; j++ {
				if !z.IsNoData(i, j) {
					padded[i][j] = residual.At(i, j)
				}
			}
		}
	}

	spectrum := fft.FFT2Real(padded)
	for i := range spectrum {
		ki := frequency(i, ly)
		for j := range spectrum[i] {
			kj := frequency(j, lx)
			c := f.coefficient(math.Hypot(ki, kj))
			spectrum[i][j] *= complex(c, 0)
		}
	}
	filtered := fft.IFFT2(spectrum)

	root := core.NewRasterLike(z)
	for i := 0; i < z.NRows; i++ {
		for j := 0; j < z.NCols; j++ {
			switch {
			case z.IsNoData(i, j):
				root.Set(i, j, z.NoDataValue)
			case m.IsBaseLevel(i, j):
				root.Set(i, j, 0)
			default:
				root.Set(i, j, real(filtered[i][j])+trend.At(i, j))
			}
		}
	}
	return root, nil
}

// Relaxed iterates towards flexural equilibrium, moving the surface and the
// root by alpha times the change in root each pass. It stops when the largest
// change falls below Tolerance or after MaxIter passes.
func (f *Flexure) Relaxed(z, root *core.Raster, m boundary.Model, alpha float64) (Result, error) {
	if err := checkRoot(z, root); err != nil {
		return Result{}, err
	}
	var res Result
	for res.Iterations < f.MaxIter {
		change, err := f.update(z, root, m, alpha)
		if err != nil {
			return res, err
		}
		res.Iterations++
		res.MaxChange = change
		if change <= f.Tolerance {
			res.Converged = true
			break
		}
	}
	return res, nil
}

// Alt applies a single unrelaxed update.
func (f *Flexure) Alt(z, root *core.Raster, m boundary.Model) error {
	if err := checkRoot(z, root); err != nil {
		return err
	}
	_, err := f.update(z, root, m, 1)
	return err
}

func (f *Flexure) update(z, root *core.Raster, m boundary.Model, alpha float64) (float64, error) {
	next, err := f.Root(z, m)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, len(z.Data))
	for i := range z.Data {
		if z.Data[i] == z.NoDataValue {
			continue
		}
		diff[i] = next.Data[i] - root.Data[i]
		z.Data[i] -= alpha * diff[i]
		root.Data[i] += alpha * diff[i]
	}
	return maxAbs(diff), nil
}
