package isostasy

import (
	"fmt"
	"math"

	"github.com/ob6160/Landscape/core"
)

const (
	RhoCrust  = 2650.0 // kg/m^3
	RhoMantle = 3300.0 // kg/m^3
	Gravity   = 9.81
)

// Airy moves each cell to local isostatic equilibrium. The load z + root is
// conserved exactly.
func Airy(z, root *core.Raster) error {
	if err := z.SameShape(root); err != nil {
		return err
	}
	zetaRoot := (RhoMantle - RhoCrust) / RhoCrust
	for i := range z.Data {
		if z.Data[i] == z.NoDataValue {
			continue
		}
		load := z.Data[i] + root.Data[i]
		root.Data[i] = load / (1 + zetaRoot)
		z.Data[i] = load - root.Data[i]
	}
	return nil
}

func checkRoot(z, root *core.Raster) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", core.ErrDimensionMismatch)
	}
	return z.SameShape(root)
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
