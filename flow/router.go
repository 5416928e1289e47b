package flow

import (
	"math"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
)

// Flow length codes.
const (
	NoFlow   = 0
	Axis     = 1
	Diagonal = 2
)

var d8 = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// Info is the D8 routing of one surface.
type Info struct {
	NRows, NCols       int
	DataResolution     float64
	Stack              []int // receivers always precede their donors
	Receiver           []int
	LengthCode         []int
	ContributingPixels []int
	donors             [][]int
}

// Route computes steepest-descent receivers, the processing stack and
// contributing pixels. Base-level, no-data and pit cells receive from
// themselves with length code NoFlow.
func Route(r *core.Raster, m boundary.Model) *Info {
	n := r.Len()
	info := &Info{
		NRows:              r.NRows,
		NCols:              r.NCols,
		DataResolution:     r.DataResolution,
		Receiver:           make([]int, n),
		LengthCode:         make([]int, n),
		ContributingPixels: make([]int, n),
		donors:             make([][]int, n),
	}

	dx := r.DataResolution
	diag := dx * math.Sqrt2
	for row := 0; row < r.NRows; row++ {
		for col := 0; col < r.NCols; col++ {
			node := r.Index(row, col)
			info.Receiver[node] = node
			if r.IsNoData(row, col) || m.IsBaseLevel(row, col) {
				continue
			}
			z := r.At(row, col)
			best, bestCode, bestSlope := node, NoFlow, 0.0
			for _, d := range d8 {
				rr, cc, ok := m.Neighbour(row, col, d[0], d[1])
				if !ok || r.IsNoData(rr, cc) {
					continue
				}
				dist, code := dx, Axis
				if d[0] != 0 && d[1] != 0 {
					dist, code = diag, Diagonal
				}
				slope := (z - r.At(rr, cc)) / dist
				if slope > bestSlope {
					best, bestCode, bestSlope = r.Index(rr, cc), code, slope
				}
			}
			info.Receiver[node] = best
			info.LengthCode[node] = bestCode
		}
	}

	for node, rec := range info.Receiver {
		if rec != node {
			info.donors[rec] = append(info.donors[rec], node)
		}
	}

	info.Stack = make([]int, 0, n)
	var pending []int
	for node, rec := range info.Receiver {
		if rec != node || r.Data[node] == r.NoDataValue {
			continue
		}
		pending = append(pending[:0], node)
		for len(pending) > 0 {
			top := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			info.Stack = append(info.Stack, top)
			pending = append(pending, info.donors[top]...)
		}
	}

	for i := len(info.Stack) - 1; i >= 0; i-- {
		node := info.Stack[i]
		info.ContributingPixels[node]++
		if rec := info.Receiver[node]; rec != node {
			info.ContributingPixels[rec] += info.ContributingPixels[node]
		}
	}
	return info
}

func (f *Info) RowCol(node int) (int, int) {
	return node / f.NCols, node % f.NCols
}

func (f *Info) Node(row, col int) int {
	return row*f.NCols + col
}

// DrainageArea is the contributing area of node in map units squared.
func (f *Info) DrainageArea(node int) float64 {
	return float64(f.ContributingPixels[node]) * f.DataResolution * f.DataResolution
}

// FlowLength returns the distance to the receiver, or 0 if there is none.
func (f *Info) FlowLength(node int) float64 {
	switch f.LengthCode[node] {
	case Axis:
		return f.DataResolution
	case Diagonal:
		return f.DataResolution * math.Sqrt2
	}
	return 0
}

// DrainageAreaRaster maps DrainageArea onto a raster shaped like like.
func (f *Info) DrainageAreaRaster(like *core.Raster) *core.Raster {
	out := core.NewRasterLike(like)
	for i := range out.Data {
		if like.Data[i] == like.NoDataValue {
			out.Data[i] = like.NoDataValue
			continue
		}
		out.Data[i] = f.DrainageArea(i)
	}
	return out
}

// DrainageDensity is the fraction of data cells whose drainage area exceeds
// threshold.
func (f *Info) DrainageDensity(threshold float64) float64 {
	total, above := 0, 0
	for _, node := range f.Stack {
		total++
		if f.DrainageArea(node) > threshold {
			above++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(above) / float64(total)
}
