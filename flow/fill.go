package flow

import (
	"container/heap"
	"math"

	"github.com/ob6160/Landscape/boundary"
	"github.com/ob6160/Landscape/core"
)

const DefaultMinSlope = 0.00001

type cell struct {
	node  int
	z     float64
	order int
}

type cellQueue []cell

func (q cellQueue) Len() int { return len(q) }
func (q cellQueue) Less(i, j int) bool {
	if q[i].z == q[j].z {
		return q[i].order < q[j].order
	}
	return q[i].z < q[j].z
}
func (q cellQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x interface{}) { *q = append(*q, x.(cell)) }
func (q *cellQueue) Pop() interface{} {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

// Fill removes depressions with a priority flood so that every cell drains
// to an outlet with at least minSlope. Outlets are base-level cells, or the
// non-periodic edges when there are none, or the lowest cell as a last
// resort. The input is not modified.
func Fill(r *core.Raster, m boundary.Model, minSlope float64) *core.Raster {
	out := r.Copy()
	n := out.Len()
	visited := make([]bool, n)
	queue := &cellQueue{}
	order := 0

	push := func(node int) {
		visited[node] = true
		heap.Push(queue, cell{node: node, z: out.Data[node], order: order})
		order++
	}

	for row := 0; row < out.NRows; row++ {
		for col := 0; col < out.NCols; col++ {
			if !out.IsNoData(row, col) && m.IsBaseLevel(row, col) {
				push(out.Index(row, col))
			}
		}
	}
	if queue.Len() == 0 {
		for row := 0; row < out.NRows; row++ {
			for col := 0; col < out.NCols; col++ {
				onNS := (row == 0 || row == out.NRows-1) && !m.PeriodicNS()
				onEW := (col == 0 || col == out.NCols-1) && !m.PeriodicEW()
				if (onNS || onEW) && !out.IsNoData(row, col) {
					push(out.Index(row, col))
				}
			}
		}
	}
	if queue.Len() == 0 {
		lowest, lowestZ := -1, math.Inf(1)
		for i, z := range out.Data {
			if z != out.NoDataValue && z < lowestZ {
				lowest, lowestZ = i, z
			}
		}
		if lowest < 0 {
			return out
		}
		push(lowest)
	}

	dx := out.DataResolution
	for queue.Len() > 0 {
		c := heap.Pop(queue).(cell)
		row, col := c.node/out.NCols, c.node%out.NCols
		for _, d := range d8 {
			rr, cc, ok := m.Neighbour(row, col, d[0], d[1])
			if !ok || out.IsNoData(rr, cc) {
				continue
			}
			nb := out.Index(rr, cc)
			if visited[nb] {
				continue
			}
			dist := dx
			if d[0] != 0 && d[1] != 0 {
				dist = dx * math.Sqrt2
			}
			if floor := out.Data[c.node] + minSlope*dist; out.Data[nb] <= floor {
				out.Data[nb] = floor
			}
			push(nb)
		}
	}
	return out
}
