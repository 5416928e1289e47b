package utils

import "math/rand"

// Point addresses a grid cell. X is the row, Y the column.
type Point struct {
	X, Y int
}

func (p Point) ToIndex(width int) int {
	return p.X*width + p.Y
}

func Midpoint(p1, p2 int) int {
	return (p2 + p1) / 2
}

func Average(nums ...float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	var total = 0.0
	for _, num := range nums {
		total += num
	}
	return total / float64(len(nums))
}

// Jitter shifts value by a uniform amount in [-scale, scale).
func Jitter(value, scale float64, rng *rand.Rand) float64 {
	random := rng.Float64() * scale * 2
	shift := scale - random
	return shift + value
}

// Wrap maps i onto [0, n) treating the range as periodic.
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
