package geom

import "math"

// Vec2 is a world-space position on the ground plane.
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Cell addresses one tile of an integer grid.
type Cell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func Dist(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}

func DistSq(a, b Vec2) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	return dx*dx + dz*dz
}

func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
