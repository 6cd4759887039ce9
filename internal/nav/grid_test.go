package nav

import (
	"testing"

	"gridwar/server/internal/geom"
)

// testTerrain blocks the listed terrain-type indices.
type testTerrain struct {
	blocked map[uint8]bool
	ramp    map[uint8]bool
}

func (t testTerrain) TerrainWalkable(index uint8) bool {
	return !t.blocked[index]
}

const blockedTerrain = 1

// wallGrid bakes a 4x4 cell grid (2x2 tiles, tile size 2) with terrain index
// 1 under the cells selected by wallAt.
func wallGrid(t *testing.T, wallAt func(col, row int) bool) *Grid {
	t.Helper()
	terrain := testTerrain{blocked: map[uint8]bool{blockedTerrain: true}}
	input := BakeInput{
		TileCols: 2,
		TileRows: 2,
		TileSize: 2,
		TerrainAt: func(x, z float64) uint8 {
			if wallAt(int(x), int(z)) {
				return blockedTerrain
			}
			return 0
		},
	}
	return bakeGrid(input, terrain)
}

func TestBakeDimensions(t *testing.T) {
	g := wallGrid(t, func(col, row int) bool { return false })
	if g.Cols() != 4 || g.Rows() != 4 {
		t.Fatalf("expected 4x4 cells, got %dx%d", g.Cols(), g.Rows())
	}
	if g.CellSize() != 1 {
		t.Fatalf("expected cell size 1, got %v", g.CellSize())
	}
}

func TestBakeClampsSentinelTerrain(t *testing.T) {
	terrain := testTerrain{}
	input := BakeInput{
		TileCols:  1,
		TileRows:  1,
		TileSize:  2,
		TerrainAt: func(x, z float64) uint8 { return BlockedCell },
	}
	g := bakeGrid(input, terrain)
	for _, value := range g.DebugCells() {
		if value == BlockedCell {
			t.Fatalf("terrain value must never alias the blocked sentinel")
		}
	}
}

func TestObstacleStampsBlockedCells(t *testing.T) {
	terrain := testTerrain{}
	input := BakeInput{
		TileCols:  2,
		TileRows:  2,
		TileSize:  2,
		TerrainAt: func(x, z float64) uint8 { return 0 },
		Obstacles: []Obstacle{{Tile: geom.Cell{X: 0, Z: 0}, Size: 1, Impassable: true}},
	}
	g := bakeGrid(input, terrain)
	// The obstacle tile covers the 2x2 nav-cell block at the origin.
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			if g.cellWalkable(col, row) {
				t.Fatalf("cell (%d,%d) under obstacle should be blocked", col, row)
			}
		}
	}
	if !g.cellWalkable(2, 2) {
		t.Fatalf("cell outside obstacle footprint should stay walkable")
	}
}

func TestPathRoutesAroundWall(t *testing.T) {
	// Row 2 is a wall except the rightmost column.
	g := wallGrid(t, func(col, row int) bool { return row == 2 && col < 3 })

	start := geom.Vec2{X: 0.5, Z: 0.5}
	target := geom.Vec2{X: 0.5, Z: 3.5}
	path := g.findPath(start, target, 6)
	if path == nil {
		t.Fatalf("expected a path around the wall")
	}
	last := path[len(path)-1]
	if last != target {
		t.Fatalf("exact path must end at the requested target, got %+v", last)
	}
	// Every waypoint in the wall band must sit in the gap column.
	for _, wp := range path {
		if wp.Z >= 2 && wp.Z < 3 && wp.X < 3 {
			t.Fatalf("path crossed the wall at %+v", wp)
		}
	}
	if g.lineOfSight(start, target) {
		t.Fatalf("direct walkable check must fail across the wall")
	}
}

func TestUnreachableTargetYieldsClosestPath(t *testing.T) {
	// Row 2 is a solid wall: the far side is unreachable.
	g := wallGrid(t, func(col, row int) bool { return row == 2 })

	start := geom.Vec2{X: 0.5, Z: 0.5}
	target := geom.Vec2{X: 0.5, Z: 3.5}
	path := g.findPath(start, target, 6)
	if path == nil {
		t.Fatalf("unreachable target must still yield the closest reachable path")
	}
	last := path[len(path)-1]
	if last == target {
		t.Fatalf("closest-path fallback must not claim to reach the target")
	}
	if last.Z >= 2 {
		t.Fatalf("fallback endpoint crossed the wall: %+v", last)
	}
}

func TestUnusableStartReturnsNil(t *testing.T) {
	g := wallGrid(t, func(col, row int) bool { return row == 0 })
	if path := g.findPath(geom.Vec2{X: 0.5, Z: 0.5}, geom.Vec2{X: 3.5, Z: 3.5}, 6); path != nil {
		t.Fatalf("blocked start must return nil, got %v", path)
	}
	if path := g.findPath(geom.Vec2{X: -5, Z: -5}, geom.Vec2{X: 0.5, Z: 3.5}, 6); path != nil {
		t.Fatalf("out-of-bounds start must return nil, got %v", path)
	}
}

func TestDiagonalCornerCutRejected(t *testing.T) {
	// Blocked cells at (1,0) and (0,1) flank the diagonal from (0,0) to (1,1).
	g := wallGrid(t, func(col, row int) bool {
		return (col == 1 && row == 0) || (col == 0 && row == 1)
	})
	delta := neighbor{dx: 1, dz: 1, diagonal: true}
	if g.canTraverseDiagonal(0, 0, delta) {
		t.Fatalf("diagonal through two blocked flanks must be rejected")
	}

	// Opening one flank is enough to fail the other side check too: corner
	// cutting requires BOTH orthogonal steps to be legal.
	g = wallGrid(t, func(col, row int) bool { return col == 1 && row == 0 })
	if g.canTraverseDiagonal(0, 0, delta) {
		t.Fatalf("diagonal with one blocked flank must be rejected")
	}

	g = wallGrid(t, func(col, row int) bool { return false })
	if !g.canTraverseDiagonal(0, 0, delta) {
		t.Fatalf("open diagonal should be allowed")
	}
}

func TestSmoothingCollapsesStraightRuns(t *testing.T) {
	g := wallGrid(t, func(col, row int) bool { return false })
	path := g.findPath(geom.Vec2{X: 0.5, Z: 0.5}, geom.Vec2{X: 3.5, Z: 0.5}, 6)
	if path == nil {
		t.Fatalf("expected a path on the open grid")
	}
	if len(path) > 2 {
		t.Fatalf("straight run should smooth to two waypoints, got %d: %v", len(path), path)
	}
}

func TestSmoothingWindowBoundsLookahead(t *testing.T) {
	g := wallGrid(t, func(col, row int) bool { return false })
	raw := []geom.Vec2{
		{X: 0.5, Z: 0.5}, {X: 1.5, Z: 0.5}, {X: 2.5, Z: 0.5}, {X: 3.5, Z: 0.5},
	}
	smoothed := g.smooth(raw, 2)
	// Window 2 can skip at most one intermediate waypoint per step.
	if len(smoothed) != 3 {
		t.Fatalf("window 2 should produce 3 waypoints, got %d: %v", len(smoothed), smoothed)
	}
	if smoothed[0] != raw[0] || smoothed[len(smoothed)-1] != raw[len(raw)-1] {
		t.Fatalf("smoothing must preserve endpoints: %v", smoothed)
	}
}

func TestRampConnectsHeightLevels(t *testing.T) {
	// Two tiles side by side at different height levels, ramp on the seam.
	terrain := testTerrain{}
	input := BakeInput{
		TileCols:  2,
		TileRows:  1,
		TileSize:  2,
		TerrainAt: func(x, z float64) uint8 { return 0 },
		HeightAt: func(x, z float64) uint8 {
			if x >= 2 {
				return 1
			}
			return 0
		},
		RampAt: func(x, z float64) bool {
			return x >= 1.5 && x < 2.5
		},
	}
	g := bakeGrid(input, terrain)
	if !g.canStep(1, 0, 2, 0) {
		t.Fatalf("cross-level step over a ramp must be allowed")
	}

	// Without the ramp the same step is illegal.
	input.RampAt = nil
	g = bakeGrid(input, terrain)
	if g.canStep(1, 0, 2, 0) {
		t.Fatalf("cross-level step without a ramp must be rejected")
	}
	if !g.canStep(0, 0, 1, 0) {
		t.Fatalf("same-level step must be allowed")
	}
}
