// Package nav bakes a navigable grid from terrain and static obstacles and
// answers path queries deterministically: identical inputs yield identical
// paths on every peer, so nothing here may depend on map iteration order or
// wall-clock time.
package nav

import (
	"math"

	"gridwar/server/internal/geom"
)

const (
	// BlockedCell marks a nav cell made impassable by a world object.
	// Terrain-type indices occupy 0-254.
	BlockedCell = 255

	// CellsPerTile is the nav-grid resolution relative to the terrain tile
	// grid: every terrain tile covers a CellsPerTile x CellsPerTile block of
	// nav cells.
	CellsPerTile = 2
)

// TerrainClassifier reports whether a terrain-type index is walkable.
// Backed by the static terrain definitions.
type TerrainClassifier interface {
	TerrainWalkable(index uint8) bool
}

// Obstacle is a static world object considered during the bake. Dynamic
// blockers are handled outside the navmesh.
type Obstacle struct {
	Tile       geom.Cell
	Size       int
	Impassable bool
}

// BakeInput describes the world the grid is derived from. TerrainAt samples
// the terrain-type index at a world position; HeightAt and RampAt are
// optional and enable the height-level transition rule.
type BakeInput struct {
	TileCols  int
	TileRows  int
	TileSize  float64
	TerrainAt func(x, z float64) uint8
	HeightAt  func(x, z float64) uint8
	RampAt    func(x, z float64) bool
	Obstacles []Obstacle
}

type neighbor struct {
	dx       int
	dz       int
	cost     float64
	diagonal bool
}

var neighborOffsets = [...]neighbor{
	{dx: 0, dz: -1, cost: 1, diagonal: false},
	{dx: 1, dz: 0, cost: 1, diagonal: false},
	{dx: 0, dz: 1, cost: 1, diagonal: false},
	{dx: -1, dz: 0, cost: 1, diagonal: false},
	{dx: 1, dz: -1, cost: math.Sqrt2, diagonal: true},
	{dx: 1, dz: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dz: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dz: -1, cost: math.Sqrt2, diagonal: true},
}

// Grid is the baked navigation surface. Cell values are fixed after a bake;
// gameplay never mutates them.
type Grid struct {
	cols     int
	rows     int
	cellSize float64
	cells    []uint8
	heights  []uint8 // nil when the world has no height map
	ramps    []bool
	terrain  TerrainClassifier
}

// bakeGrid samples the terrain at every nav-cell center and then stamps the
// impassable sentinel under every static obstacle. Baking twice from the
// same input produces the same grid.
func bakeGrid(input BakeInput, terrain TerrainClassifier) *Grid {
	cols := input.TileCols * CellsPerTile
	rows := input.TileRows * CellsPerTile
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	cellSize := input.TileSize / CellsPerTile
	if cellSize <= 0 {
		cellSize = 1
	}
	g := &Grid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		cells:    make([]uint8, cols*rows),
		ramps:    make([]bool, cols*rows),
		terrain:  terrain,
	}
	if input.HeightAt != nil {
		g.heights = make([]uint8, cols*rows)
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cx := (float64(col) + 0.5) * cellSize
			cz := (float64(row) + 0.5) * cellSize
			idx := g.index(col, row)
			if input.TerrainAt != nil {
				value := input.TerrainAt(cx, cz)
				if value == BlockedCell {
					value = BlockedCell - 1
				}
				g.cells[idx] = value
			}
			if g.heights != nil {
				g.heights[idx] = input.HeightAt(cx, cz)
			}
			if input.RampAt != nil {
				g.ramps[idx] = input.RampAt(cx, cz)
			}
		}
	}
	for _, obstacle := range input.Obstacles {
		if !obstacle.Impassable || obstacle.Size == 0 {
			continue
		}
		baseCol := obstacle.Tile.X * CellsPerTile
		baseRow := obstacle.Tile.Z * CellsPerTile
		for dz := 0; dz < CellsPerTile; dz++ {
			for dx := 0; dx < CellsPerTile; dx++ {
				if g.inBounds(baseCol+dx, baseRow+dz) {
					g.cells[g.index(baseCol+dx, baseRow+dz)] = BlockedCell
				}
			}
		}
	}
	return g
}

func (g *Grid) Cols() int { return g.cols }

func (g *Grid) Rows() int { return g.rows }

func (g *Grid) CellSize() float64 { return g.cellSize }

func (g *Grid) inBounds(col, row int) bool {
	return g != nil && col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *Grid) index(col, row int) int {
	return row*g.cols + col
}

func (g *Grid) worldPos(col, row int) geom.Vec2 {
	return geom.Vec2{
		X: (float64(col) + 0.5) * g.cellSize,
		Z: (float64(row) + 0.5) * g.cellSize,
	}
}

func (g *Grid) locate(pos geom.Vec2) (int, int, bool) {
	if g == nil || g.cols == 0 || g.rows == 0 {
		return 0, 0, false
	}
	col := int(math.Floor(pos.X / g.cellSize))
	row := int(math.Floor(pos.Z / g.cellSize))
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	return col, row, true
}

// cellWalkable reports whether the cell itself can be stood on: not the
// blocked sentinel, and either walkable terrain or a ramp cell.
func (g *Grid) cellWalkable(col, row int) bool {
	if !g.inBounds(col, row) {
		return false
	}
	idx := g.index(col, row)
	value := g.cells[idx]
	if value == BlockedCell {
		return false
	}
	if g.ramps[idx] {
		return true
	}
	if g.terrain == nil {
		return true
	}
	return g.terrain.TerrainWalkable(value)
}

// canStep applies the full transition rule between two adjacent cells.
// With a height map, same-level movement is always allowed and cross-level
// movement requires a ramp on either side. Without one, movement falls back
// to mutual walkability or a connecting ramp.
func (g *Grid) canStep(fromCol, fromRow, toCol, toRow int) bool {
	if !g.cellWalkable(toCol, toRow) {
		return false
	}
	fromIdx := g.index(fromCol, fromRow)
	toIdx := g.index(toCol, toRow)
	if g.heights != nil {
		if g.heights[fromIdx] == g.heights[toIdx] {
			return true
		}
		return g.ramps[fromIdx] || g.ramps[toIdx]
	}
	if g.cellWalkable(fromCol, fromRow) {
		return true
	}
	return g.ramps[fromIdx] || g.ramps[toIdx]
}

// canTraverseDiagonal rejects corner cutting: a diagonal step requires both
// flanking orthogonal cells to pass the transition rule too.
func (g *Grid) canTraverseDiagonal(col, row int, delta neighbor) bool {
	if !delta.diagonal {
		return true
	}
	if !g.canStep(col, row, col+delta.dx, row) {
		return false
	}
	return g.canStep(col, row, col, row+delta.dz)
}

// lineOfSight samples the segment at half-cell steps and requires every
// visited cell transition to be legal. Used by smoothing and by the direct
// walkability predicate.
func (g *Grid) lineOfSight(from, to geom.Vec2) bool {
	if g == nil {
		return false
	}
	fromCol, fromRow, ok := g.locate(from)
	if !ok {
		return false
	}
	toCol, toRow, ok := g.locate(to)
	if !ok {
		return false
	}
	if !g.cellWalkable(fromCol, fromRow) || !g.cellWalkable(toCol, toRow) {
		return false
	}
	dist := geom.Dist(from, to)
	step := g.cellSize / 2
	if dist <= step {
		return g.canStep(fromCol, fromRow, toCol, toRow) || (fromCol == toCol && fromRow == toRow)
	}
	steps := int(math.Ceil(dist / step))
	prevCol, prevRow := fromCol, fromRow
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		sample := geom.Vec2{X: from.X + (to.X-from.X)*t, Z: from.Z + (to.Z-from.Z)*t}
		col, row, ok := g.locate(sample)
		if !ok {
			return false
		}
		if col == prevCol && row == prevRow {
			continue
		}
		if col != prevCol && row != prevRow {
			// Diagonal crossing between samples; both corners must be open.
			if !g.canStep(prevCol, prevRow, col, prevRow) || !g.canStep(prevCol, prevRow, prevCol, row) {
				return false
			}
		}
		if !g.canStep(prevCol, prevRow, col, row) {
			return false
		}
		prevCol, prevRow = col, row
	}
	return true
}

// DebugCells returns a copy of the baked cell values, row-major. Exposed
// behind the debug HTTP endpoint.
func (g *Grid) DebugCells() []uint8 {
	if g == nil {
		return nil
	}
	return append([]uint8(nil), g.cells...)
}
