// Package worldmap describes the static battlefield: the terrain tile grid,
// its obstacles, and each team's scripted starting layout. The simulation
// derives its navigation grid and round setup from this description.
package worldmap

import (
	"gridwar/server/internal/defs"
	"gridwar/server/internal/geom"
	"gridwar/server/internal/nav"
	"gridwar/server/internal/placement"
)

// Battlefield is one map definition. Tiles are indexed [row][col] with
// terrain-type indices from the catalog.
type Battlefield struct {
	Name      string
	TileCols  int
	TileRows  int
	TileSize  float64
	Tiles     [][]uint8
	Obstacles []nav.Obstacle
	Starts    []placement.TeamStart
	// ResourceNodes are claimable fixtures placed before the round starts.
	ResourceNodes []geom.Vec2

	catalog *defs.Catalog
}

// BakeInput derives the navigation bake description. Terrain is sampled per
// tile; ramps come from the catalog's terrain flags.
func (b *Battlefield) BakeInput() nav.BakeInput {
	return nav.BakeInput{
		TileCols:  b.TileCols,
		TileRows:  b.TileRows,
		TileSize:  b.TileSize,
		TerrainAt: b.terrainAt,
		RampAt:    b.rampAt,
		Obstacles: b.Obstacles,
	}
}

func (b *Battlefield) tileAt(x, z float64) uint8 {
	col := int(x / b.TileSize)
	row := int(z / b.TileSize)
	if row < 0 || row >= len(b.Tiles) {
		return 0
	}
	line := b.Tiles[row]
	if col < 0 || col >= len(line) {
		return 0
	}
	return line[col]
}

func (b *Battlefield) terrainAt(x, z float64) uint8 {
	return b.tileAt(x, z)
}

func (b *Battlefield) rampAt(x, z float64) bool {
	def, ok := b.catalog.Terrain(b.tileAt(x, z))
	return ok && def.Ramp
}

// Default builds the stock 16x16 battlefield: grass flanks split by a water
// river with a single ramp ford, a gold node near each base, and mirrored
// starting layouts for two teams.
func Default(catalog *defs.Catalog) *Battlefield {
	const (
		cols = 16
		rows = 16
		size = 2.0
	)
	tiles := make([][]uint8, rows)
	for row := range tiles {
		line := make([]uint8, cols)
		for col := range line {
			line[col] = defs.TerrainGrass
		}
		// River across the middle two tile columns, fordable at the center.
		line[7] = defs.TerrainWater
		line[8] = defs.TerrainWater
		if row == 7 || row == 8 {
			line[7] = defs.TerrainRamp
			line[8] = defs.TerrainRamp
		}
		tiles[row] = line
	}

	starts := []placement.TeamStart{
		{
			Team:     0,
			PlayerID: 0,
			Units: []placement.StartingSpawn{
				{Collection: defs.CollectionUnits, TypeIndex: defs.UnitSwordsman,
					GridPosition: geom.Cell{X: 4, Z: 12}, Origin: geom.Vec2{X: 5, Z: 13}},
				{Collection: defs.CollectionUnits, TypeIndex: defs.UnitBuilder,
					GridPosition: geom.Cell{X: 6, Z: 10}, Origin: geom.Vec2{X: 6.5, Z: 10.5}},
			},
			Buildings: []placement.StartingSpawn{
				{Collection: defs.CollectionBuildings, TypeIndex: defs.BuildingGoldMine,
					GridPosition: geom.Cell{X: 3, Z: 16}, Origin: geom.Vec2{X: 4, Z: 17}},
			},
		},
		{
			Team:     1,
			PlayerID: 1,
			Units: []placement.StartingSpawn{
				{Collection: defs.CollectionUnits, TypeIndex: defs.UnitSwordsman,
					GridPosition: geom.Cell{X: 26, Z: 18}, Origin: geom.Vec2{X: 27, Z: 19}},
				{Collection: defs.CollectionUnits, TypeIndex: defs.UnitBuilder,
					GridPosition: geom.Cell{X: 24, Z: 20}, Origin: geom.Vec2{X: 24.5, Z: 20.5}},
			},
			Buildings: []placement.StartingSpawn{
				{Collection: defs.CollectionBuildings, TypeIndex: defs.BuildingGoldMine,
					GridPosition: geom.Cell{X: 27, Z: 14}, Origin: geom.Vec2{X: 28, Z: 15}},
			},
		},
	}

	return &Battlefield{
		Name:     "river_crossing",
		TileCols: cols,
		TileRows: rows,
		TileSize: size,
		Tiles:    tiles,
		Starts:   starts,
		ResourceNodes: []geom.Vec2{
			{X: 4.5, Z: 17.5},
			{X: 27.5, Z: 14.5},
		},
		catalog: catalog,
	}
}
