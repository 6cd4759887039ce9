package defs

import "gridwar/server/internal/geom"

// Unit type indices within CollectionUnits.
const (
	UnitSwordsman = 0
	UnitArcher    = 1
	UnitKnight    = 2
	UnitBuilder   = 3
)

// Building type indices within CollectionBuildings.
const (
	BuildingBarracks = 0
	BuildingGoldMine = 1
	BuildingTower    = 2
)

// Terrain-type indices.
const (
	TerrainGrass = 0
	TerrainSand  = 1
	TerrainWater = 2
	TerrainCliff = 3
	TerrainRamp  = 4
)

// Upgrade identifiers; the bit positions double as the bitmask layout.
const (
	UpgradeSharpBlades  = 0
	UpgradeHardenedMail = 1
	UpgradeLongbows     = 2
	UpgradeMasonry      = 3
)

// DefaultCatalog builds the stock definition set used by the server and by
// tests. Clients receive indices only; this table is compiled in on both
// peers.
func DefaultCatalog() *Catalog {
	units := []UnitDefinition{
		{
			Collection: CollectionUnits, TypeIndex: UnitSwordsman, Name: "swordsman",
			MaxHealth: 100, MoveSpeed: 2.4, GoldCost: 80, AnimationDuration: 0.6,
			SlotOffsets: []geom.Vec2{{X: -0.5, Z: 0}, {X: 0.5, Z: 0}, {X: -0.5, Z: 1}, {X: 0.5, Z: 1}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}, {X: 1, Z: 0}},
		},
		{
			Collection: CollectionUnits, TypeIndex: UnitArcher, Name: "archer",
			MaxHealth: 60, MoveSpeed: 2.6, GoldCost: 90, AnimationDuration: 0.5,
			SlotOffsets: []geom.Vec2{{X: -0.5, Z: 0}, {X: 0.5, Z: 0}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}},
		},
		{
			Collection: CollectionUnits, TypeIndex: UnitKnight, Name: "knight",
			MaxHealth: 180, MoveSpeed: 3.2, GoldCost: 160, AnimationDuration: 0.8,
			SlotOffsets: []geom.Vec2{{X: 0, Z: 0}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}},
		},
		{
			Collection: CollectionUnits, TypeIndex: UnitBuilder, Name: "builder",
			MaxHealth: 40, MoveSpeed: 2.2, GoldCost: 50, AnimationDuration: 0.4,
			SlotOffsets: []geom.Vec2{{X: 0, Z: 0}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}},
		},
	}
	buildings := []UnitDefinition{
		{
			Collection: CollectionBuildings, TypeIndex: BuildingBarracks, Name: "barracks",
			MaxHealth: 400, GoldCost: 200, BuildTime: 12, IsBuilding: true,
			SlotOffsets: []geom.Vec2{{X: 0, Z: 0}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}, {X: 1, Z: 1}},
		},
		{
			Collection: CollectionBuildings, TypeIndex: BuildingGoldMine, Name: "gold_mine",
			MaxHealth: 300, GoldCost: 150, BuildTime: 10, IsBuilding: true, IsResource: true,
			ProductionInterval: 2, ProductionAmount: 10,
			SlotOffsets: []geom.Vec2{{X: 0, Z: 0}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}, {X: 1, Z: 0}},
		},
		{
			Collection: CollectionBuildings, TypeIndex: BuildingTower, Name: "tower",
			MaxHealth: 500, GoldCost: 300, BuildTime: 16, IsBuilding: true,
			SlotOffsets: []geom.Vec2{{X: 0, Z: 0}},
			Footprint:   []geom.Cell{{X: 0, Z: 0}},
		},
	}
	terrain := []TerrainDefinition{
		{Index: TerrainGrass, Name: "grass", Walkable: true},
		{Index: TerrainSand, Name: "sand", Walkable: true},
		{Index: TerrainWater, Name: "water", Walkable: false},
		{Index: TerrainCliff, Name: "cliff", Walkable: false},
		{Index: TerrainRamp, Name: "ramp", Walkable: true, Ramp: true},
	}
	upgrades := []UpgradeDefinition{
		{ID: UpgradeSharpBlades, Bit: 0, Name: "sharp_blades", GoldCost: 120},
		{ID: UpgradeHardenedMail, Bit: 1, Name: "hardened_mail", GoldCost: 150},
		{ID: UpgradeLongbows, Bit: 2, Name: "longbows", GoldCost: 140},
		{ID: UpgradeMasonry, Bit: 3, Name: "masonry", GoldCost: 180},
	}
	return NewCatalog(append(units, buildings...), terrain, upgrades)
}
