// Package defs holds the static game-object definitions consumed by the
// simulation. Entities reference a definition by (collection, type index)
// so network payloads carry compact integers rather than names.
package defs

import (
	"sort"

	"gridwar/server/internal/geom"
)

// Collection indices. Fixed: they are part of the wire format.
const (
	CollectionUnits     = 0
	CollectionBuildings = 1
)

var collectionNames = map[string]int{
	"units":     CollectionUnits,
	"buildings": CollectionBuildings,
}

// UnitDefinition describes one spawnable unit or building type.
type UnitDefinition struct {
	Collection        int
	TypeIndex         int
	Name              string
	MaxHealth         float64
	MoveSpeed         float64
	GoldCost          int
	BuildTime         float64
	AnimationDuration float64
	IsBuilding        bool
	IsResource        bool
	// ProductionInterval/ProductionAmount drive resource buildings: every
	// interval of simulated seconds the owning player earns the amount.
	ProductionInterval float64
	ProductionAmount   int
	// SlotOffsets are the squad members' world offsets from the placement
	// origin; one entity spawns per slot.
	SlotOffsets []geom.Vec2
	// Footprint lists the grid cells a placement occupies, relative to the
	// placement's grid position.
	Footprint []geom.Cell
}

// TerrainDefinition describes one terrain-type index on the nav grid.
type TerrainDefinition struct {
	Index    uint8
	Name     string
	Walkable bool
	Ramp     bool
}

// UpgradeDefinition describes one purchasable upgrade. Bit is the position
// in the per-player upgrade bitmask.
type UpgradeDefinition struct {
	ID       int
	Bit      uint
	Name     string
	GoldCost int
}

// Catalog resolves definitions and symbolic names to numeric indices.
type Catalog struct {
	units       map[int]map[int]UnitDefinition
	unitNames   map[string]UnitDefinition
	terrain     map[uint8]TerrainDefinition
	terrainName map[string]uint8
	upgrades    map[int]UpgradeDefinition
}

func NewCatalog(units []UnitDefinition, terrain []TerrainDefinition, upgrades []UpgradeDefinition) *Catalog {
	c := &Catalog{
		units:       make(map[int]map[int]UnitDefinition),
		unitNames:   make(map[string]UnitDefinition),
		terrain:     make(map[uint8]TerrainDefinition),
		terrainName: make(map[string]uint8),
		upgrades:    make(map[int]UpgradeDefinition),
	}
	for _, def := range units {
		byType, ok := c.units[def.Collection]
		if !ok {
			byType = make(map[int]UnitDefinition)
			c.units[def.Collection] = byType
		}
		byType[def.TypeIndex] = def
		c.unitNames[def.Name] = def
	}
	for _, def := range terrain {
		c.terrain[def.Index] = def
		c.terrainName[def.Name] = def.Index
	}
	for _, def := range upgrades {
		c.upgrades[def.ID] = def
	}
	return c
}

// Unit resolves a (collection, type index) pair.
func (c *Catalog) Unit(collection, typeIndex int) (UnitDefinition, bool) {
	byType, ok := c.units[collection]
	if !ok {
		return UnitDefinition{}, false
	}
	def, ok := byType[typeIndex]
	return def, ok
}

// UnitByName resolves a symbolic unit name.
func (c *Catalog) UnitByName(name string) (UnitDefinition, bool) {
	def, ok := c.unitNames[name]
	return def, ok
}

// CollectionIndex resolves a symbolic collection name.
func (c *Catalog) CollectionIndex(name string) (int, bool) {
	idx, ok := collectionNames[name]
	return idx, ok
}

// CollectionName resolves a collection index back to its symbolic name.
func (c *Catalog) CollectionName(index int) (string, bool) {
	for name, idx := range collectionNames {
		if idx == index {
			return name, true
		}
	}
	return "", false
}

// TerrainWalkable implements nav.TerrainClassifier. Unknown indices default
// to walkable; only an explicit definition can mark terrain non-walkable.
func (c *Catalog) TerrainWalkable(index uint8) bool {
	def, ok := c.terrain[index]
	if !ok {
		return true
	}
	return def.Walkable
}

// TerrainIndex resolves a symbolic terrain name.
func (c *Catalog) TerrainIndex(name string) (uint8, bool) {
	idx, ok := c.terrainName[name]
	return idx, ok
}

// Terrain resolves a terrain-type index.
func (c *Catalog) Terrain(index uint8) (TerrainDefinition, bool) {
	def, ok := c.terrain[index]
	return def, ok
}

// Upgrade resolves an upgrade identifier.
func (c *Catalog) Upgrade(id int) (UpgradeDefinition, bool) {
	def, ok := c.upgrades[id]
	return def, ok
}

// Upgrades lists every upgrade in ascending ID order.
func (c *Catalog) Upgrades() []UpgradeDefinition {
	out := make([]UpgradeDefinition, 0, len(c.upgrades))
	for _, def := range c.upgrades {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
