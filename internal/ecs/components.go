package ecs

import (
	"encoding/json"
	"fmt"

	"gridwar/server/internal/geom"
)

// Component names referenced by the simulation core.
const (
	CompPlacement     = "placement"
	CompTransform     = "transform"
	CompHealth        = "health"
	CompTeam          = "team"
	CompUnitType      = "unitType"
	CompBuildingState = "buildingState"
	CompVelocity      = "velocity"
	CompResourceNode  = "resourceNode"
)

// Placement records squad membership and build metadata for one entity.
type Placement struct {
	PlacementID         int64       `json:"placementId"`
	Team                int         `json:"team"`
	PlayerID            int         `json:"playerId"`
	GridPosition        geom.Cell   `json:"gridPosition"`
	TargetPosition      geom.Vec2   `json:"targetPosition"`
	IsUnderConstruction bool        `json:"isUnderConstruction"`
	AssignedBuilder     EntityID    `json:"assignedBuilder"`
	BuildTime           float64     `json:"buildTime"`
	ProductionProgress  float64     `json:"productionProgress"`
	Cells               []geom.Cell `json:"cells,omitempty"`
}

// Transform is the entity's world-space position and facing.
type Transform struct {
	Position geom.Vec2 `json:"position"`
	Rotation float64   `json:"rotation"`
}

type Health struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

type Team struct {
	ID int `json:"id"`
}

// UnitType references a static definition by compact indices. The full
// definition never crosses the network.
type UnitType struct {
	Collection int `json:"collection"`
	TypeIndex  int `json:"typeIndex"`
}

type BuildingState struct {
	ResourceNode EntityID `json:"resourceNode"`
	Producing    bool     `json:"producing"`
}

type Velocity struct {
	DX float64 `json:"dx"`
	DZ float64 `json:"dz"`
}

// ResourceNode marks a claimable resource location on the map.
type ResourceNode struct {
	ClaimedBy EntityID `json:"claimedBy"`
}

func decodeComponent(name string, raw json.RawMessage) (any, error) {
	var target any
	switch name {
	case CompPlacement:
		target = &Placement{}
	case CompTransform:
		target = &Transform{}
	case CompHealth:
		target = &Health{}
	case CompTeam:
		target = &Team{}
	case CompUnitType:
		target = &UnitType{}
	case CompBuildingState:
		target = &BuildingState{}
	case CompVelocity:
		target = &Velocity{}
	case CompResourceNode:
		target = &ResourceNode{}
	default:
		return nil, fmt.Errorf("unknown component %q", name)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, err
	}
	return target, nil
}
