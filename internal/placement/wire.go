package placement

import (
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
)

// WirePlacement is the transmitted layout of a placement record.
type WirePlacement struct {
	PlacementID         int64     `json:"placementId"`
	GridPosition        geom.Cell `json:"gridPosition"`
	UnitTypeID          int       `json:"unitTypeId"`
	Collection          int       `json:"collection"`
	Team                int       `json:"team"`
	PlayerID            int       `json:"playerId"`
	IsUnderConstruction bool      `json:"isUnderConstruction"`
	BuildTime           float64   `json:"buildTime"`
	AssignedBuilder     int64     `json:"assignedBuilder"`
}

// Serialize renders the wire layout for a placement.
func (m *Manager) Serialize(placementID int64) (WirePlacement, bool) {
	record, units, ok := m.PlacementByID(placementID)
	if !ok {
		return WirePlacement{}, false
	}
	unitTypeAny, _ := m.store.GetComponent(units[0], ecs.CompUnitType)
	unitType := unitTypeAny.(*ecs.UnitType)
	return WirePlacement{
		PlacementID:         record.PlacementID,
		GridPosition:        record.GridPosition,
		UnitTypeID:          unitType.TypeIndex,
		Collection:          unitType.Collection,
		Team:                record.Team,
		PlayerID:            record.PlayerID,
		IsUnderConstruction: record.IsUnderConstruction,
		BuildTime:           record.BuildTime,
		AssignedBuilder:     int64(record.AssignedBuilder),
	}, true
}
