// Package placement turns validated placement requests into live entities
// and tracks squad membership through the component store. The store is the
// single source of truth: there is no shadow membership table to drift out
// of sync.
package placement

import (
	"context"
	"strconv"

	"gridwar/server/internal/defs"
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
	"gridwar/server/internal/grid"
	"gridwar/server/logging"
	placementlog "gridwar/server/logging/placement"
)

// Reserved placement identifier sentinels.
const (
	PlacementIDUnset   int64 = 0
	PlacementIDInvalid int64 = -1
)

// Rejection reasons returned as structured failures.
const (
	ReasonUnknownUnitType  = "unknown_unit_type"
	ReasonInvalidSquad     = "invalid_squad_configuration"
	ReasonGridUnavailable  = "grid_position_unavailable"
	ReasonEntityIDConflict = "entity_id_conflict"
)

// Manager owns the authoritative placement counter and the squad spawn
// path. On the server it allocates identifiers; on the client it adopts the
// server's values and only mirrors the counter through SyncNextPlacementID.
type Manager struct {
	store     *ecs.Store
	occupancy *grid.Occupancy
	catalog   *defs.Catalog
	pub       logging.Publisher

	nextPlacementID int64
}

func NewManager(store *ecs.Store, occupancy *grid.Occupancy, catalog *defs.Catalog, pub logging.Publisher) *Manager {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Manager{
		store:           store,
		occupancy:       occupancy,
		catalog:         catalog,
		pub:             pub,
		nextPlacementID: 1,
	}
}

// NextPlacementID allocates the next identifier. Strictly increasing.
func (m *Manager) NextPlacementID() int64 {
	id := m.nextPlacementID
	m.nextPlacementID++
	return id
}

// PeekNextPlacementID reports the next identifier without allocating it.
func (m *Manager) PeekNextPlacementID() int64 {
	return m.nextPlacementID
}

// SyncNextPlacementID raises the counter floor to the server's value.
// Lowering is ignored so a late sync can never cause identifier reuse.
func (m *Manager) SyncNextPlacementID(next int64, tick uint64) {
	if next > m.nextPlacementID {
		m.nextPlacementID = next
		placementlog.CounterSynced(context.Background(), m.pub, tick, placementlog.CounterSyncedPayload{Next: next})
	}
}

// SpawnRequest describes one placement. PlacementID and ServerEntityIDs are
// zero on the server (it allocates) and carry the server's authoritative
// values when the client replays the spawn.
type SpawnRequest struct {
	Collection          int
	TypeIndex           int
	GridPosition        geom.Cell
	Origin              geom.Vec2
	Team                int
	PlayerID            int
	PlacementID         int64
	ServerEntityIDs     []ecs.EntityID
	IsUnderConstruction bool
	AssignedBuilder     ecs.EntityID
	BuildTime           float64
}

// SpawnResult is the structured outcome; validation failures populate
// Reason instead of panicking.
type SpawnResult struct {
	Success     bool
	Reason      string
	PlacementID int64
	EntityIDs   []ecs.EntityID
}

func failure(reason string) SpawnResult {
	return SpawnResult{Success: false, Reason: reason, PlacementID: PlacementIDInvalid}
}

// SpawnSquad creates one entity per squad slot, reserves the footprint
// cells, and for resource buildings claims the nearest unclaimed resource
// node. No state mutates until every validation has passed.
func (m *Manager) SpawnSquad(req SpawnRequest, tick uint64) SpawnResult {
	def, ok := m.catalog.Unit(req.Collection, req.TypeIndex)
	if !ok {
		m.rejected(req, ReasonUnknownUnitType, tick)
		return failure(ReasonUnknownUnitType)
	}
	if len(def.SlotOffsets) == 0 {
		m.rejected(req, ReasonInvalidSquad, tick)
		return failure(ReasonInvalidSquad)
	}
	if len(req.ServerEntityIDs) > 0 && len(req.ServerEntityIDs) != len(def.SlotOffsets) {
		m.rejected(req, ReasonInvalidSquad, tick)
		return failure(ReasonInvalidSquad)
	}

	placementID := req.PlacementID
	if placementID <= PlacementIDUnset {
		placementID = m.NextPlacementID()
	} else if placementID >= m.nextPlacementID {
		m.nextPlacementID = placementID + 1
	}

	cells := make([]geom.Cell, 0, len(def.Footprint))
	for _, offset := range def.Footprint {
		cells = append(cells, geom.Cell{X: req.GridPosition.X + offset.X, Z: req.GridPosition.Z + offset.Z})
	}
	if err := m.occupancy.Reserve(cells, placementID); err != nil {
		m.rejected(req, ReasonGridUnavailable, tick)
		return failure(ReasonGridUnavailable)
	}

	entityIDs := make([]ecs.EntityID, 0, len(def.SlotOffsets))
	for slot := range def.SlotOffsets {
		var id ecs.EntityID
		if len(req.ServerEntityIDs) > 0 {
			id = req.ServerEntityIDs[slot]
			if err := m.store.CreateEntityWithID(id); err != nil {
				m.rollback(placementID, entityIDs)
				m.rejected(req, ReasonEntityIDConflict, tick)
				return failure(ReasonEntityIDConflict)
			}
		} else {
			id = m.store.CreateEntity()
		}
		entityIDs = append(entityIDs, id)
	}

	for slot, id := range entityIDs {
		offset := def.SlotOffsets[slot]
		position := geom.Vec2{X: req.Origin.X + offset.X, Z: req.Origin.Z + offset.Z}
		m.store.AddComponent(id, ecs.CompPlacement, &ecs.Placement{
			PlacementID:         placementID,
			Team:                req.Team,
			PlayerID:            req.PlayerID,
			GridPosition:        req.GridPosition,
			TargetPosition:      position,
			IsUnderConstruction: req.IsUnderConstruction,
			AssignedBuilder:     req.AssignedBuilder,
			BuildTime:           req.BuildTime,
			Cells:               append([]geom.Cell(nil), cells...),
		})
		m.store.AddComponent(id, ecs.CompTransform, &ecs.Transform{Position: position})
		m.store.AddComponent(id, ecs.CompHealth, &ecs.Health{Current: def.MaxHealth, Max: def.MaxHealth})
		m.store.AddComponent(id, ecs.CompTeam, &ecs.Team{ID: req.Team})
		m.store.AddComponent(id, ecs.CompUnitType, &ecs.UnitType{Collection: req.Collection, TypeIndex: req.TypeIndex})
		if def.IsBuilding {
			m.store.AddComponent(id, ecs.CompBuildingState, &ecs.BuildingState{})
		} else {
			m.store.AddComponent(id, ecs.CompVelocity, &ecs.Velocity{})
		}
	}

	if def.IsResource {
		m.bindNearestResource(entityIDs[0], req.Origin, placementID, tick)
	}

	placementlog.SquadSpawned(context.Background(), m.pub, tick,
		logging.EntityRef{ID: strconv.FormatInt(placementID, 10), Kind: logging.EntityKindPlacement},
		placementlog.SquadSpawnedPayload{
			PlacementID: placementID,
			UnitTypeID:  req.TypeIndex,
			Collection:  req.Collection,
			Team:        req.Team,
			EntityIDs:   entityIDsToInt64(entityIDs),
		})

	return SpawnResult{Success: true, PlacementID: placementID, EntityIDs: entityIDs}
}

func (m *Manager) rollback(placementID int64, created []ecs.EntityID) {
	for _, id := range created {
		m.store.DestroyEntity(id)
	}
	m.occupancy.Release(placementID)
}

func (m *Manager) rejected(req SpawnRequest, reason string, tick uint64) {
	placementlog.SpawnRejected(context.Background(), m.pub, tick,
		logging.EntityRef{ID: strconv.Itoa(req.PlayerID), Kind: logging.EntityKindPlayer},
		placementlog.SpawnRejectedPayload{
			UnitTypeID: req.TypeIndex,
			Collection: req.Collection,
			Reason:     reason,
		})
}

// bindNearestResource claims the closest unclaimed resource node for a
// resource building. Candidates iterate in ascending entity order and the
// comparison is a strict less-than, so equidistant nodes resolve to the
// lower entity identifier on every peer.
func (m *Manager) bindNearestResource(building ecs.EntityID, origin geom.Vec2, placementID int64, tick uint64) {
	var bestNode ecs.EntityID
	bestDist := 0.0
	found := false
	for _, nodeID := range m.store.EntitiesWith(ecs.CompResourceNode, ecs.CompTransform) {
		nodeAny, _ := m.store.GetComponent(nodeID, ecs.CompResourceNode)
		node := nodeAny.(*ecs.ResourceNode)
		if node.ClaimedBy != 0 {
			continue
		}
		transformAny, _ := m.store.GetComponent(nodeID, ecs.CompTransform)
		dist := geom.DistSq(origin, transformAny.(*ecs.Transform).Position)
		if !found || dist < bestDist {
			found = true
			bestDist = dist
			bestNode = nodeID
		}
	}
	if !found {
		return
	}
	nodeAny, _ := m.store.GetComponent(bestNode, ecs.CompResourceNode)
	nodeAny.(*ecs.ResourceNode).ClaimedBy = building
	stateAny, ok := m.store.GetComponent(building, ecs.CompBuildingState)
	if ok {
		state := stateAny.(*ecs.BuildingState)
		state.ResourceNode = bestNode
		state.Producing = true
	}
	placementlog.ResourceBound(context.Background(), m.pub, tick,
		logging.EntityRef{ID: strconv.FormatInt(int64(building), 10), Kind: logging.EntityKindBuilding},
		placementlog.ResourceBoundPayload{PlacementID: placementID, NodeID: int64(bestNode)})
}

// SquadUnits returns exactly the entities whose placement component matches
// the identifier, in ascending entity order.
func (m *Manager) SquadUnits(placementID int64) []ecs.EntityID {
	units := make([]ecs.EntityID, 0)
	for _, id := range m.store.EntitiesWith(ecs.CompPlacement) {
		data, _ := m.store.GetComponent(id, ecs.CompPlacement)
		if data.(*ecs.Placement).PlacementID == placementID {
			units = append(units, id)
		}
	}
	return units
}

// PlacementByID returns the placement record shared by the squad, read from
// its lowest-numbered member.
func (m *Manager) PlacementByID(placementID int64) (*ecs.Placement, []ecs.EntityID, bool) {
	units := m.SquadUnits(placementID)
	if len(units) == 0 {
		return nil, nil, false
	}
	data, _ := m.store.GetComponent(units[0], ecs.CompPlacement)
	return data.(*ecs.Placement), units, true
}

// DestroySquad removes every member entity and frees the footprint cells.
// Cells release before the entities die so a replacement spawn on the same
// tick never sees a transient double-reservation, and any resource node the
// squad had claimed is unclaimed so a later building can bind it.
func (m *Manager) DestroySquad(placementID int64) int {
	m.occupancy.Release(placementID)
	units := m.SquadUnits(placementID)
	for _, id := range units {
		m.releaseResourceClaim(id)
		m.store.DestroyEntity(id)
	}
	return len(units)
}

// releaseResourceClaim frees the node a dying resource building holds.
func (m *Manager) releaseResourceClaim(building ecs.EntityID) {
	stateAny, ok := m.store.GetComponent(building, ecs.CompBuildingState)
	if !ok {
		return
	}
	state := stateAny.(*ecs.BuildingState)
	if state.ResourceNode == 0 {
		return
	}
	if nodeAny, ok := m.store.GetComponent(state.ResourceNode, ecs.CompResourceNode); ok {
		node := nodeAny.(*ecs.ResourceNode)
		if node.ClaimedBy == building {
			node.ClaimedBy = 0
		}
	}
	state.ResourceNode = 0
	state.Producing = false
}

func entityIDsToInt64(ids []ecs.EntityID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
