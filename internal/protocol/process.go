package protocol

import (
	"context"
	"strconv"

	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
	"gridwar/server/internal/nav"
	"gridwar/server/internal/placement"
	"gridwar/server/logging"
	battlelog "gridwar/server/logging/battle"
)

// PlacementArgs is the fixed parameter list of ProcessPlacement. The server
// leaves PlacementID and ServerEntityIDs zero; the client fills them from
// the server's confirmation.
type PlacementArgs struct {
	PlayerID        int       `json:"playerId"`
	Collection      int       `json:"collection"`
	TypeIndex       int       `json:"unitTypeId"`
	GridPosition    geom.Cell `json:"gridPosition"`
	Origin          geom.Vec2 `json:"origin"`
	PlacementID     int64     `json:"placementId,omitempty"`
	ServerEntityIDs []int64   `json:"entityIds,omitempty"`
}

// ProcessPlacement validates affordability, spawns the squad, and deducts
// gold. Gold moves only after every validation has passed, so a rejected
// request leaves the store untouched.
func (c *Context) ProcessPlacement(args PlacementArgs) Result {
	return c.guarded("placement", args.PlayerID, func() Result {
		player, ok := c.player(args.PlayerID)
		if !ok {
			return reject(ReasonNotFound)
		}
		def, ok := c.Catalog.Unit(args.Collection, args.TypeIndex)
		if !ok {
			return reject(ReasonNotFound)
		}
		if player.Gold < def.GoldCost {
			return reject(ReasonInsufficientFunds)
		}
		spawn := c.Placements.SpawnSquad(placement.SpawnRequest{
			Collection:          args.Collection,
			TypeIndex:           args.TypeIndex,
			GridPosition:        args.GridPosition,
			Origin:              args.Origin,
			Team:                player.Team,
			PlayerID:            player.ID,
			PlacementID:         args.PlacementID,
			ServerEntityIDs:     toEntityIDs(args.ServerEntityIDs),
			IsUnderConstruction: def.IsBuilding,
			BuildTime:           def.BuildTime,
		}, c.Tick)
		if !spawn.Success {
			return reject(spawn.Reason)
		}
		player.Gold -= def.GoldCost
		if def.IsResource && len(spawn.EntityIDs) > 0 {
			c.scheduleProduction(spawn.EntityIDs[0], player.ID, args.Collection, args.TypeIndex)
		}
		return Result{
			Success:     true,
			PlacementID: spawn.PlacementID,
			EntityIDs:   fromEntityIDs(spawn.EntityIDs),
			Gold:        player.Gold,
		}
	})
}

// SquadTargetArgs orders a squad toward a world position.
type SquadTargetArgs struct {
	PlayerID    int       `json:"playerId"`
	PlacementID int64     `json:"placementId"`
	Target      geom.Vec2 `json:"target"`
}

// ProcessSquadTarget records the target on every squad member and queues
// batched path requests for them.
func (c *Context) ProcessSquadTarget(args SquadTargetArgs) Result {
	return c.guarded("squad_target", args.PlayerID, func() Result {
		record, units, ok := c.Placements.PlacementByID(args.PlacementID)
		if !ok {
			return reject(ReasonNotFound)
		}
		if record.PlayerID != args.PlayerID {
			return reject(ReasonNotOwned)
		}
		for _, id := range units {
			data, _ := c.Store.GetComponent(id, ecs.CompPlacement)
			data.(*ecs.Placement).TargetPosition = args.Target
			transformAny, ok := c.Store.GetComponent(id, ecs.CompTransform)
			if !ok {
				continue
			}
			start := transformAny.(*ecs.Transform).Position
			entity := id
			c.Mesh.RequestPath(nav.Request{
				Entity: entity,
				Start:  start,
				Target: args.Target,
				Resolve: func(path []geom.Vec2) {
					c.applyPath(entity, path)
				},
			})
		}
		return Result{Success: true, PlacementID: args.PlacementID}
	})
}

// applyPath points the unit's velocity at the first waypoint. Movement
// integration itself lives with the engine's update systems.
func (c *Context) applyPath(id ecs.EntityID, path []geom.Vec2) {
	if len(path) == 0 || !c.Store.EntityExists(id) {
		return
	}
	transformAny, ok := c.Store.GetComponent(id, ecs.CompTransform)
	if !ok {
		return
	}
	velocityAny, ok := c.Store.GetComponent(id, ecs.CompVelocity)
	if !ok {
		return
	}
	position := transformAny.(*ecs.Transform).Position
	next := path[0]
	dist := geom.Dist(position, next)
	if dist == 0 {
		return
	}
	velocity := velocityAny.(*ecs.Velocity)
	velocity.DX = (next.X - position.X) / dist
	velocity.DZ = (next.Z - position.Z) / dist
}

// ProcessPurchaseUpgrade deducts gold and sets the upgrade bit atomically:
// both happen or neither does, and buying the same upgrade twice fails
// without touching gold.
func (c *Context) ProcessPurchaseUpgrade(playerID, upgradeID int) Result {
	return c.guarded("purchase_upgrade", playerID, func() Result {
		player, ok := c.player(playerID)
		if !ok {
			return reject(ReasonNotFound)
		}
		upgrade, ok := c.Catalog.Upgrade(upgradeID)
		if !ok {
			return reject(ReasonNotFound)
		}
		if player.HasUpgrade(upgrade.Bit) {
			return reject(ReasonAlreadyPurchased)
		}
		if player.Gold < upgrade.GoldCost {
			return reject(ReasonInsufficientFunds)
		}
		player.Gold -= upgrade.GoldCost
		player.Upgrades |= 1 << upgrade.Bit
		battlelog.UpgradePurchased(context.Background(), c.publisher(), c.Tick,
			logging.EntityRef{ID: strconv.Itoa(playerID), Kind: logging.EntityKindPlayer},
			battlelog.UpgradePurchasedPayload{UpgradeID: upgradeID, Cost: upgrade.GoldCost, GoldLeft: player.Gold})
		return Result{Success: true, Gold: player.Gold}
	})
}

// ProcessCancelBuilding refunds a building and removes it. Grid cells are
// released before the entity is destroyed so nothing can observe a
// double-reservation, and the assigned builder is detached first so no
// dangling reference survives.
func (c *Context) ProcessCancelBuilding(playerID int, placementID int64) Result {
	return c.guarded("cancel_building", playerID, func() Result {
		player, ok := c.player(playerID)
		if !ok {
			return reject(ReasonNotFound)
		}
		record, units, ok := c.Placements.PlacementByID(placementID)
		if !ok {
			return reject(ReasonNotFound)
		}
		if record.PlayerID != playerID {
			return reject(ReasonNotOwned)
		}
		unitTypeAny, _ := c.Store.GetComponent(units[0], ecs.CompUnitType)
		unitType := unitTypeAny.(*ecs.UnitType)
		def, ok := c.Catalog.Unit(unitType.Collection, unitType.TypeIndex)
		if !ok || !def.IsBuilding {
			return reject(ReasonNotABuilding)
		}
		refund := def.GoldCost / 2
		if record.IsUnderConstruction {
			refund = def.GoldCost
		}
		c.detachBuilder(record)
		c.Placements.DestroySquad(placementID)
		player.Gold += refund
		return Result{Success: true, PlacementID: placementID, Gold: player.Gold}
	})
}

// UpgradeBuildingArgs replaces a building with a higher-tier type.
type UpgradeBuildingArgs struct {
	PlayerID        int     `json:"playerId"`
	PlacementID     int64   `json:"placementId"`
	NewCollection   int     `json:"newCollection"`
	NewTypeIndex    int     `json:"newUnitTypeId"`
	NewPlacementID  int64   `json:"newPlacementId,omitempty"`
	ServerEntityIDs []int64 `json:"entityIds,omitempty"`
}

// ProcessUpgradeBuilding swaps a building for its upgraded type, spending
// the cost difference. The replacement's footprint and entity identifiers
// are validated while the old building still stands, so a rejection leaves
// it untouched; only then do cells release, the old entity die, and the
// replacement spawn.
func (c *Context) ProcessUpgradeBuilding(args UpgradeBuildingArgs) Result {
	return c.guarded("upgrade_building", args.PlayerID, func() Result {
		player, ok := c.player(args.PlayerID)
		if !ok {
			return reject(ReasonNotFound)
		}
		record, units, ok := c.Placements.PlacementByID(args.PlacementID)
		if !ok {
			return reject(ReasonNotFound)
		}
		if record.PlayerID != args.PlayerID {
			return reject(ReasonNotOwned)
		}
		unitTypeAny, _ := c.Store.GetComponent(units[0], ecs.CompUnitType)
		unitType := unitTypeAny.(*ecs.UnitType)
		oldDef, ok := c.Catalog.Unit(unitType.Collection, unitType.TypeIndex)
		if !ok || !oldDef.IsBuilding {
			return reject(ReasonNotABuilding)
		}
		newDef, ok := c.Catalog.Unit(args.NewCollection, args.NewTypeIndex)
		if !ok || !newDef.IsBuilding {
			return reject(ReasonNotFound)
		}
		cost := newDef.GoldCost - oldDef.GoldCost
		if cost < 0 {
			cost = 0
		}
		if player.Gold < cost {
			return reject(ReasonInsufficientFunds)
		}
		gridPosition := record.GridPosition
		origin := geom.Vec2{}
		if transformAny, ok := c.Store.GetComponent(units[0], ecs.CompTransform); ok {
			origin = transformAny.(*ecs.Transform).Position
		}
		newCells := make([]geom.Cell, 0, len(newDef.Footprint))
		for _, offset := range newDef.Footprint {
			newCells = append(newCells, geom.Cell{X: gridPosition.X + offset.X, Z: gridPosition.Z + offset.Z})
		}
		if !c.Occupancy.AvailableFor(newCells, args.PlacementID) {
			return reject(placement.ReasonGridUnavailable)
		}
		if len(args.ServerEntityIDs) > 0 {
			if len(args.ServerEntityIDs) != len(newDef.SlotOffsets) {
				return reject(placement.ReasonInvalidSquad)
			}
			// Identifiers held by the squad being replaced free up before
			// the spawn; any other live entity is a real conflict.
			for _, raw := range args.ServerEntityIDs {
				id := ecs.EntityID(raw)
				if c.Store.EntityExists(id) && !containsEntity(units, id) {
					return reject(placement.ReasonEntityIDConflict)
				}
			}
		}
		c.detachBuilder(record)
		c.Placements.DestroySquad(args.PlacementID)
		spawn := c.Placements.SpawnSquad(placement.SpawnRequest{
			Collection:      args.NewCollection,
			TypeIndex:       args.NewTypeIndex,
			GridPosition:    gridPosition,
			Origin:          origin,
			Team:            player.Team,
			PlayerID:        player.ID,
			PlacementID:     args.NewPlacementID,
			ServerEntityIDs: toEntityIDs(args.ServerEntityIDs),
			BuildTime:       newDef.BuildTime,
		}, c.Tick)
		if !spawn.Success {
			return reject(spawn.Reason)
		}
		player.Gold -= cost
		if newDef.IsResource && len(spawn.EntityIDs) > 0 {
			c.scheduleProduction(spawn.EntityIDs[0], player.ID, args.NewCollection, args.NewTypeIndex)
		}
		return Result{
			Success:     true,
			PlacementID: spawn.PlacementID,
			EntityIDs:   fromEntityIDs(spawn.EntityIDs),
			Gold:        player.Gold,
		}
	})
}

// detachBuilder clears a builder's in-progress construction so it never
// references a destroyed building.
func (c *Context) detachBuilder(record *ecs.Placement) {
	builder := record.AssignedBuilder
	record.AssignedBuilder = 0
	if builder == 0 || !c.Store.EntityExists(builder) {
		return
	}
	if data, ok := c.Store.GetComponent(builder, ecs.CompPlacement); ok {
		builderRecord := data.(*ecs.Placement)
		if transformAny, ok := c.Store.GetComponent(builder, ecs.CompTransform); ok {
			builderRecord.TargetPosition = transformAny.(*ecs.Transform).Position
		}
	}
	if data, ok := c.Store.GetComponent(builder, ecs.CompVelocity); ok {
		velocity := data.(*ecs.Velocity)
		velocity.DX = 0
		velocity.DZ = 0
	}
}

// ProcessCheat grants gold in development sessions. Disabled in production
// configuration.
func (c *Context) ProcessCheat(playerID, gold int) Result {
	return c.guarded("cheat", playerID, func() Result {
		if !c.CheatsEnabled {
			return reject(ReasonCheatsDisabled)
		}
		player, ok := c.player(playerID)
		if !ok {
			return reject(ReasonNotFound)
		}
		player.Gold += gold
		return Result{Success: true, Gold: player.Gold}
	})
}

// scheduleProduction drives a resource building through the deterministic
// scheduler: every interval the owning player earns the configured amount,
// for as long as the building lives and keeps producing. The owner tie
// means destruction cancels the chain automatically.
func (c *Context) scheduleProduction(building ecs.EntityID, playerID, collection, typeIndex int) {
	def, ok := c.Catalog.Unit(collection, typeIndex)
	if !ok || def.ProductionInterval <= 0 {
		return
	}
	var produce func()
	produce = func() {
		stateAny, ok := c.Store.GetComponent(building, ecs.CompBuildingState)
		if !ok || !stateAny.(*ecs.BuildingState).Producing {
			return
		}
		if player, ok := c.player(playerID); ok {
			player.Gold += def.ProductionAmount
		}
		c.Scheduler.Schedule(produce, def.ProductionInterval, building)
	}
	c.Scheduler.Schedule(produce, def.ProductionInterval, building)
}

func containsEntity(ids []ecs.EntityID, id ecs.EntityID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func toEntityIDs(ids []int64) []ecs.EntityID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ecs.EntityID, 0, len(ids))
	for _, id := range ids {
		out = append(out, ecs.EntityID(id))
	}
	return out
}

func fromEntityIDs(ids []ecs.EntityID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
