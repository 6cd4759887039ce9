package protocol

import (
	"gridwar/server/internal/ecs"
)

// ReplaceUnitArgs swaps an entity for a different unit type in place.
// NewEntityID carries the server's authoritative identifier when the client
// replays the swap; zero lets the server allocate.
type ReplaceUnitArgs struct {
	PlayerID      int   `json:"playerId"`
	EntityID      int64 `json:"entityId"`
	NewCollection int   `json:"newCollection"`
	NewTypeIndex  int   `json:"newUnitTypeId"`
	NewEntityID   int64 `json:"newEntityId,omitempty"`
}

// ReplaceUnit creates the replacement at the original's position and team,
// carries health over as a fraction of the new maximum, and defers the
// original's destruction through the scheduler by the old type's animation
// duration. Deferring through simulated time makes the swap land on the
// same tick on every peer instead of whenever a renderer finishes a clip.
func (c *Context) ReplaceUnit(args ReplaceUnitArgs) Result {
	return c.guarded("replace_unit", args.PlayerID, func() Result {
		original := ecs.EntityID(args.EntityID)
		if !c.Store.EntityExists(original) {
			return reject(ReasonNotFound)
		}
		newDef, ok := c.Catalog.Unit(args.NewCollection, args.NewTypeIndex)
		if !ok {
			return reject(ReasonNotFound)
		}
		oldTypeAny, ok := c.Store.GetComponent(original, ecs.CompUnitType)
		if !ok {
			return reject(ReasonNotFound)
		}
		oldType := oldTypeAny.(*ecs.UnitType)
		oldDef, _ := c.Catalog.Unit(oldType.Collection, oldType.TypeIndex)

		healthFraction := 1.0
		if healthAny, ok := c.Store.GetComponent(original, ecs.CompHealth); ok {
			health := healthAny.(*ecs.Health)
			if health.Max > 0 {
				healthFraction = health.Current / health.Max
			}
		}

		var replacement ecs.EntityID
		if args.NewEntityID > 0 {
			replacement = ecs.EntityID(args.NewEntityID)
			if err := c.Store.CreateEntityWithID(replacement); err != nil {
				return reject(ReasonInternalError)
			}
		} else {
			replacement = c.Store.CreateEntity()
		}

		if transformAny, ok := c.Store.GetComponent(original, ecs.CompTransform); ok {
			transform := transformAny.(*ecs.Transform)
			c.Store.AddComponent(replacement, ecs.CompTransform, &ecs.Transform{
				Position: transform.Position,
				Rotation: transform.Rotation,
			})
		}
		if teamAny, ok := c.Store.GetComponent(original, ecs.CompTeam); ok {
			c.Store.AddComponent(replacement, ecs.CompTeam, &ecs.Team{ID: teamAny.(*ecs.Team).ID})
		}
		if placementAny, ok := c.Store.GetComponent(original, ecs.CompPlacement); ok {
			record := *placementAny.(*ecs.Placement)
			c.Store.AddComponent(replacement, ecs.CompPlacement, &record)
		}
		c.Store.AddComponent(replacement, ecs.CompUnitType, &ecs.UnitType{
			Collection: args.NewCollection,
			TypeIndex:  args.NewTypeIndex,
		})
		c.Store.AddComponent(replacement, ecs.CompHealth, &ecs.Health{
			Current: healthFraction * newDef.MaxHealth,
			Max:     newDef.MaxHealth,
		})
		if newDef.IsBuilding {
			c.Store.AddComponent(replacement, ecs.CompBuildingState, &ecs.BuildingState{})
		} else {
			c.Store.AddComponent(replacement, ecs.CompVelocity, &ecs.Velocity{})
		}

		delay := oldDef.AnimationDuration
		c.Scheduler.Schedule(func() {
			c.Store.DestroyEntity(original)
		}, delay, original)

		return Result{Success: true, EntityIDs: []int64{int64(replacement)}}
	})
}
