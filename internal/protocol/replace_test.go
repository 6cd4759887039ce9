package protocol

import (
	"testing"

	"gridwar/server/internal/defs"
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
)

func TestReplaceUnitCarriesHealthFraction(t *testing.T) {
	ctx := newTestContext(t)
	spawn := ctx.ProcessPlacement(PlacementArgs{
		PlayerID:     1,
		Collection:   defs.CollectionUnits,
		TypeIndex:    defs.UnitKnight,
		GridPosition: geom.Cell{X: 4, Z: 4},
		Origin:       geom.Vec2{X: 4.5, Z: 4.5},
	})
	if !spawn.Success {
		t.Fatalf("placement failed: %s", spawn.Reason)
	}
	original := ecs.EntityID(spawn.EntityIDs[0])

	// Knight at half health: 90 of 180.
	healthAny, _ := ctx.Store.GetComponent(original, ecs.CompHealth)
	healthAny.(*ecs.Health).Current = 90

	result := ctx.ReplaceUnit(ReplaceUnitArgs{
		PlayerID:      1,
		EntityID:      int64(original),
		NewCollection: defs.CollectionUnits,
		NewTypeIndex:  defs.UnitArcher,
	})
	if !result.Success || len(result.EntityIDs) != 1 {
		t.Fatalf("replace failed: %+v", result)
	}
	replacement := ecs.EntityID(result.EntityIDs[0])

	// Half of the archer's 60 maximum.
	newHealthAny, _ := ctx.Store.GetComponent(replacement, ecs.CompHealth)
	newHealth := newHealthAny.(*ecs.Health)
	if newHealth.Current != 30 || newHealth.Max != 60 {
		t.Fatalf("expected 30/60 health, got %v/%v", newHealth.Current, newHealth.Max)
	}

	// Position, team and placement carry over.
	oldTransform, _ := ctx.Store.GetComponent(original, ecs.CompTransform)
	newTransform, _ := ctx.Store.GetComponent(replacement, ecs.CompTransform)
	if oldTransform.(*ecs.Transform).Position != newTransform.(*ecs.Transform).Position {
		t.Fatalf("replacement spawned away from the original")
	}
	typeAny, _ := ctx.Store.GetComponent(replacement, ecs.CompUnitType)
	if typeAny.(*ecs.UnitType).TypeIndex != defs.UnitArcher {
		t.Fatalf("replacement has the wrong type")
	}
}

func TestReplaceUnitDefersDestructionBySimulatedTime(t *testing.T) {
	ctx := newTestContext(t)
	spawn := ctx.ProcessPlacement(PlacementArgs{
		PlayerID:     1,
		Collection:   defs.CollectionUnits,
		TypeIndex:    defs.UnitKnight,
		GridPosition: geom.Cell{X: 4, Z: 4},
		Origin:       geom.Vec2{X: 4.5, Z: 4.5},
	})
	if !spawn.Success {
		t.Fatalf("placement failed: %s", spawn.Reason)
	}
	original := ecs.EntityID(spawn.EntityIDs[0])

	result := ctx.ReplaceUnit(ReplaceUnitArgs{
		PlayerID:      1,
		EntityID:      int64(original),
		NewCollection: defs.CollectionUnits,
		NewTypeIndex:  defs.UnitArcher,
	})
	if !result.Success {
		t.Fatalf("replace failed: %s", result.Reason)
	}

	// The knight's swap animation runs 0.8 simulated seconds; the original
	// lives until then so both peers destroy it on the same tick.
	ctx.Scheduler.Advance(0.7, 1)
	if !ctx.Store.EntityExists(original) {
		t.Fatalf("original destroyed before the animation window")
	}
	ctx.Scheduler.Advance(0.8, 2)
	if ctx.Store.EntityExists(original) {
		t.Fatalf("original survived past the animation window")
	}
}

func TestReplaceUnitAdoptsServerIdentifier(t *testing.T) {
	ctx := newTestContext(t)
	spawn := ctx.ProcessPlacement(PlacementArgs{
		PlayerID:     1,
		Collection:   defs.CollectionUnits,
		TypeIndex:    defs.UnitKnight,
		GridPosition: geom.Cell{X: 4, Z: 4},
		Origin:       geom.Vec2{X: 4.5, Z: 4.5},
	})
	if !spawn.Success {
		t.Fatalf("placement failed: %s", spawn.Reason)
	}

	result := ctx.ReplaceUnit(ReplaceUnitArgs{
		PlayerID:      1,
		EntityID:      spawn.EntityIDs[0],
		NewCollection: defs.CollectionUnits,
		NewTypeIndex:  defs.UnitArcher,
		NewEntityID:   40,
	})
	if !result.Success || result.EntityIDs[0] != 40 {
		t.Fatalf("expected adopted entity id 40, got %+v", result)
	}
	if next := ctx.Store.CreateEntity(); next != 41 {
		t.Fatalf("adopted id must raise the entity counter, next was %d", next)
	}
}

func TestReplaceUnitRejectsMissing(t *testing.T) {
	ctx := newTestContext(t)
	result := ctx.ReplaceUnit(ReplaceUnitArgs{
		PlayerID:      1,
		EntityID:      999,
		NewCollection: defs.CollectionUnits,
		NewTypeIndex:  defs.UnitArcher,
	})
	if result.Success || result.Reason != ReasonNotFound {
		t.Fatalf("expected %s, got %+v", ReasonNotFound, result)
	}
}
