package abilities

import (
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/protocol"
)

// Transmute swaps the caster for a different unit type while preserving
// position, team, and health fraction. It is a thin consumer of the
// protocol's ReplaceUnit primitive; the deferred destruction of the caster
// rides the scheduler like every other delayed effect.
type Transmute struct {
	AbilityID     string
	NewCollection int
	NewTypeIndex  int
}

func (t Transmute) ID() string {
	return t.AbilityID
}

func (t Transmute) CanExecute(ctx *protocol.Context, caster ecs.EntityID) bool {
	if !ctx.Store.EntityExists(caster) {
		return false
	}
	_, ok := ctx.Catalog.Unit(t.NewCollection, t.NewTypeIndex)
	return ok
}

func (t Transmute) Execute(ctx *protocol.Context, caster ecs.EntityID) protocol.Result {
	var playerID int
	if data, ok := ctx.Store.GetComponent(caster, ecs.CompPlacement); ok {
		playerID = data.(*ecs.Placement).PlayerID
	}
	return ctx.ReplaceUnit(protocol.ReplaceUnitArgs{
		PlayerID:      playerID,
		EntityID:      int64(caster),
		NewCollection: t.NewCollection,
		NewTypeIndex:  t.NewTypeIndex,
	})
}
