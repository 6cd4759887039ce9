// Package abilities maps ability identifiers to behavior variants. Each
// variant implements a common capability interface instead of subclassing,
// and every delayed effect it defines routes through the deterministic
// scheduler.
package abilities

import (
	"sort"

	"gridwar/server/internal/defs"
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/protocol"
)

// Ability is the closed capability surface each variant implements.
type Ability interface {
	// ID is the stable registry identifier carried on the wire.
	ID() string
	// CanExecute validates the cast without mutating anything.
	CanExecute(ctx *protocol.Context, caster ecs.EntityID) bool
	// Execute applies the ability's immediate effects.
	Execute(ctx *protocol.Context, caster ecs.EntityID) protocol.Result
}

// Registry resolves ability identifiers to variants.
type Registry struct {
	byID map[string]Ability
}

func NewRegistry(abilities ...Ability) *Registry {
	r := &Registry{byID: make(map[string]Ability, len(abilities))}
	for _, ability := range abilities {
		r.byID[ability.ID()] = ability
	}
	return r
}

// DefaultRegistry builds the stock ability set available to every room.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Transmute{AbilityID: "transmute_archer", NewCollection: defs.CollectionUnits, NewTypeIndex: defs.UnitArcher},
		Transmute{AbilityID: "transmute_knight", NewCollection: defs.CollectionUnits, NewTypeIndex: defs.UnitKnight},
	)
}

// Lookup resolves an ability identifier.
func (r *Registry) Lookup(id string) (Ability, bool) {
	ability, ok := r.byID[id]
	return ability, ok
}

// IDs lists registered ability identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
