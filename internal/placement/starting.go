package placement

import (
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
)

// StartingSpawn is one scripted spawn in a team's starting layout.
type StartingSpawn struct {
	Collection   int
	TypeIndex    int
	GridPosition geom.Cell
	Origin       geom.Vec2
}

// TeamStart is one team's starting units and resource buildings.
type TeamStart struct {
	Team      int
	PlayerID  int
	Units     []StartingSpawn
	Buildings []StartingSpawn
}

// SpawnStartingUnits runs the deterministic two-phase round setup: every
// team's units first, in the given team order, then every team's resource
// buildings. The split guarantees that the entity-identifier sequence is
// settled before any building runs its nearest-node spatial search, so
// server and client produce identical numbering.
func (m *Manager) SpawnStartingUnits(teams []TeamStart, tick uint64) []SpawnResult {
	results := make([]SpawnResult, 0)
	for _, team := range teams {
		for _, spawn := range team.Units {
			results = append(results, m.SpawnSquad(SpawnRequest{
				Collection:   spawn.Collection,
				TypeIndex:    spawn.TypeIndex,
				GridPosition: spawn.GridPosition,
				Origin:       spawn.Origin,
				Team:         team.Team,
				PlayerID:     team.PlayerID,
			}, tick))
		}
	}
	for _, team := range teams {
		for _, spawn := range team.Buildings {
			results = append(results, m.SpawnSquad(SpawnRequest{
				Collection:   spawn.Collection,
				TypeIndex:    spawn.TypeIndex,
				GridPosition: spawn.GridPosition,
				Origin:       spawn.Origin,
				Team:         team.Team,
				PlayerID:     team.PlayerID,
			}, tick))
		}
	}
	return results
}

// SpawnResourceNode places a claimable resource node entity on the map.
// Nodes are world fixtures, not placements; they carry no placement
// component and reserve no cells.
func (m *Manager) SpawnResourceNode(position geom.Vec2) ecs.EntityID {
	id := m.store.CreateEntity()
	m.store.AddComponent(id, ecs.CompTransform, &ecs.Transform{Position: position})
	m.store.AddComponent(id, ecs.CompResourceNode, &ecs.ResourceNode{})
	return id
}
