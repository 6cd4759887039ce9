package worldmap

import (
	"testing"

	"gridwar/server/internal/defs"
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
	"gridwar/server/internal/grid"
	"gridwar/server/internal/nav"
	"gridwar/server/internal/placement"
)

func TestDefaultBattlefieldBakes(t *testing.T) {
	catalog := defs.DefaultCatalog()
	battlefield := Default(catalog)

	mesh := nav.NewMesh(nav.DefaultConfig(), catalog, nil, nil)
	mesh.Bake(battlefield.BakeInput(), 0)

	// Grass flank on each side of the river.
	if !mesh.IsWalkable(geom.Vec2{X: 4, Z: 4}) {
		t.Fatalf("west flank should be walkable")
	}
	if !mesh.IsWalkable(geom.Vec2{X: 28, Z: 28}) {
		t.Fatalf("east flank should be walkable")
	}
	// River columns (tile cols 7-8, world x 14..18) away from the ford.
	if mesh.IsWalkable(geom.Vec2{X: 15, Z: 4}) {
		t.Fatalf("river should block movement")
	}
	// The ford at tile rows 7-8 (world z 14..18).
	if !mesh.IsWalkable(geom.Vec2{X: 15, Z: 15}) {
		t.Fatalf("ford should be walkable")
	}

	// The flanks connect only through the ford.
	path := mesh.FindPath(geom.Vec2{X: 4.5, Z: 4.5}, geom.Vec2{X: 27.5, Z: 4.5}, 0)
	if path == nil {
		t.Fatalf("expected a path between the flanks")
	}
	last := path[len(path)-1]
	if last != (geom.Vec2{X: 27.5, Z: 4.5}) {
		t.Fatalf("flanks not connected, path stops at %+v", last)
	}
	crossedFord := false
	for _, wp := range path {
		if wp.X >= 14 && wp.X < 18 && wp.Z >= 14 && wp.Z < 18 {
			crossedFord = true
		}
	}
	if !crossedFord {
		t.Fatalf("path never passed through the ford: %v", path)
	}
}

func TestDefaultStartingLayoutSpawnsCleanly(t *testing.T) {
	catalog := defs.DefaultCatalog()
	battlefield := Default(catalog)
	if len(battlefield.Starts) != 2 {
		t.Fatalf("expected two team starts, got %d", len(battlefield.Starts))
	}
	if len(battlefield.ResourceNodes) != 2 {
		t.Fatalf("expected two resource nodes, got %d", len(battlefield.ResourceNodes))
	}

	store := ecs.NewStore()
	occupancy := grid.NewOccupancy()
	manager := placement.NewManager(store, occupancy, catalog, nil)
	for _, node := range battlefield.ResourceNodes {
		manager.SpawnResourceNode(node)
	}
	results := manager.SpawnStartingUnits(battlefield.Starts, 0)
	for i, result := range results {
		if !result.Success {
			t.Fatalf("starting spawn %d failed: %s", i, result.Reason)
		}
	}

	// One gold mine per team, each with its own node claimed.
	mines := results[len(results)-2:]
	if mines[0].PlacementID == mines[1].PlacementID {
		t.Fatalf("mines share a placement id")
	}
}
