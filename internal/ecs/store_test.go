package ecs

import (
	"testing"

	"gridwar/server/internal/geom"
)

func TestCreateEntityMonotonicIDs(t *testing.T) {
	store := NewStore()
	first := store.CreateEntity()
	second := store.CreateEntity()
	if first != 1 || second != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first, second)
	}

	store.DestroyEntity(second)
	third := store.CreateEntity()
	if third != 3 {
		t.Fatalf("destroyed id must not be reused: got %d", third)
	}
}

func TestCreateEntityWithIDRaisesCounter(t *testing.T) {
	store := NewStore()
	if err := store.CreateEntityWithID(10); err != nil {
		t.Fatalf("CreateEntityWithID(10): %v", err)
	}
	if next := store.CreateEntity(); next != 11 {
		t.Fatalf("expected local allocation to continue at 11, got %d", next)
	}

	if err := store.CreateEntityWithID(10); err == nil {
		t.Fatalf("expected conflict error for existing id")
	}
	if err := store.CreateEntityWithID(0); err == nil {
		t.Fatalf("expected error for non-positive id")
	}
}

func TestSyncNextEntityIDNeverLowers(t *testing.T) {
	store := NewStore()
	store.SyncNextEntityID(50)
	store.SyncNextEntityID(20)
	if got := store.CreateEntity(); got != 50 {
		t.Fatalf("expected counter floor 50, got %d", got)
	}
}

func TestAddComponentRequiresEntity(t *testing.T) {
	store := NewStore()
	if err := store.AddComponent(99, CompHealth, &Health{Current: 1, Max: 1}); err == nil {
		t.Fatalf("expected error attaching to missing entity")
	}

	id := store.CreateEntity()
	if err := store.AddComponent(id, CompHealth, &Health{Current: 10, Max: 10}); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	// Same name replaces.
	if err := store.AddComponent(id, CompHealth, &Health{Current: 5, Max: 10}); err != nil {
		t.Fatalf("AddComponent replace: %v", err)
	}
	data, ok := store.GetComponent(id, CompHealth)
	if !ok {
		t.Fatalf("component missing after replace")
	}
	if got := data.(*Health).Current; got != 5 {
		t.Fatalf("expected replaced health 5, got %v", got)
	}
}

func TestEntitiesWithSortedAndFiltered(t *testing.T) {
	store := NewStore()
	a := store.CreateEntity()
	b := store.CreateEntity()
	c := store.CreateEntity()
	store.AddComponent(c, CompTeam, &Team{ID: 1})
	store.AddComponent(a, CompTeam, &Team{ID: 0})
	store.AddComponent(a, CompHealth, &Health{Current: 1, Max: 1})
	store.AddComponent(c, CompHealth, &Health{Current: 1, Max: 1})
	store.AddComponent(b, CompHealth, &Health{Current: 1, Max: 1})

	got := store.EntitiesWith(CompTeam, CompHealth)
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("expected [%d %d], got %v", a, c, got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	store := NewStore()
	id := store.CreateEntity()
	store.AddComponent(id, CompTransform, &Transform{Position: geom.Vec2{X: 3, Z: 4}, Rotation: 1.5})
	store.AddComponent(id, CompPlacement, &Placement{
		PlacementID:  7,
		Team:         1,
		PlayerID:     2,
		GridPosition: geom.Cell{X: 5, Z: 6},
		Cells:        []geom.Cell{{X: 5, Z: 6}, {X: 6, Z: 6}},
	})

	snapshot, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored := NewStore()
	if err := restored.Restore(snapshot); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !restored.EntityExists(id) {
		t.Fatalf("restored store missing entity %d", id)
	}
	data, ok := restored.GetComponent(id, CompPlacement)
	if !ok {
		t.Fatalf("restored entity missing placement component")
	}
	record := data.(*Placement)
	if record.PlacementID != 7 || record.PlayerID != 2 || len(record.Cells) != 2 {
		t.Fatalf("placement did not survive round trip: %+v", record)
	}

	// Counter must land past the highest restored id.
	if next := restored.CreateEntity(); next != id+1 {
		t.Fatalf("expected next id %d after restore, got %d", id+1, next)
	}
}

func TestRestoreRejectsUnknownComponent(t *testing.T) {
	store := NewStore()
	snapshot := EntitySnapshot{
		1: {"mystery": []byte(`{}`)},
	}
	if err := store.Restore(snapshot); err == nil {
		t.Fatalf("expected error for unknown component name")
	}
}
