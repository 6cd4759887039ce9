package protocol

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"gridwar/server/internal/defs"
	"gridwar/server/internal/geom"
)

func TestEndBattleBroadcastsFullResync(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Players[2] = &PlayerState{ID: 2, Team: 1, Gold: 500}
	placeSwordsman(t, ctx, geom.Cell{X: 4, Z: 4}, geom.Vec2{X: 4.5, Z: 4.5})

	var gotRoom, gotEvent string
	var gotPayload any
	ctx.Broadcaster = BroadcasterFunc(func(roomID, event string, payload any) {
		gotRoom, gotEvent, gotPayload = roomID, event, payload
	})

	payload, err := ctx.EndBattle(RoundResult{WinnerTeam: 1})
	if err != nil {
		t.Fatalf("EndBattle: %v", err)
	}
	if gotRoom != "test" || gotEvent != EventBattleEnd {
		t.Fatalf("broadcast went to %q/%q", gotRoom, gotEvent)
	}
	if gotPayload == nil {
		t.Fatalf("broadcast carried no payload")
	}
	if payload.Result.WinnerTeam != 1 || payload.Result.Timeout {
		t.Fatalf("round result mangled: %+v", payload.Result)
	}
	if len(payload.Entities) != 4 {
		t.Fatalf("expected 4 entities in the resync, got %d", len(payload.Entities))
	}
	// Players list in ascending ID order.
	if len(payload.Players) != 2 || payload.Players[0].ID != 1 || payload.Players[1].ID != 2 {
		t.Fatalf("player list not ordered: %+v", payload.Players)
	}
}

func TestLoopbackBroadcasterRoutesBattleEndLocally(t *testing.T) {
	ctx := newTestContext(t)
	placeSwordsman(t, ctx, geom.Cell{X: 4, Z: 4}, geom.Vec2{X: 4.5, Z: 4.5})

	loopback := NewLoopbackBroadcaster()
	var rooms []string
	var payloads []BattleEndPayload
	loopback.Handle(EventBattleEnd, func(roomID string, payload any) {
		rooms = append(rooms, roomID)
		payloads = append(payloads, payload.(BattleEndPayload))
	})
	loopback.Handle(EventNextRound, func(roomID string, payload any) {
		t.Fatalf("handler for another event fired")
	})
	ctx.Broadcaster = loopback

	if _, err := ctx.EndBattle(RoundResult{WinnerTeam: 0}); err != nil {
		t.Fatalf("EndBattle: %v", err)
	}
	if len(rooms) != 1 || rooms[0] != "test" {
		t.Fatalf("loopback delivery broken: %v", rooms)
	}
	if payloads[0].Result.WinnerTeam != 0 {
		t.Fatalf("payload mangled: %+v", payloads[0].Result)
	}
}

func TestApplyBattleEndReplacesLocalState(t *testing.T) {
	server := newTestContext(t)
	spawn := placeSwordsman(t, server, geom.Cell{X: 4, Z: 4}, geom.Vec2{X: 4.5, Z: 4.5})
	payload, err := server.EndBattle(RoundResult{WinnerTeam: 0})
	if err != nil {
		t.Fatalf("EndBattle: %v", err)
	}

	// A drifted peer with extra junk state adopts the snapshot wholesale.
	client := newTestContext(t)
	client.Store.CreateEntity()
	client.Players[1].Gold = 1
	if err := client.ApplyBattleEnd(payload); err != nil {
		t.Fatalf("ApplyBattleEnd: %v", err)
	}
	if client.Players[1].Gold != server.Players[1].Gold {
		t.Fatalf("player gold not adopted: %d vs %d", client.Players[1].Gold, server.Players[1].Gold)
	}
	if len(client.Placements.SquadUnits(spawn.PlacementID)) != 4 {
		t.Fatalf("squad membership not restored from the snapshot")
	}
}

// driveRound runs a fixed battle script against a context.
func driveRound(t *testing.T, ctx *Context) {
	t.Helper()
	ctx.Placements.SpawnResourceNode(geom.Vec2{X: 2.5, Z: 2.5})
	ctx.Placements.SpawnResourceNode(geom.Vec2{X: 13.5, Z: 13.5})

	placeSwordsman(t, ctx, geom.Cell{X: 4, Z: 4}, geom.Vec2{X: 4.5, Z: 4.5})
	mine := ctx.ProcessPlacement(PlacementArgs{
		PlayerID:     1,
		Collection:   defs.CollectionBuildings,
		TypeIndex:    defs.BuildingGoldMine,
		GridPosition: geom.Cell{X: 2, Z: 2},
		Origin:       geom.Vec2{X: 2.5, Z: 2.5},
	})
	if !mine.Success {
		t.Fatalf("mine placement failed: %s", mine.Reason)
	}
	ctx.ProcessSquadTarget(SquadTargetArgs{PlayerID: 1, PlacementID: 1, Target: geom.Vec2{X: 12.5, Z: 4.5}})
	ctx.Mesh.ResolvePending(0)
	ctx.ProcessPurchaseUpgrade(1, defs.UpgradeSharpBlades)
	ctx.Scheduler.Advance(2.0, 1)
	ctx.Scheduler.Advance(4.0, 2)
}

func TestIdenticalInputsProduceIdenticalSnapshots(t *testing.T) {
	first := newTestContext(t)
	second := newTestContext(t)
	driveRound(t, first)
	driveRound(t, second)

	firstPayload, err := first.EndBattle(RoundResult{WinnerTeam: 0})
	if err != nil {
		t.Fatalf("EndBattle: %v", err)
	}
	secondPayload, err := second.EndBattle(RoundResult{WinnerTeam: 0})
	if err != nil {
		t.Fatalf("EndBattle: %v", err)
	}

	firstBytes, err := json.Marshal(firstPayload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	secondBytes, err := json.Marshal(secondPayload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if sha256.Sum256(firstBytes) != sha256.Sum256(secondBytes) {
		t.Fatalf("two runs of the same inputs diverged:\n%s\n%s", firstBytes, secondBytes)
	}
	if first.Players[1].Gold != second.Players[1].Gold {
		t.Fatalf("gold diverged: %d vs %d", first.Players[1].Gold, second.Players[1].Gold)
	}
}
