package protocol

import (
	"context"
	"fmt"
	"sort"

	"gridwar/server/internal/ecs"
	battlelog "gridwar/server/logging/battle"
)

// RoundResult is broadcast with the BATTLE_END snapshot.
type RoundResult struct {
	WinnerTeam int  `json:"winnerTeam"`
	Timeout    bool `json:"timeout"`
}

// BattleEndPayload carries the full resync snapshot: every entity's
// complete component set plus the server's simulated time, so a drifted
// peer replaces its state wholesale instead of accumulating error across
// rounds.
type BattleEndPayload struct {
	Result   RoundResult        `json:"result"`
	GameTime float64            `json:"gameTime"`
	Players  []PlayerState      `json:"players"`
	Entities ecs.EntitySnapshot `json:"entities"`
}

// EndBattle serializes the world, publishes the round result, and
// broadcasts BATTLE_END to the room.
func (c *Context) EndBattle(result RoundResult) (BattleEndPayload, error) {
	snapshot, err := c.Store.Snapshot()
	if err != nil {
		return BattleEndPayload{}, fmt.Errorf("protocol: battle end snapshot: %w", err)
	}
	payload := BattleEndPayload{
		Result:   result,
		GameTime: c.Scheduler.Now(),
		Players:  c.playerList(),
		Entities: snapshot,
	}
	battlelog.BattleEnded(context.Background(), c.publisher(), c.Tick, battlelog.BattleEndedPayload{
		WinnerTeam: result.WinnerTeam,
		Timeout:    result.Timeout,
		GameTime:   payload.GameTime,
		Entities:   len(snapshot),
	})
	if c.Broadcaster != nil {
		c.Broadcaster.BroadcastToRoom(c.RoomID, EventBattleEnd, payload)
	}
	return payload, nil
}

// ApplyBattleEnd replaces local state from a BATTLE_END payload. Used by a
// peer whose incremental state diverged.
func (c *Context) ApplyBattleEnd(payload BattleEndPayload) error {
	if err := c.Store.Restore(payload.Entities); err != nil {
		return fmt.Errorf("protocol: apply battle end: %w", err)
	}
	for _, player := range payload.Players {
		restored := player
		c.Players[player.ID] = &restored
	}
	return nil
}

// playerList returns players in ascending ID order for a deterministic
// wire layout.
func (c *Context) playerList() []PlayerState {
	ids := make([]int, 0, len(c.Players))
	for id := range c.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]PlayerState, 0, len(ids))
	for _, id := range ids {
		out = append(out, *c.Players[id])
	}
	return out
}
