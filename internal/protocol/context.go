// Package protocol implements the process* operations that keep server and
// client state identical. The server runs each operation when a request
// arrives and broadcasts the authoritative values it generated; the client
// runs the same operation with those values substituted in, never deriving
// identifiers, timestamps or resource amounts on its own.
package protocol

import (
	"context"
	"fmt"
	"strconv"

	"gridwar/server/internal/defs"
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/grid"
	"gridwar/server/internal/nav"
	"gridwar/server/internal/placement"
	"gridwar/server/internal/sched"
	"gridwar/server/logging"
	battlelog "gridwar/server/logging/battle"
)

// Rejection reasons surfaced to the player. Short, human-readable, stable.
const (
	ReasonNotFound          = "not_found"
	ReasonAlreadyPurchased  = "already_purchased"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonNotOwned          = "not_owned"
	ReasonNotABuilding      = "not_a_building"
	ReasonCheatsDisabled    = "cheats_disabled"
	ReasonInternalError     = "internal_error"
)

// Result is the structured outcome of every process* call. Expected
// failures populate Reason; nothing in this package panics across the call
// boundary.
type Result struct {
	Success     bool    `json:"success"`
	Reason      string  `json:"error,omitempty"`
	PlacementID int64   `json:"placementId,omitempty"`
	EntityIDs   []int64 `json:"entityIds,omitempty"`
	Gold        int     `json:"gold,omitempty"`
}

func reject(reason string) Result {
	return Result{Success: false, Reason: reason}
}

// PlayerState is the per-player protocol state: spendable gold and the
// purchased-upgrade bitmask (one bit per upgrade identifier).
type PlayerState struct {
	ID       int    `json:"id"`
	Team     int    `json:"team"`
	Gold     int    `json:"gold"`
	Upgrades uint64 `json:"upgrades"`
}

// HasUpgrade tests the bitmask.
func (p *PlayerState) HasUpgrade(bit uint) bool {
	return p.Upgrades&(1<<bit) != 0
}

// Context is the explicit simulation context threaded into every operation
// and scheduled callback. There is no global game object; holding the
// collaborators here keeps the simulation instantiable many times over for
// tests and replays.
type Context struct {
	Store       *ecs.Store
	Scheduler   *sched.Scheduler
	Mesh        *nav.Mesh
	Occupancy   *grid.Occupancy
	Catalog     *defs.Catalog
	Placements  *placement.Manager
	Players     map[int]*PlayerState
	Broadcaster Broadcaster
	Publisher   logging.Publisher
	RoomID      string

	// Tick is maintained by the owning engine before each dispatch.
	Tick uint64

	CheatsEnabled bool
}

func (c *Context) player(id int) (*PlayerState, bool) {
	p, ok := c.Players[id]
	return p, ok
}

func (c *Context) publisher() logging.Publisher {
	if c.Publisher == nil {
		return logging.NopPublisher()
	}
	return c.Publisher
}

// guarded wraps one process* body: panics are recovered, logged, and
// converted into a generic failure so one bad action cannot take down the
// tick loop; ordinary rejections are logged at warn level.
func (c *Context) guarded(action string, playerID int, fn func() Result) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			battlelog.ActionPanicked(context.Background(), c.publisher(), c.Tick,
				logging.EntityRef{ID: strconv.Itoa(playerID), Kind: logging.EntityKindPlayer},
				battlelog.ActionPanickedPayload{Action: action, Panic: fmt.Sprint(r)})
			result = reject(ReasonInternalError)
		}
	}()
	result = fn()
	if !result.Success {
		battlelog.ActionRejected(context.Background(), c.publisher(), c.Tick,
			logging.EntityRef{ID: strconv.Itoa(playerID), Kind: logging.EntityKindPlayer},
			battlelog.ActionRejectedPayload{Action: action, Reason: result.Reason})
	}
	return result
}
