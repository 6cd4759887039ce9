package placement

import (
	"context"

	"gridwar/server/logging"
)

const (
	// EventSquadSpawned is emitted when a placement produces its squad entities.
	EventSquadSpawned logging.EventType = "placement.squad_spawned"
	// EventSpawnRejected is emitted when a placement request fails validation.
	EventSpawnRejected logging.EventType = "placement.spawn_rejected"
	// EventResourceBound is emitted when a resource building claims a node.
	EventResourceBound logging.EventType = "placement.resource_bound"
	// EventCounterSynced is emitted when the client adopts the server counter.
	EventCounterSynced logging.EventType = "placement.counter_synced"
)

// SquadSpawnedPayload describes the entities created for a placement.
type SquadSpawnedPayload struct {
	PlacementID int64   `json:"placementId"`
	UnitTypeID  int     `json:"unitTypeId"`
	Collection  int     `json:"collection"`
	Team        int     `json:"team"`
	EntityIDs   []int64 `json:"entityIds"`
}

// SpawnRejectedPayload describes why a placement request was rejected.
type SpawnRejectedPayload struct {
	UnitTypeID int    `json:"unitTypeId"`
	Collection int    `json:"collection"`
	Reason     string `json:"reason"`
}

// ResourceBoundPayload describes a resource-node claim.
type ResourceBoundPayload struct {
	PlacementID int64 `json:"placementId"`
	NodeID      int64 `json:"nodeId"`
}

// CounterSyncedPayload carries the adopted counter value.
type CounterSyncedPayload struct {
	Next int64 `json:"next"`
}

// SquadSpawned publishes a successful squad spawn.
func SquadSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SquadSpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSquadSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// SpawnRejected publishes a rejected placement request.
func SpawnRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpawnRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// ResourceBound publishes a resource-node claim.
func ResourceBound(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ResourceBoundPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResourceBound,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// CounterSynced publishes a placement-counter sync.
func CounterSynced(ctx context.Context, pub logging.Publisher, tick uint64, payload CounterSyncedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCounterSynced,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryProtocol,
		Payload:  payload,
	})
}
