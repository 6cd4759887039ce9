package simulation

import (
	"context"

	"gridwar/server/logging"
)

const (
	// EventScheduledActionPanicked is emitted when a scheduled callback was recovered.
	EventScheduledActionPanicked logging.EventType = "simulation.scheduled_action_panicked"
	// EventTickBudgetExceeded is emitted when a tick ran longer than its budget.
	EventTickBudgetExceeded logging.EventType = "simulation.tick_budget_exceeded"
	// EventNavGridBaked is emitted after the navigation grid is (re)baked.
	EventNavGridBaked logging.EventType = "simulation.nav_grid_baked"
)

// ScheduledActionPanickedPayload carries the recovered panic value.
type ScheduledActionPanickedPayload struct {
	Owner int64  `json:"owner,omitempty"`
	Panic string `json:"panic"`
}

// TickBudgetExceededPayload describes the slow tick.
type TickBudgetExceededPayload struct {
	DurationMillis int64 `json:"durationMillis"`
	BudgetMillis   int64 `json:"budgetMillis"`
}

// NavGridBakedPayload describes the baked grid.
type NavGridBakedPayload struct {
	Cols     int `json:"cols"`
	Rows     int `json:"rows"`
	Blocked  int `json:"blocked"`
	Walkable int `json:"walkable"`
}

// ScheduledActionPanicked publishes a recovered scheduler panic.
func ScheduledActionPanicked(ctx context.Context, pub logging.Publisher, tick uint64, payload ScheduledActionPanickedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventScheduledActionPanicked,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// TickBudgetExceeded publishes a slow-tick warning.
func TickBudgetExceeded(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetExceededPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetExceeded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// NavGridBaked publishes the result of a navigation bake.
func NavGridBaked(ctx context.Context, pub logging.Publisher, tick uint64, payload NavGridBakedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventNavGridBaked,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}
