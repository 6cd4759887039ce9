package battle

import (
	"context"

	"gridwar/server/logging"
)

const (
	// EventActionRejected is emitted when a process* call fails validation.
	EventActionRejected logging.EventType = "battle.action_rejected"
	// EventActionPanicked is emitted when a process* call was recovered.
	EventActionPanicked logging.EventType = "battle.action_panicked"
	// EventBattleEnded is emitted when a battle resolves or times out.
	EventBattleEnded logging.EventType = "battle.ended"
	// EventUpgradePurchased is emitted on a successful upgrade purchase.
	EventUpgradePurchased logging.EventType = "battle.upgrade_purchased"
)

// ActionRejectedPayload describes a rejected protocol action.
type ActionRejectedPayload struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// ActionPanickedPayload carries the recovered panic value.
type ActionPanickedPayload struct {
	Action string `json:"action"`
	Panic  string `json:"panic"`
}

// BattleEndedPayload describes the round result.
type BattleEndedPayload struct {
	WinnerTeam int     `json:"winnerTeam"`
	Timeout    bool    `json:"timeout"`
	GameTime   float64 `json:"gameTime"`
	Entities   int     `json:"entities"`
}

// UpgradePurchasedPayload describes the purchase.
type UpgradePurchasedPayload struct {
	UpgradeID int `json:"upgradeId"`
	Cost      int `json:"cost"`
	GoldLeft  int `json:"goldLeft"`
}

// ActionRejected publishes a validation rejection.
func ActionRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ActionRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActionRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryProtocol,
		Payload:  payload,
	})
}

// ActionPanicked publishes a recovered process* panic.
func ActionPanicked(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ActionPanickedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActionPanicked,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryProtocol,
		Payload:  payload,
	})
}

// BattleEnded publishes the round resolution.
func BattleEnded(ctx context.Context, pub logging.Publisher, tick uint64, payload BattleEndedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBattleEnded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// UpgradePurchased publishes a successful purchase.
func UpgradePurchased(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload UpgradePurchasedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUpgradePurchased,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
