package sim

import (
	"gridwar/server/internal/protocol"
)

// CommandType enumerates the supported simulation commands. Each maps onto
// exactly one protocol process* operation.
type CommandType string

const (
	CommandPlacement       CommandType = "Placement"
	CommandSquadTarget     CommandType = "SquadTarget"
	CommandPurchaseUpgrade CommandType = "PurchaseUpgrade"
	CommandCancelBuilding  CommandType = "CancelBuilding"
	CommandUpgradeBuilding CommandType = "UpgradeBuilding"
	CommandReplaceUnit     CommandType = "ReplaceUnit"
	CommandCast            CommandType = "Cast"
	CommandCheat           CommandType = "Cheat"
	CommandSyncPlacementID CommandType = "SyncPlacementID"
)

// PurchaseUpgradeCommand identifies the upgrade to buy.
type PurchaseUpgradeCommand struct {
	UpgradeID int `json:"upgradeId"`
}

// CancelBuildingCommand identifies the placement to cancel.
type CancelBuildingCommand struct {
	PlacementID int64 `json:"placementId"`
}

// CastCommand triggers a registered ability on one of the player's own
// entities.
type CastCommand struct {
	AbilityID string `json:"abilityId"`
	CasterID  int64  `json:"casterId"`
}

// CheatCommand grants gold in development sessions.
type CheatCommand struct {
	Gold int `json:"gold"`
}

// SyncPlacementIDCommand mirrors the server's placement counter.
type SyncPlacementIDCommand struct {
	Next int64 `json:"next"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	Seq        uint64      `json:"seq"`
	OriginTick uint64      `json:"originTick"`
	PlayerID   int         `json:"playerId"`
	Type       CommandType `json:"type"`

	Placement       *protocol.PlacementArgs       `json:"placement,omitempty"`
	SquadTarget     *protocol.SquadTargetArgs     `json:"squadTarget,omitempty"`
	PurchaseUpgrade *PurchaseUpgradeCommand       `json:"purchaseUpgrade,omitempty"`
	CancelBuilding  *CancelBuildingCommand        `json:"cancelBuilding,omitempty"`
	UpgradeBuilding *protocol.UpgradeBuildingArgs `json:"upgradeBuilding,omitempty"`
	ReplaceUnit     *protocol.ReplaceUnitArgs     `json:"replaceUnit,omitempty"`
	Cast            *CastCommand                  `json:"cast,omitempty"`
	Cheat           *CheatCommand                 `json:"cheat,omitempty"`
	SyncPlacementID *SyncPlacementIDCommand       `json:"syncPlacementId,omitempty"`
}

// Outcome pairs a processed command with its result so the transport can
// acknowledge or broadcast it.
type Outcome struct {
	Seq      uint64          `json:"seq"`
	PlayerID int             `json:"playerId"`
	Type     CommandType     `json:"type"`
	Tick     uint64          `json:"tick"`
	Result   protocol.Result `json:"result"`
}
