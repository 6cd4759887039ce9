// Package proto defines the versioned JSON wire format spoken over the
// websocket transport. Every frame carries a "ver" field; decoding rejects
// versions the server does not speak.
package proto

import (
	"encoding/json"
	"fmt"

	"gridwar/server/internal/ecs"
	"gridwar/server/internal/protocol"
	"gridwar/server/internal/sim"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeCommand   = "command"
	TypeHeartbeat = "heartbeat"
)

// Server message type identifiers.
const (
	typeJoined        = "joined"
	typeCommandAck    = "commandAck"
	typeCommandReject = "commandReject"
	typeHeartbeat     = "heartbeat"
	typeEvent         = "event"
)

// Rejection reasons used by the transport itself; simulation-level reasons
// come through protocol.Result.
const (
	RejectQueueFull = "queue_full"
	RejectDuplicate = "duplicate_seq"
	RejectMalformed = "malformed_command"
)

// ClientMessage captures an inbound websocket frame from the client.
type ClientMessage struct {
	Ver     int          `json:"ver,omitempty"`
	Type    string       `json:"type"`
	Seq     uint64       `json:"seq,omitempty"`
	SentAt  int64        `json:"sentAt,omitempty"`
	Command *sim.Command `json:"command,omitempty"`
}

// DecodeClientMessage converts a raw websocket payload into a structured
// message, enforcing the protocol version.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// JoinedV1 is the first frame a client receives: its seat assignment plus a
// full snapshot so it can reconstruct the room state.
type JoinedV1 struct {
	Ver             int                    `json:"ver"`
	Type            string                 `json:"type"`
	RoomID          string                 `json:"roomId"`
	PlayerID        int                    `json:"playerId"`
	Team            int                    `json:"team"`
	Tick            uint64                 `json:"tick"`
	Players         []protocol.PlayerState `json:"players"`
	Entities        ecs.EntitySnapshot     `json:"entities"`
	NextEntityID    ecs.EntityID           `json:"nextEntityId"`
	NextPlacementID int64                  `json:"nextPlacementId"`
}

// EncodeJoined renders the join handshake frame.
func EncodeJoined(msg JoinedV1) ([]byte, error) {
	msg.Ver = Version
	msg.Type = typeJoined
	return json.Marshal(msg)
}

// CommandAck acknowledges a processed command with its simulation result.
type CommandAck struct {
	Seq    uint64
	Tick   uint64
	Result protocol.Result
}

// EncodeCommandAck renders a command acknowledgement frame.
func EncodeCommandAck(msg CommandAck) ([]byte, error) {
	frame := struct {
		Ver    int             `json:"ver"`
		Type   string          `json:"type"`
		Seq    uint64          `json:"seq"`
		Tick   uint64          `json:"tick,omitempty"`
		Result protocol.Result `json:"result"`
	}{
		Ver:    Version,
		Type:   typeCommandAck,
		Seq:    msg.Seq,
		Tick:   msg.Tick,
		Result: msg.Result,
	}
	return json.Marshal(frame)
}

// CommandReject notifies the client that a command never reached the
// simulation.
type CommandReject struct {
	Seq    uint64
	Reason string
	Retry  bool
}

// EncodeCommandReject renders a command rejection frame.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
	}{
		Ver:    Version,
		Type:   typeCommandReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
		Retry:  msg.Retry,
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement frame.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
	}
	return json.Marshal(frame)
}

// EncodeEvent renders a simulation broadcast (BATTLE_END and friends). The
// payload is marshalled as-is so the snapshot layout stays authoritative.
func EncodeEvent(event string, payload any) ([]byte, error) {
	frame := struct {
		Ver     int    `json:"ver"`
		Type    string `json:"type"`
		Event   string `json:"event"`
		Payload any    `json:"payload,omitempty"`
	}{
		Ver:     Version,
		Type:    typeEvent,
		Event:   event,
		Payload: payload,
	}
	return json.Marshal(frame)
}
