package ws

import (
	"log"
	"sort"
	"time"

	"github.com/gorilla/websocket"

	"gridwar/server/internal/ecs"
	"gridwar/server/internal/net/proto"
	"gridwar/server/internal/protocol"
	"gridwar/server/internal/sim"
)

// Session runs the read loop for one player connection: handshake, then
// commands and heartbeats until the peer goes away.
type Session struct {
	hub    *Hub
	logger *log.Logger
}

func NewSession(hub *Hub, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{hub: hub, logger: logger}
}

// Serve seats the connection in the room and pumps messages until the
// connection drops. Blocks for the lifetime of the connection.
func (s *Session) Serve(roomID string, conn *websocket.Conn) {
	if s == nil || s.hub == nil || conn == nil {
		return
	}

	playerID, sub, engine := s.hub.Join(roomID, conn)
	defer s.hub.Disconnect(roomID, playerID)

	var (
		frame   proto.JoinedV1
		snapErr error
	)
	engine.Locked(func(ctx *protocol.Context) {
		var entities ecs.EntitySnapshot
		entities, snapErr = ctx.Store.Snapshot()
		frame = proto.JoinedV1{
			RoomID:          roomID,
			PlayerID:        playerID,
			Team:            ctx.Players[playerID].Team,
			Tick:            ctx.Tick,
			Players:         playerList(ctx),
			Entities:        entities,
			NextEntityID:    ctx.Store.NextEntityID(),
			NextPlacementID: ctx.Placements.PeekNextPlacementID(),
		}
	})
	if snapErr != nil {
		s.logger.Printf("failed to snapshot room for player %d: %v", playerID, snapErr)
		return
	}
	joined, err := proto.EncodeJoined(frame)
	if err != nil {
		s.logger.Printf("failed to marshal join frame for player %d: %v", playerID, err)
		return
	}
	if err := sub.Write(joined); err != nil {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			s.logger.Printf("discarding malformed message from player %d: %v", playerID, err)
			continue
		}

		switch msg.Type {
		case proto.TypeHeartbeat:
			ack, err := proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: time.Now().UnixMilli(),
				ClientTime: msg.SentAt,
			})
			if err != nil {
				continue
			}
			if err := sub.Write(ack); err != nil {
				return
			}
		case proto.TypeCommand:
			if !s.handleCommand(playerID, sub, engine, msg) {
				return
			}
		default:
			s.logger.Printf("unknown message type %q from player %d", msg.Type, playerID)
		}
	}
}

// handleCommand stages one command on the engine. Returns false when the
// connection should close.
func (s *Session) handleCommand(playerID int, sub *subscriber, engine *sim.Engine, msg proto.ClientMessage) bool {
	rejectWith := func(reason string, retry bool) bool {
		if msg.Seq == 0 {
			return true
		}
		data, err := proto.EncodeCommandReject(proto.CommandReject{Seq: msg.Seq, Reason: reason, Retry: retry})
		if err != nil {
			return true
		}
		return sub.Write(data) == nil
	}

	if msg.Command == nil {
		return rejectWith(proto.RejectMalformed, false)
	}
	if msg.Seq > 0 && msg.Seq <= sub.LastSeq() {
		return rejectWith(proto.RejectDuplicate, false)
	}

	cmd := *msg.Command
	cmd.Seq = msg.Seq
	cmd.PlayerID = playerID
	cmd.OriginTick = engine.Tick()
	if !engine.Push(cmd) {
		return rejectWith(proto.RejectQueueFull, true)
	}
	sub.StoreLastSeq(msg.Seq)
	return true
}

// playerList copies the seat table in ascending player order.
func playerList(ctx *protocol.Context) []protocol.PlayerState {
	ids := make([]int, 0, len(ctx.Players))
	for id := range ctx.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]protocol.PlayerState, 0, len(ids))
	for _, id := range ids {
		out = append(out, *ctx.Players[id])
	}
	return out
}
