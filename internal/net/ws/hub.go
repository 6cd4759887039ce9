// Package ws hosts the websocket transport: a hub of rooms, each driving
// its own simulation engine, and the per-connection session loop.
package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gridwar/server/internal/config"
	"gridwar/server/internal/defs"
	"gridwar/server/internal/net/proto"
	"gridwar/server/internal/protocol"
	"gridwar/server/internal/sim"
	"gridwar/server/internal/telemetry"
	"gridwar/server/internal/worldmap"
	"gridwar/server/logging"
)

const teamCount = 2

// Hub owns every live room and its subscribers. It implements
// protocol.Broadcaster so engines can fan simulation events out to their
// room without knowing about websockets.
type Hub struct {
	cfg         config.Config
	catalog     *defs.Catalog
	pub         logging.Publisher
	metrics     telemetry.Metrics
	logger      *log.Logger
	battlefield *worldmap.Battlefield

	mu    sync.Mutex
	rooms map[string]*room
	stop  chan struct{}
	once  sync.Once
}

type room struct {
	id       string
	engine   *sim.Engine
	loop     *sim.Loop
	stop     chan struct{}
	subs     map[int]*subscriber
	nextSeat int
}

// subscriber serializes writes to one websocket connection. gorilla allows a
// single concurrent writer, so every write goes through the mutex and gets a
// fresh deadline.
type subscriber struct {
	conn      *websocket.Conn
	writeWait time.Duration

	mu      sync.Mutex
	lastSeq uint64
}

func (s *subscriber) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeWait > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *subscriber) LastSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

func (s *subscriber) StoreLastSeq(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
}

// HubConfig carries the hub collaborators.
type HubConfig struct {
	Config  config.Config
	Catalog *defs.Catalog
	Pub     logging.Publisher
	Metrics telemetry.Metrics
	Logger  *log.Logger
	// Battlefield is the map every fresh room is set up with.
	Battlefield *worldmap.Battlefield
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Hub{
		cfg:         cfg.Config,
		catalog:     cfg.Catalog,
		pub:         cfg.Pub,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		battlefield: cfg.Battlefield,
		rooms:       make(map[string]*room),
		stop:        make(chan struct{}),
	}
}

// Close tells every room the game is over and stops its loop.
func (h *Hub) Close() {
	h.once.Do(func() {
		for _, roomID := range h.RoomIDs() {
			h.BroadcastToRoom(roomID, protocol.EventGameEnd, struct{}{})
		}
		h.mu.Lock()
		for _, r := range h.rooms {
			close(r.stop)
		}
		h.mu.Unlock()
		close(h.stop)
	})
}

// ensureRoomLocked creates the room, its engine and its tick loop on first
// use. Caller holds h.mu.
func (h *Hub) ensureRoomLocked(roomID string) *room {
	if r, ok := h.rooms[roomID]; ok {
		return r
	}
	engine := sim.NewEngine(sim.EngineConfig{
		RoomID:      roomID,
		Simulation:  h.cfg.Simulation,
		Navigation:  h.cfg.Navigation,
		Catalog:     h.catalog,
		Broadcaster: h,
		Publisher:   h.pub,
		Metrics:     h.metrics,
	})
	if h.battlefield != nil {
		engine.BakeNavigation(h.battlefield.BakeInput())
		engine.Locked(func(ctx *protocol.Context) {
			for _, position := range h.battlefield.ResourceNodes {
				ctx.Placements.SpawnResourceNode(position)
			}
			ctx.Placements.SpawnStartingUnits(h.battlefield.Starts, ctx.Tick)
		})
	}
	r := &room{
		id:     roomID,
		engine: engine,
		stop:   make(chan struct{}),
		subs:   make(map[int]*subscriber),
	}
	r.loop = sim.NewLoop(engine, sim.LoopHooks{
		AfterStep: func(tick uint64, outcomes []sim.Outcome) {
			h.deliverOutcomes(roomID, outcomes)
		},
	}, nil)
	go r.loop.Run(r.stop)
	h.rooms[roomID] = r
	return r
}

// Join assigns a seat in the room, registering the connection for
// broadcasts. Teams alternate by join order.
func (h *Hub) Join(roomID string, conn *websocket.Conn) (int, *subscriber, *sim.Engine) {
	h.mu.Lock()
	r := h.ensureRoomLocked(roomID)
	playerID := r.nextSeat
	r.nextSeat++
	team := playerID % teamCount
	r.engine.AddPlayer(playerID, team)
	sub := &subscriber{conn: conn, writeWait: h.cfg.Network.WriteWait}
	r.subs[playerID] = sub
	seated := r.nextSeat
	started := false
	if seated == teamCount && !r.engine.BattleActive() {
		r.engine.StartBattle()
		started = true
	}
	engine := r.engine
	h.mu.Unlock()

	// Broadcasts re-acquire the hub lock; they must run outside it.
	h.BroadcastToRoom(roomID, protocol.EventReadyForBattleUpdate, readyUpdate{
		PlayersJoined: seated,
		PlayersNeeded: teamCount,
	})
	if started {
		h.BroadcastToRoom(roomID, protocol.EventNextRound, roundStart{Tick: engine.Tick()})
	}
	return playerID, sub, engine
}

type readyUpdate struct {
	PlayersJoined int `json:"playersJoined"`
	PlayersNeeded int `json:"playersNeeded"`
}

type roundStart struct {
	Tick uint64 `json:"tick"`
}

// Disconnect drops the subscriber and closes its connection.
func (h *Hub) Disconnect(roomID string, playerID int) {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	var sub *subscriber
	if ok {
		sub = r.subs[playerID]
		delete(r.subs, playerID)
	}
	h.mu.Unlock()
	if sub != nil {
		sub.conn.Close()
	}
}

// Engine exposes a room's engine for diagnostics handlers.
func (h *Hub) Engine(roomID string) (*sim.Engine, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return nil, false
	}
	return r.engine, true
}

// RoomIDs lists the live rooms.
func (h *Hub) RoomIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

// BroadcastToRoom implements protocol.Broadcaster: simulation events reach
// every subscriber in the room. Failed writes drop the subscriber.
func (h *Hub) BroadcastToRoom(roomID, event string, payload any) {
	data, err := proto.EncodeEvent(event, payload)
	if err != nil {
		h.logger.Printf("failed to encode %s broadcast for room %s: %v", event, roomID, err)
		return
	}
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	subs := make(map[int]*subscriber, len(r.subs))
	for id, sub := range r.subs {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.Write(data); err != nil {
			h.Disconnect(roomID, id)
		}
	}
}

// deliverOutcomes acks each processed command to the player that issued it.
func (h *Hub) deliverOutcomes(roomID string, outcomes []sim.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	subs := make(map[int]*subscriber, len(r.subs))
	for id, sub := range r.subs {
		subs[id] = sub
	}
	h.mu.Unlock()

	for _, outcome := range outcomes {
		sub, ok := subs[outcome.PlayerID]
		if !ok {
			continue
		}
		data, err := proto.EncodeCommandAck(proto.CommandAck{
			Seq:    outcome.Seq,
			Tick:   outcome.Tick,
			Result: outcome.Result,
		})
		if err != nil {
			h.logger.Printf("failed to encode ack seq=%d: %v", outcome.Seq, err)
			continue
		}
		if err := sub.Write(data); err != nil {
			h.Disconnect(roomID, outcome.PlayerID)
		}
	}
}

var _ protocol.Broadcaster = (*Hub)(nil)
