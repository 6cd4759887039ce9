// Package sim owns the fixed-timestep engine that drives the deterministic
// core: one goroutine advances the store, scheduler and pathfinder in
// lockstep ticks while the transport stages commands through a ring buffer.
package sim

import (
	"math"
	"sync"

	"gridwar/server/internal/abilities"
	"gridwar/server/internal/config"
	"gridwar/server/internal/defs"
	"gridwar/server/internal/ecs"
	"gridwar/server/internal/geom"
	"gridwar/server/internal/grid"
	"gridwar/server/internal/nav"
	"gridwar/server/internal/placement"
	"gridwar/server/internal/protocol"
	"gridwar/server/internal/sched"
	"gridwar/server/internal/telemetry"
	"gridwar/server/logging"
)

const arriveEpsilon = 0.05

// EngineConfig assembles the collaborators and tuning for one room's
// simulation.
type EngineConfig struct {
	RoomID      string
	Simulation  config.Simulation
	Navigation  config.Navigation
	Catalog     *defs.Catalog
	Abilities   *abilities.Registry
	Broadcaster protocol.Broadcaster
	Publisher   logging.Publisher
	Metrics     telemetry.Metrics
	CommandCap  int
}

// Engine is the authoritative simulation for one room. All mutation happens
// on the goroutine calling Step; producers only touch the command buffer.
type Engine struct {
	cfg     EngineConfig
	ctx     *protocol.Context
	buffer  *CommandBuffer
	metrics telemetry.Metrics

	mu           sync.Mutex
	tick         uint64
	dt           float64
	gameTime     float64
	battleActive bool
	battleStart  float64
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Catalog == nil {
		cfg.Catalog = defs.DefaultCatalog()
	}
	if cfg.Abilities == nil {
		cfg.Abilities = abilities.DefaultRegistry()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	if cfg.Simulation.TickRate <= 0 {
		cfg.Simulation.TickRate = 15
	}
	if cfg.CommandCap <= 0 {
		cfg.CommandCap = 256
	}
	store := ecs.NewStore()
	scheduler := sched.NewScheduler(store, cfg.Publisher, cfg.Metrics)
	mesh := nav.NewMesh(nav.Config{
		CacheCapacity:   cfg.Navigation.CacheCapacity,
		CacheTTLSeconds: cfg.Navigation.CacheTTLSeconds,
		RequestsPerTick: cfg.Navigation.RequestsPerTick,
		SmoothingWindow: cfg.Navigation.SmoothingWindow,
	}, cfg.Catalog, cfg.Publisher, cfg.Metrics)
	occupancy := grid.NewOccupancy()
	placements := placement.NewManager(store, occupancy, cfg.Catalog, cfg.Publisher)
	ctx := &protocol.Context{
		Store:         store,
		Scheduler:     scheduler,
		Mesh:          mesh,
		Occupancy:     occupancy,
		Catalog:       cfg.Catalog,
		Placements:    placements,
		Players:       make(map[int]*protocol.PlayerState),
		Broadcaster:   cfg.Broadcaster,
		Publisher:     cfg.Publisher,
		RoomID:        cfg.RoomID,
		CheatsEnabled: cfg.Simulation.CheatsEnabled,
	}
	return &Engine{
		cfg:     cfg,
		ctx:     ctx,
		buffer:  NewCommandBuffer(cfg.CommandCap, cfg.Metrics),
		metrics: cfg.Metrics,
		dt:      1.0 / float64(cfg.Simulation.TickRate),
	}
}

// Context exposes the simulation context for single-goroutine tests. Live
// transports go through Locked instead.
func (e *Engine) Context() *protocol.Context {
	return e.ctx
}

// Locked runs fn with exclusive access to the simulation context. Transports
// use it to seed rooms and read consistent snapshots between ticks.
func (e *Engine) Locked(fn func(*protocol.Context)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.ctx)
}

// Tick reports the current tick number.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// GameTime reports the current simulated time in seconds.
func (e *Engine) GameTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameTime
}

// AddPlayer registers a player seat with starting gold.
func (e *Engine) AddPlayer(id, team int) *protocol.PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	player := &protocol.PlayerState{ID: id, Team: team, Gold: e.cfg.Simulation.StartingGold}
	e.ctx.Players[id] = player
	return player
}

// BakeNavigation builds the nav grid from the world description.
func (e *Engine) BakeNavigation(input nav.BakeInput) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx.Mesh.Bake(input, e.tick)
}

// StartBattle arms the battle duration cap.
func (e *Engine) StartBattle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.battleActive = true
	e.battleStart = e.gameTime
}

// BattleActive reports whether a battle is running.
func (e *Engine) BattleActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.battleActive
}

// Push stages a command for the next tick. False means the buffer is full
// and the transport should reject with a retry hint.
func (e *Engine) Push(cmd Command) bool {
	return e.buffer.Push(cmd)
}

// Step advances exactly one simulation tick: drain staged commands, run
// their process* operations, fire due scheduled actions, resolve a bounded
// batch of path requests, then enforce the battle duration cap.
func (e *Engine) Step() []Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick++
	e.ctx.Tick = e.tick

	commands := e.buffer.Drain()
	outcomes := make([]Outcome, 0, len(commands))
	for _, cmd := range commands {
		result := e.dispatch(cmd)
		if !result.Success {
			e.metrics.Add(telemetry.MetricCommandRejects, 1)
		}
		outcomes = append(outcomes, Outcome{
			Seq:      cmd.Seq,
			PlayerID: cmd.PlayerID,
			Type:     cmd.Type,
			Tick:     e.tick,
			Result:   result,
		})
	}

	e.gameTime += e.dt
	e.ctx.Scheduler.Advance(e.gameTime, e.tick)
	e.ctx.Mesh.ResolvePending(e.gameTime)
	e.advanceMovement()
	e.metrics.Store(telemetry.MetricEntityCount, uint64(e.ctx.Store.Len()))

	if e.battleActive && e.cfg.Simulation.MaxBattleSeconds > 0 &&
		e.gameTime-e.battleStart >= e.cfg.Simulation.MaxBattleSeconds {
		e.battleActive = false
		e.ctx.EndBattle(protocol.RoundResult{WinnerTeam: -1, Timeout: true})
	}
	return outcomes
}

func (e *Engine) dispatch(cmd Command) protocol.Result {
	switch cmd.Type {
	case CommandPlacement:
		if cmd.Placement != nil {
			return e.ctx.ProcessPlacement(*cmd.Placement)
		}
	case CommandSquadTarget:
		if cmd.SquadTarget != nil {
			return e.ctx.ProcessSquadTarget(*cmd.SquadTarget)
		}
	case CommandPurchaseUpgrade:
		if cmd.PurchaseUpgrade != nil {
			return e.ctx.ProcessPurchaseUpgrade(cmd.PlayerID, cmd.PurchaseUpgrade.UpgradeID)
		}
	case CommandCancelBuilding:
		if cmd.CancelBuilding != nil {
			return e.ctx.ProcessCancelBuilding(cmd.PlayerID, cmd.CancelBuilding.PlacementID)
		}
	case CommandUpgradeBuilding:
		if cmd.UpgradeBuilding != nil {
			return e.ctx.ProcessUpgradeBuilding(*cmd.UpgradeBuilding)
		}
	case CommandReplaceUnit:
		if cmd.ReplaceUnit != nil {
			return e.ctx.ReplaceUnit(*cmd.ReplaceUnit)
		}
	case CommandCast:
		if cmd.Cast != nil {
			return e.castAbility(cmd.PlayerID, cmd.Cast)
		}
	case CommandCheat:
		if cmd.Cheat != nil {
			return e.ctx.ProcessCheat(cmd.PlayerID, cmd.Cheat.Gold)
		}
	case CommandSyncPlacementID:
		if cmd.SyncPlacementID != nil {
			e.ctx.Placements.SyncNextPlacementID(cmd.SyncPlacementID.Next, e.tick)
			return protocol.Result{Success: true}
		}
	}
	return protocol.Result{Success: false, Reason: protocol.ReasonNotFound}
}

// castAbility resolves and executes a registered ability. Players may only
// cast through entities they own.
func (e *Engine) castAbility(playerID int, cmd *CastCommand) protocol.Result {
	ability, ok := e.cfg.Abilities.Lookup(cmd.AbilityID)
	if !ok {
		return protocol.Result{Success: false, Reason: protocol.ReasonNotFound}
	}
	caster := ecs.EntityID(cmd.CasterID)
	data, ok := e.ctx.Store.GetComponent(caster, ecs.CompPlacement)
	if !ok {
		return protocol.Result{Success: false, Reason: protocol.ReasonNotFound}
	}
	if data.(*ecs.Placement).PlayerID != playerID {
		return protocol.Result{Success: false, Reason: protocol.ReasonNotOwned}
	}
	if !ability.CanExecute(e.ctx, caster) {
		return protocol.Result{Success: false, Reason: protocol.ReasonNotFound}
	}
	return ability.Execute(e.ctx, caster)
}

// advanceMovement integrates unit velocity toward each squad target and
// stops on arrival. Iterates in ascending entity order.
func (e *Engine) advanceMovement() {
	store := e.ctx.Store
	for _, id := range store.EntitiesWith(ecs.CompVelocity, ecs.CompTransform, ecs.CompPlacement, ecs.CompUnitType) {
		velocityAny, _ := store.GetComponent(id, ecs.CompVelocity)
		velocity := velocityAny.(*ecs.Velocity)
		if velocity.DX == 0 && velocity.DZ == 0 {
			continue
		}
		transformAny, _ := store.GetComponent(id, ecs.CompTransform)
		transform := transformAny.(*ecs.Transform)
		placementAny, _ := store.GetComponent(id, ecs.CompPlacement)
		target := placementAny.(*ecs.Placement).TargetPosition
		unitTypeAny, _ := store.GetComponent(id, ecs.CompUnitType)
		unitType := unitTypeAny.(*ecs.UnitType)
		speed := 1.0
		if def, ok := e.cfg.Catalog.Unit(unitType.Collection, unitType.TypeIndex); ok && def.MoveSpeed > 0 {
			speed = def.MoveSpeed
		}
		remaining := geom.Dist(transform.Position, target)
		stepLen := speed * e.dt
		if remaining <= stepLen+arriveEpsilon {
			transform.Position = target
			velocity.DX = 0
			velocity.DZ = 0
			continue
		}
		transform.Position.X += velocity.DX * stepLen
		transform.Position.Z += velocity.DZ * stepLen
		transform.Rotation = math.Atan2(velocity.DX, velocity.DZ)
	}
}
