package sim

import (
	"context"
	"time"

	"gridwar/server/internal/telemetry"
	"gridwar/server/logging"
	simlog "gridwar/server/logging/simulation"
)

// LoopHooks lets the transport observe each tick without the engine knowing
// about websockets.
type LoopHooks struct {
	// AfterStep runs on the loop goroutine with the outcomes of the tick.
	AfterStep func(tick uint64, outcomes []Outcome)
}

// Loop drives an Engine at a fixed wall-clock rate. Simulated time always
// advances by exactly one tick per firing; wall-clock jitter changes when
// ticks happen, never how much simulated time they cover.
type Loop struct {
	engine  *Engine
	hooks   LoopHooks
	clock   logging.Clock
	pub     logging.Publisher
	metrics telemetry.Metrics
}

func NewLoop(engine *Engine, hooks LoopHooks, clock logging.Clock) *Loop {
	if engine == nil {
		return nil
	}
	if clock == nil {
		clock = logging.SystemClock{}
	}
	return &Loop{
		engine:  engine,
		hooks:   hooks,
		clock:   clock,
		pub:     engine.cfg.Publisher,
		metrics: engine.metrics,
	}
}

// Run ticks the engine until the stop channel closes.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.engine.cfg.Simulation.TickRate
	budget := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			start := l.clock.Now()
			outcomes := l.engine.Step()
			elapsed := l.clock.Now().Sub(start)
			l.metrics.ObserveTick(elapsed.Seconds())
			if elapsed > budget {
				simlog.TickBudgetExceeded(context.Background(), l.pub, l.engine.Tick(),
					simlog.TickBudgetExceededPayload{
						DurationMillis: elapsed.Milliseconds(),
						BudgetMillis:   budget.Milliseconds(),
					})
			}
			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(l.engine.Tick(), outcomes)
			}
		}
	}
}
