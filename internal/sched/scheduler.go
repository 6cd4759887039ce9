// Package sched is the sole mechanism for "do X after Y seconds" inside the
// simulation. Delays are expressed in simulated game time so that every
// peer fires the same callbacks on the same tick; nothing in the repo may
// fall back to wall-clock timers for gameplay effects.
package sched

import (
	"container/heap"
	"context"
	"fmt"

	"gridwar/server/internal/ecs"
	"gridwar/server/internal/telemetry"
	"gridwar/server/logging"
	"gridwar/server/logging/simulation"
)

// EntityChecker answers whether an owning entity is still alive. Ownership
// is the only cancellation mechanism: actions whose owner died before their
// fire time are silently dropped.
type EntityChecker interface {
	EntityExists(ecs.EntityID) bool
}

type action struct {
	fireAt float64
	seq    uint64
	owner  ecs.EntityID
	fn     func()
	index  int
}

type actionQueue []*action

func (q actionQueue) Len() int { return len(q) }

func (q actionQueue) Less(i, j int) bool {
	if q[i].fireAt != q[j].fireAt {
		return q[i].fireAt < q[j].fireAt
	}
	// Equal fire times run in scheduling order.
	return q[i].seq < q[j].seq
}

func (q actionQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *actionQueue) Push(x any) {
	item := x.(*action)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *actionQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// Scheduler queues callbacks against simulated time. It is advanced once
// per tick by the owning engine and is not safe for concurrent use.
type Scheduler struct {
	now      float64
	seq      uint64
	pending  actionQueue
	entities EntityChecker
	pub      logging.Publisher
	metrics  telemetry.Metrics
}

func NewScheduler(entities EntityChecker, pub logging.Publisher, metrics telemetry.Metrics) *Scheduler {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	s := &Scheduler{
		entities: entities,
		pub:      pub,
		metrics:  metrics,
	}
	heap.Init(&s.pending)
	return s
}

// Now reports the current simulated time in seconds.
func (s *Scheduler) Now() float64 {
	return s.now
}

// Len reports the number of pending actions.
func (s *Scheduler) Len() int {
	return len(s.pending)
}

// Schedule registers fn to fire once simulated time reaches now+delay.
// A non-zero owner ties the action's life to that entity. Negative delays
// clamp to zero and fire on the next advance.
func (s *Scheduler) Schedule(fn func(), delaySeconds float64, owner ecs.EntityID) {
	if fn == nil {
		return
	}
	if delaySeconds < 0 {
		delaySeconds = 0
	}
	s.seq++
	heap.Push(&s.pending, &action{
		fireAt: s.now + delaySeconds,
		seq:    s.seq,
		owner:  owner,
		fn:     fn,
	})
}

// Advance moves simulated time forward and fires every due action in
// ascending (fire time, scheduling order). Each callback runs to completion
// synchronously; a panic in one callback is recovered and logged without
// stopping the rest of the batch.
func (s *Scheduler) Advance(to float64, tick uint64) {
	if to < s.now {
		return
	}
	s.now = to
	for len(s.pending) > 0 && s.pending[0].fireAt <= s.now {
		next := heap.Pop(&s.pending).(*action)
		if next.owner != 0 && s.entities != nil && !s.entities.EntityExists(next.owner) {
			continue
		}
		s.run(next, tick)
	}
}

func (s *Scheduler) run(a *action, tick uint64) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.Add(telemetry.MetricScheduledPanics, 1)
			simulation.ScheduledActionPanicked(context.Background(), s.pub, tick, simulation.ScheduledActionPanickedPayload{
				Owner: int64(a.owner),
				Panic: fmt.Sprint(r),
			})
		}
	}()
	s.metrics.Add(telemetry.MetricScheduledActions, 1)
	a.fn()
}
