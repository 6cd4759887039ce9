package sched

import (
	"testing"

	"gridwar/server/internal/ecs"
)

func TestAdvanceFiresInFireTimeOrder(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	var order []string
	s.Schedule(func() { order = append(order, "late") }, 2.0, 0)
	s.Schedule(func() { order = append(order, "early") }, 1.0, 0)

	s.Advance(3.0, 1)
	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Fatalf("expected [early late], got %v", order)
	}
}

func TestEqualFireTimesRunInSchedulingOrder(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	var order []string
	s.Schedule(func() { order = append(order, "Z") }, 0.5, 0)
	s.Schedule(func() { order = append(order, "X") }, 0.5, 0)
	s.Schedule(func() { order = append(order, "Y") }, 0.1, 0)

	s.Advance(1.0, 1)
	want := []string{"Y", "Z", "X"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestActionsWaitForSimulatedTime(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	fired := false
	s.Schedule(func() { fired = true }, 5.0, 0)

	s.Advance(4.999, 1)
	if fired {
		t.Fatalf("action fired before its simulated fire time")
	}
	s.Advance(5.0, 2)
	if !fired {
		t.Fatalf("action did not fire at its simulated fire time")
	}
}

func TestDeadOwnerDropsAction(t *testing.T) {
	store := ecs.NewStore()
	s := NewScheduler(store, nil, nil)
	owner := store.CreateEntity()

	fired := false
	s.Schedule(func() { fired = true }, 1.0, owner)
	store.DestroyEntity(owner)

	s.Advance(2.0, 1)
	if fired {
		t.Fatalf("action owned by destroyed entity must not fire")
	}
	if s.Len() != 0 {
		t.Fatalf("dropped action still pending")
	}
}

func TestZeroOwnerOutlivesEntities(t *testing.T) {
	store := ecs.NewStore()
	s := NewScheduler(store, nil, nil)
	fired := false
	s.Schedule(func() { fired = true }, 1.0, 0)
	s.Advance(1.0, 1)
	if !fired {
		t.Fatalf("ownerless action should always fire")
	}
}

func TestNegativeDelayClampsToNextAdvance(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	fired := false
	s.Schedule(func() { fired = true }, -3.0, 0)
	s.Advance(0.001, 1)
	if !fired {
		t.Fatalf("negative delay should fire on the next advance")
	}
}

func TestPanicInActionDoesNotStopBatch(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	fired := false
	s.Schedule(func() { panic("boom") }, 0.5, 0)
	s.Schedule(func() { fired = true }, 0.5, 0)

	s.Advance(1.0, 1)
	if !fired {
		t.Fatalf("panic in one action stopped the rest of the batch")
	}
}

func TestScheduleDuringAdvance(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	count := 0
	var chain func()
	chain = func() {
		count++
		if count < 3 {
			s.Schedule(chain, 1.0, 0)
		}
	}
	s.Schedule(chain, 1.0, 0)

	for i := 1; i <= 3; i++ {
		s.Advance(float64(i), uint64(i))
	}
	if count != 3 {
		t.Fatalf("expected chained action to fire 3 times, got %d", count)
	}
}
