package logging_test

import (
	"context"
	"testing"
	"time"

	"gridwar/server/logging"
	"gridwar/server/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	clock := logging.ClockFunc(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	router, err := logging.NewRouter(cfg, clock, nil, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, memory
}

func TestRouterDeliversInOrder(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	router, memory := newMemoryRouter(t, cfg)

	for tick := uint64(1); tick <= 3; tick++ {
		router.Publish(context.Background(), logging.Event{
			Type:     "unit_spawned",
			Tick:     tick,
			Severity: logging.SeverityInfo,
		})
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, event := range events {
		if event.Tick != uint64(i+1) {
			t.Fatalf("delivery order broken: %+v", events)
		}
		if event.Time.IsZero() {
			t.Fatalf("router did not stamp the event time")
		}
	}
	if stats := router.Stats(); stats.EventsTotal != 3 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "debug_noise", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "tick_budget", Severity: logging.SeverityWarn})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "tick_budget" {
		t.Fatalf("severity filter broken: %+v", events)
	}
}

func TestRouterMergesConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.Fields = map[string]any{"service": "gridwar", "region": "eu"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{
		Type:     "round_started",
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"region": "us"},
	})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	extra := events[0].Extra
	if extra["service"] != "gridwar" {
		t.Fatalf("configured field not merged: %+v", extra)
	}
	// Event-level fields win over router fields.
	if extra["region"] != "us" {
		t.Fatalf("event field overwritten: %+v", extra)
	}
}

func TestRouterSkipsDisabledSinks(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"console"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "unit_spawned", Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(memory.Events()) != 0 {
		t.Fatalf("disabled sink still received events")
	}
	if router.Sink("memory") != nil {
		t.Fatalf("disabled sink should not be registered")
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	router, memory := newMemoryRouter(t, cfg)
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})
	if len(memory.Events()) != 0 {
		t.Fatalf("closed router delivered an event")
	}
}
