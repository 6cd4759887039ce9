package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Simulation.TickRate != 15 {
		t.Fatalf("default tick rate: %d", cfg.Simulation.TickRate)
	}
	if cfg.Simulation.MaxBattleSeconds != 180 {
		t.Fatalf("default battle cap: %v", cfg.Simulation.MaxBattleSeconds)
	}
	if cfg.Simulation.CheatsEnabled {
		t.Fatalf("cheats must default off")
	}
	if cfg.Navigation.RequestsPerTick != 8 || cfg.Navigation.SmoothingWindow != 6 {
		t.Fatalf("navigation defaults: %+v", cfg.Navigation)
	}
	if cfg.Network.ListenAddr != ":8080" {
		t.Fatalf("default listen addr: %q", cfg.Network.ListenAddr)
	}
	if cfg.Network.WriteWait != 10*time.Second {
		t.Fatalf("default write wait: %v", cfg.Network.WriteWait)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SIM_TICK_RATE", "30")
	t.Setenv("SIM_STARTING_GOLD", "750")
	t.Setenv("SIM_CHEATS_ENABLED", "true")
	t.Setenv("NAV_CACHE_TTL_SECONDS", "4.5")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("WS_WRITE_WAIT", "3s")

	cfg := Load()
	if cfg.Simulation.TickRate != 30 || cfg.Simulation.StartingGold != 750 {
		t.Fatalf("simulation overrides not applied: %+v", cfg.Simulation)
	}
	if !cfg.Simulation.CheatsEnabled {
		t.Fatalf("cheat flag not applied")
	}
	if cfg.Navigation.CacheTTLSeconds != 4.5 {
		t.Fatalf("ttl override not applied: %v", cfg.Navigation.CacheTTLSeconds)
	}
	if cfg.Network.ListenAddr != ":9999" || cfg.Network.WriteWait != 3*time.Second {
		t.Fatalf("network overrides not applied: %+v", cfg.Network)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SIM_TICK_RATE", "fast")
	t.Setenv("NAV_CACHE_TTL_SECONDS", "soon")
	t.Setenv("WS_WRITE_WAIT", "whenever")

	cfg := Load()
	if cfg.Simulation.TickRate != 15 {
		t.Fatalf("malformed int should fall back, got %d", cfg.Simulation.TickRate)
	}
	if cfg.Navigation.CacheTTLSeconds != 2 {
		t.Fatalf("malformed float should fall back, got %v", cfg.Navigation.CacheTTLSeconds)
	}
	if cfg.Network.WriteWait != 10*time.Second {
		t.Fatalf("malformed duration should fall back, got %v", cfg.Network.WriteWait)
	}
}
