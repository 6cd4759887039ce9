// Package config centralizes runtime configuration for the simulation
// server. Values come from environment variables, optionally loaded from a
// .env file, with typed fallbacks.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Simulation tunes the deterministic core.
type Simulation struct {
	TickRate         int     // simulation ticks per second
	MaxBattleSeconds float64 // forced battle timeout in simulated seconds
	StartingGold     int
	CheatsEnabled    bool
}

// Navigation tunes the pathfinding engine.
type Navigation struct {
	CacheCapacity    int
	CacheTTLSeconds  float64 // simulated seconds before a cached path expires
	RequestsPerTick  int     // batched path queries resolved per tick
	SmoothingWindow  int     // bounded smoothing look-ahead in waypoints
	DebugViewEnabled bool
}

// Network tunes the transport surface around the core.
type Network struct {
	ListenAddr        string
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	WriteWait         time.Duration
}

// Config aggregates every section.
type Config struct {
	Simulation Simulation
	Navigation Navigation
	Network    Network
}

// Load reads the optional .env file and resolves the full configuration.
func Load() Config {
	// Missing .env is the common case in production; env vars still apply.
	_ = godotenv.Load()
	return Config{
		Simulation: Simulation{
			TickRate:         getEnvInt("SIM_TICK_RATE", 15),
			MaxBattleSeconds: getEnvFloat("SIM_MAX_BATTLE_SECONDS", 180),
			StartingGold:     getEnvInt("SIM_STARTING_GOLD", 500),
			CheatsEnabled:    getEnvBool("SIM_CHEATS_ENABLED", false),
		},
		Navigation: Navigation{
			CacheCapacity:    getEnvInt("NAV_CACHE_CAPACITY", 256),
			CacheTTLSeconds:  getEnvFloat("NAV_CACHE_TTL_SECONDS", 2),
			RequestsPerTick:  getEnvInt("NAV_REQUESTS_PER_TICK", 8),
			SmoothingWindow:  getEnvInt("NAV_SMOOTHING_WINDOW", 6),
			DebugViewEnabled: getEnvBool("NAV_DEBUG_VIEW", false),
		},
		Network: Network{
			ListenAddr:        getEnvString("LISTEN_ADDR", ":8080"),
			AllowedOrigins:    []string{getEnvString("ALLOWED_ORIGIN", "*")},
			RequestsPerSecond: getEnvFloat("HTTP_REQUESTS_PER_SECOND", 10),
			Burst:             getEnvInt("HTTP_BURST", 20),
			WriteWait:         getEnvDuration("WS_WRITE_WAIT", 10*time.Second),
		},
	}
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
