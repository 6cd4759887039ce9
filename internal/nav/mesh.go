package nav

import (
	"context"

	"gridwar/server/internal/geom"
	"gridwar/server/internal/telemetry"
	"gridwar/server/logging"
	"gridwar/server/logging/simulation"
)

// Config tunes caching, batching and smoothing.
type Config struct {
	CacheCapacity   int
	CacheTTLSeconds float64
	RequestsPerTick int
	SmoothingWindow int
}

func DefaultConfig() Config {
	return Config{
		CacheCapacity:   256,
		CacheTTLSeconds: 2,
		RequestsPerTick: 8,
		SmoothingWindow: 6,
	}
}

// Mesh is the pathfinding engine: a baked grid plus the path cache and the
// batched request queue.
type Mesh struct {
	cfg     Config
	terrain TerrainClassifier
	grid    *Grid
	cache   *pathCache
	queue   requestQueue
	pub     logging.Publisher
	metrics telemetry.Metrics
}

func NewMesh(cfg Config, terrain TerrainClassifier, pub logging.Publisher, metrics telemetry.Metrics) *Mesh {
	if cfg.RequestsPerTick <= 0 {
		cfg.RequestsPerTick = DefaultConfig().RequestsPerTick
	}
	if cfg.SmoothingWindow <= 0 {
		cfg.SmoothingWindow = DefaultConfig().SmoothingWindow
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Mesh{
		cfg:     cfg,
		terrain: terrain,
		cache:   newPathCache(cfg.CacheCapacity, cfg.CacheTTLSeconds),
		pub:     pub,
		metrics: metrics,
	}
}

// Bake rebuilds the grid from the world description and drops every cached
// path. Must be called again whenever terrain or static obstacles change.
func (m *Mesh) Bake(input BakeInput, tick uint64) {
	m.grid = bakeGrid(input, m.terrain)
	m.cache.clear()
	walkable := 0
	blocked := 0
	for row := 0; row < m.grid.rows; row++ {
		for col := 0; col < m.grid.cols; col++ {
			if m.grid.cellWalkable(col, row) {
				walkable++
			} else {
				blocked++
			}
		}
	}
	simulation.NavGridBaked(context.Background(), m.pub, tick, simulation.NavGridBakedPayload{
		Cols:     m.grid.cols,
		Rows:     m.grid.rows,
		Blocked:  blocked,
		Walkable: walkable,
	})
}

// Grid exposes the baked grid for the debug view. Nil before the first bake.
func (m *Mesh) Grid() *Grid {
	return m.grid
}

// FindPath answers a query immediately, consulting the cache first. A nil
// result means the start position itself is unusable; an unreachable target
// yields the closest reachable path instead.
func (m *Mesh) FindPath(start, target geom.Vec2, now float64) []geom.Vec2 {
	if m.grid == nil {
		return nil
	}
	key := cacheKey(start, target, m.grid.cellSize)
	if path, ok := m.cache.get(key, now); ok {
		m.metrics.Add(telemetry.MetricPathCacheHits, 1)
		return path
	}
	m.metrics.Add(telemetry.MetricPathCacheMisses, 1)
	path := m.grid.findPath(start, target, m.cfg.SmoothingWindow)
	if path != nil {
		m.cache.put(key, path, now)
	}
	return path
}

// HasDirectWalkablePath reports straight-line reachability between two
// world positions under the full transition rules.
func (m *Mesh) HasDirectWalkablePath(from, to geom.Vec2) bool {
	if m.grid == nil {
		return false
	}
	return m.grid.lineOfSight(from, to)
}

// IsWalkable reports whether a world position can be stood on.
func (m *Mesh) IsWalkable(pos geom.Vec2) bool {
	if m.grid == nil {
		return false
	}
	col, row, ok := m.grid.locate(pos)
	if !ok {
		return false
	}
	return m.grid.cellWalkable(col, row)
}

// RequestPath queues a query for batched resolution. A newer request from
// the same entity replaces the queued one.
func (m *Mesh) RequestPath(req Request) {
	m.metrics.Add(telemetry.MetricPathRequests, 1)
	m.queue.push(req)
}

// ResolvePending answers at most the configured number of queued requests
// and returns how many were resolved. Called once per simulation tick.
func (m *Mesh) ResolvePending(now float64) int {
	batch := m.queue.take(m.cfg.RequestsPerTick)
	for _, req := range batch {
		path := m.FindPath(req.Start, req.Target, now)
		if req.Resolve != nil {
			req.Resolve(path)
		}
	}
	return len(batch)
}

// PendingRequests reports the queued request count.
func (m *Mesh) PendingRequests() int {
	return m.queue.len()
}

// CachedPaths reports the live cache entry count.
func (m *Mesh) CachedPaths() int {
	return m.cache.len()
}
