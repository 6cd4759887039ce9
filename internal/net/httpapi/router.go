// Package httpapi assembles the HTTP surface around the simulation: the
// websocket endpoint, health and debug handlers, and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridwar/server/internal/config"
	"gridwar/server/internal/net/ws"
	"gridwar/server/internal/protocol"
)

// RouterConfig carries the router dependencies. NewRouter is pure: no
// goroutines, no listeners, safe under httptest.
type RouterConfig struct {
	Config config.Config
	Hub    *ws.Hub
	Logger *log.Logger

	// RateLimiter overrides the default per-IP limiter; tests pass a
	// high-limit one.
	RateLimiter *IPRateLimiter
}

// NewRouter builds the chi router with middleware and routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = NewIPRateLimiter(RateLimitConfig{
			RequestsPerSecond: cfg.Config.Network.RequestsPerSecond,
			Burst:             cfg.Config.Network.Burst,
		})
	}
	r.Use(limiter.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Config.Network.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Config.Network.AllowedOrigins),
	}
	session := ws.NewSession(cfg.Hub, logger)

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		roomID := req.URL.Query().Get("room")
		if roomID == "" {
			roomID = "default"
		}
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Printf("websocket upgrade failed: %v", err)
			return
		}
		go session.Serve(roomID, conn)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"rooms":  cfg.Hub.RoomIDs(),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	if cfg.Config.Navigation.DebugViewEnabled {
		r.Get("/debug/navgrid", func(w http.ResponseWriter, req *http.Request) {
			handleNavGrid(w, req, cfg.Hub)
		})
	}

	return r
}

// handleNavGrid dumps the room's baked navigation cells for inspection.
func handleNavGrid(w http.ResponseWriter, req *http.Request, hub *ws.Hub) {
	roomID := req.URL.Query().Get("room")
	if roomID == "" {
		roomID = "default"
	}
	engine, ok := hub.Engine(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	var (
		baked bool
		cols  int
		rows  int
		cells []uint8
	)
	engine.Locked(func(ctx *protocol.Context) {
		if grid := ctx.Mesh.Grid(); grid != nil {
			baked = true
			cols = grid.Cols()
			rows = grid.Rows()
			cells = grid.DebugCells()
		}
	})
	if !baked {
		http.Error(w, "navigation grid not baked", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Room  string  `json:"room"`
		Cols  int     `json:"cols"`
		Rows  int     `json:"rows"`
		Cells []uint8 `json:"cells"`
	}{roomID, cols, rows, cells})
}

// originChecker permits the configured origins; "*" allows everything, which
// is the development default.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || candidate == origin {
				return true
			}
		}
		return false
	}
}
