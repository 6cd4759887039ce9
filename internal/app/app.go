// Package app wires configuration, logging, metrics, the websocket hub and
// the HTTP server into a runnable process.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"gridwar/server/internal/config"
	"gridwar/server/internal/defs"
	"gridwar/server/internal/net/httpapi"
	"gridwar/server/internal/net/ws"
	"gridwar/server/internal/telemetry"
	"gridwar/server/internal/worldmap"
	"gridwar/server/logging"
	loggingsinks "gridwar/server/logging/sinks"
)

// Run starts the server and blocks until the HTTP listener fails or the
// context is cancelled.
func Run(ctx context.Context) error {
	cfg := config.Load()
	fallback := log.Default()

	logConfig := logging.DefaultConfig()
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, fallback, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			fallback.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := telemetry.NewPrometheusMetrics()
	catalog := defs.DefaultCatalog()
	battlefield := worldmap.Default(catalog)

	hub := ws.NewHub(ws.HubConfig{
		Config:      cfg,
		Catalog:     catalog,
		Pub:         router,
		Metrics:     metrics,
		Logger:      fallback,
		Battlefield: battlefield,
	})
	defer hub.Close()

	handler := httpapi.NewRouter(httpapi.RouterConfig{
		Config: cfg,
		Hub:    hub,
		Logger: fallback,
	})

	srv := &http.Server{Addr: cfg.Network.ListenAddr, Handler: handler}
	fallback.Printf("server listening on %s", srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownErr := srv.Shutdown(context.Background())
		<-errCh
		return shutdownErr
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
}
