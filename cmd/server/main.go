// Package main is the entry point for the room availability server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/api"
	"github.com/room-vacancy/backend/internal/buildings"
	"github.com/room-vacancy/backend/internal/config"
	"github.com/room-vacancy/backend/internal/engine"
	"github.com/room-vacancy/backend/internal/logging"
	"github.com/room-vacancy/backend/internal/places"
	"github.com/room-vacancy/backend/internal/schedule"
	"github.com/room-vacancy/backend/internal/storage"
	"github.com/room-vacancy/backend/internal/storage/models"
	"github.com/room-vacancy/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	configDir := flag.String("config", "", "Directory containing config.yaml")
	addr := flag.String("addr", "", "HTTP server address (default SERVER_ADDR)")
	catalogFile := flag.String("catalog", "", "Course catalog file (default CATALOG_FILE)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *catalogFile != "" {
		cfg.CatalogFile = *catalogFile
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.ServerAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := serve(cfg, logger); err != nil {
		logger.Error("Server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting room availability server", zap.String("version", version))

	if cfg.CatalogFile == "" {
		return errors.New("no catalog file: set CATALOG_FILE or pass -catalog")
	}
	if err := cfg.ValidateGeocoder(); err != nil {
		return err
	}
	window, err := cfg.Window()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.Open(ctx, cfg.DBPath, logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runRepo := storage.NewRunRepository(db)
	if n, err := runRepo.MarkInterrupted(ctx); err != nil {
		logger.Warn("Marking interrupted runs", zap.Error(err))
	} else if n > 0 {
		logger.Info("Marked interrupted runs", zap.Int64("count", n))
	}

	// Place resolution
	table, err := buildings.Load(cfg.BuildingsFile)
	if err != nil {
		return err
	}
	var store places.Store = places.NewJSONStore(cfg.PlacesCacheFile(), cfg.PlacesErrorFile())
	if cfg.CacheBackend == config.CacheBackendSQLite {
		store = storage.NewPlaceRepository(db)
	}
	cache, err := places.LoadCache(ctx, store)
	if err != nil {
		return err
	}
	resolved, failed := cache.Len()
	logger.Info("Place cache loaded",
		zap.String("backend", cfg.CacheBackend),
		zap.Int("resolved", resolved),
		zap.Int("not_found", failed),
	)

	geocoder := places.NewGoogleClient(places.GoogleConfig{
		BaseURL:           cfg.GoogleMapsURL,
		APIKey:            cfg.GoogleAPIKey,
		Bias:              places.LatLng{Lat: cfg.CampusLat, Lng: cfg.CampusLng},
		RequestsPerSecond: cfg.GeocodeRPS,
	})
	resolver := places.NewResolver(cache, geocoder, places.WithLogger(logger.Named("places")))
	aggregator := schedule.NewAggregator(table, resolver, logger.Named("schedule"))

	// Initialize WebSocket hub
	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	runner := engine.NewRunner(
		engine.FileSource{Path: cfg.CatalogFile},
		aggregator,
		window,
		cfg.MinDuration,
		engine.WithOutput(engine.DefaultOutput(cfg.OutDir, cfg.CatalogFile, cfg.SaveSchedule)),
		engine.WithRunStore(runRepo),
		engine.WithEvents(websocket.NewEventBroadcaster(hub, logger.Named("ws"))),
		engine.WithCacheStats(cache),
		engine.WithLogger(logger.Named("engine")),
	)

	scheduler := engine.NewScheduler(runner, cfg.RefreshInterval, logger.Named("scheduler"))
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	scheduler.TriggerNow(models.RunTriggerStartup)

	router := api.NewRouter(api.Dependencies{
		DB:        db,
		Results:   runner,
		Runs:      runRepo,
		Scheduler: scheduler,
		Hub:       hub,
		Logger:    logger.Named("http"),
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			scheduler.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("Shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	host := addr
	if strings.HasPrefix(addr, ":") {
		host = "localhost" + addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
