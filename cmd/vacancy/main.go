// Package main computes room availability for one course catalog file and
// writes the vacancy report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/buildings"
	"github.com/room-vacancy/backend/internal/config"
	"github.com/room-vacancy/backend/internal/engine"
	"github.com/room-vacancy/backend/internal/logging"
	"github.com/room-vacancy/backend/internal/places"
	"github.com/room-vacancy/backend/internal/schedule"
	"github.com/room-vacancy/backend/internal/storage"
	"github.com/room-vacancy/backend/internal/storage/models"
)

type options struct {
	configDir   string
	start       string
	end         string
	minDuration int
	save        bool
	output      string
	diagnostic  bool
	input       string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, cfg, opts, logger)
	if err != nil {
		logger.Error("Availability run failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
	fmt.Printf("Found %d locations\n", len(result.Report))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("vacancy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: vacancy [flags] <catalog.json>")
		fmt.Fprintln(stderr, "Calculates when each room is available based on the class schedule.")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configDir, "config", "", "Directory containing config.yaml")
	fs.StringVar(&opts.start, "start", "", "Start of the daily window, HH:MM (default DAY_START)")
	fs.StringVar(&opts.end, "end", "", "End of the daily window, HH:MM (default DAY_END)")
	fs.IntVar(&opts.minDuration, "min-duration", -1, "Minimum free slot length in minutes (default MIN_DURATION)")
	fs.BoolVar(&opts.save, "save", false, "Also write the intermediate busy schedule")
	fs.StringVar(&opts.output, "output", "", "Report file (default <OUT_DIR>/Vacancy-<input file name>)")
	fs.BoolVar(&opts.diagnostic, "diagnostic", false, "Log the underlying geocoder error for unresolved places")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return options{}, fmt.Errorf("expected one input file, got %d", fs.NArg())
	}
	opts.input = fs.Arg(0)
	return opts, nil
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	var paths []string
	if opts.configDir != "" {
		paths = append(paths, opts.configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}

	if opts.start != "" {
		cfg.DayStart = opts.start
	}
	if opts.end != "" {
		cfg.DayEnd = opts.end
	}
	if opts.minDuration >= 0 {
		cfg.MinDuration = opts.minDuration
	}
	if opts.save {
		cfg.SaveSchedule = true
	}
	if opts.input != "" {
		cfg.CatalogFile = opts.input
	}
	if cfg.CatalogFile == "" {
		return nil, errors.New("no input file: pass one as an argument or set CATALOG_FILE")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateGeocoder(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) (*engine.Result, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}

	table, err := buildings.Load(cfg.BuildingsFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded building table", zap.String("file", cfg.BuildingsFile), zap.Int("entries", table.Len()))

	store, closeStore, err := openCacheStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	cache, err := places.LoadCache(ctx, store)
	if err != nil {
		return nil, err
	}

	geocoder := places.NewGoogleClient(places.GoogleConfig{
		BaseURL:           cfg.GoogleMapsURL,
		APIKey:            cfg.GoogleAPIKey,
		Bias:              places.LatLng{Lat: cfg.CampusLat, Lng: cfg.CampusLng},
		RequestsPerSecond: cfg.GeocodeRPS,
	})
	resolver := places.NewResolver(cache, geocoder,
		places.WithDiagnostics(opts.diagnostic),
		places.WithLogger(logger.Named("places")),
	)
	aggregator := schedule.NewAggregator(table, resolver, logger.Named("schedule"))

	output := engine.DefaultOutput(cfg.OutDir, cfg.CatalogFile, cfg.SaveSchedule)
	if opts.output != "" {
		output.VacancyPath = opts.output
	}

	runner := engine.NewRunner(
		engine.FileSource{Path: cfg.CatalogFile},
		aggregator,
		window,
		cfg.MinDuration,
		engine.WithOutput(output),
		engine.WithCacheStats(cache),
		engine.WithLogger(logger),
	)
	return runner.Run(ctx, models.RunTriggerManual)
}

// openCacheStore returns the configured place cache store and a func that
// releases it.
func openCacheStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (places.Store, func(), error) {
	if cfg.CacheBackend != config.CacheBackendSQLite {
		return places.NewJSONStore(cfg.PlacesCacheFile(), cfg.PlacesErrorFile()), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewPlaceRepository(db), func() { db.Close() }, nil
}
