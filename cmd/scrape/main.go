// Package main downloads one semester's course catalog from the Schedge API.
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
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/catalog"
	"github.com/room-vacancy/backend/internal/config"
	"github.com/room-vacancy/backend/internal/jsonfile"
	"github.com/room-vacancy/backend/internal/logging"
)

type options struct {
	configDir string
	semester  string
	year      int
	schools   []string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	var paths []string
	if opts.configDir != "" {
		paths = append(paths, opts.configDir)
	}
	cfg, err := config.Load(paths...)
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

	if err := scrape(ctx, cfg, opts, logger); err != nil {
		logger.Error("Scrape failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	var schools string
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: scrape -semester <fa|su|sp|ja> -year <year> [-schools UA,GY]")
		fmt.Fprintln(stderr, "Scrapes a semester's class schedule from the Schedge API.")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configDir, "config", "", "Directory containing config.yaml")
	fs.StringVar(&opts.semester, "semester", "", "Semester code: "+strings.Join(catalog.Semesters, ", "))
	fs.IntVar(&opts.year, "year", 0, "Year, e.g. 2022")
	fs.StringVar(&schools, "schools", "", "Comma-separated schools to keep (default all)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.semester == "" || opts.year == 0 {
		fs.Usage()
		return options{}, errors.New("-semester and -year are required")
	}
	if err := catalog.ValidateSemester(opts.semester); err != nil {
		fmt.Fprintln(stderr, err)
		return options{}, err
	}
	for _, s := range strings.Split(schools, ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.schools = append(opts.schools, s)
		}
	}
	return opts, nil
}

func scrape(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) error {
	client := catalog.NewClient(cfg.SchedgeURL, 60*time.Second, logger.Named("schedge"))

	subjects, err := client.Subjects(ctx)
	if err != nil {
		return err
	}
	subjectsPath := filepath.Join(cfg.DataDir, "subjects.json")
	if err := jsonfile.Write(subjectsPath, subjects); err != nil {
		return err
	}
	logger.Info("Saved", zap.String("file", subjectsPath), zap.Int("schools", len(subjects)))

	selected, err := subjects.Filter(opts.schools)
	if err != nil {
		return err
	}

	courses, err := client.FetchCourses(ctx, opts.year, opts.semester, selected,
		func(school, code string, done, total int) {
			logger.Info("Fetching subject",
				zap.String("school", school),
				zap.String("code", code),
				zap.String("progress", fmt.Sprintf("%d/%d", done+1, total)),
			)
		})
	if err != nil {
		return err
	}

	out := catalog.Path(cfg.DataDir, opts.year, opts.semester, opts.schools)
	if err := jsonfile.Write(out, courses); err != nil {
		return err
	}
	logger.Info("Saved", zap.String("file", out), zap.Int("courses", len(courses)))
	return nil
}
