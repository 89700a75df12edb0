package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/fpldata/pkg/config"
	"github.com/malbeclabs/fpldata/pkg/fpl"
	"github.com/malbeclabs/fpldata/pkg/ingest"
	"github.com/malbeclabs/fpldata/pkg/logger"
	"github.com/malbeclabs/fpldata/pkg/metrics"
	"github.com/malbeclabs/fpldata/pkg/pg"
	"github.com/malbeclabs/fpldata/pkg/server"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// Pipeline tuning
	dryRunFlag := flag.Bool("dry-run", false, "fetch and parse everything but write nothing")
	skipHistoryFlag := flag.Bool("skip-history", false, "skip the per-player history fetch")
	skipLiveFlag := flag.Bool("skip-live", false, "skip the live gameweek fetch")
	teamsFlag := flag.IntSlice("teams", nil, "restrict the run to these team ids")
	playersFlag := flag.IntSlice("players", nil, "restrict the run to these player ids")
	workersFlag := flag.Int("workers", 0, "parallel fetch workers (or set FPL_PARALLEL_WORKERS env var)")

	// Storage
	migrateFlag := flag.Bool("migrate", false, "run database migrations before ingesting")

	// Serve mode
	serveFlag := flag.Bool("serve", false, "run continuously with health and metrics endpoints")
	listenAddrFlag := flag.String("listen-addr", "0.0.0.0:8080", "address to listen on in serve mode")
	refreshIntervalFlag := flag.Duration("refresh-interval", time.Hour, "pause between pipeline runs in serve mode")

	flag.Parse()

	log := logger.New(*verboseFlag)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *workersFlag > 0 {
		cfg.ParallelWorkers = *workersFlag
	}

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	apiClient, err := fpl.NewClient(fpl.ClientConfig{
		Logger:  log,
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	// A dry run never touches the database, so none of the storage pieces
	// are set up for it.
	var store *ingest.Store
	if !*dryRunFlag {
		if *migrateFlag {
			if err := pg.Migrate(log, cfg.Postgres.DSN()); err != nil {
				return err
			}
		}

		db, err := pg.NewClient(ctx, pg.Config{
			Logger:  log,
			ConnStr: cfg.Postgres.DSN(),
		})
		if err != nil {
			return err
		}
		defer db.Close()

		store, err = ingest.NewStore(ingest.StoreConfig{
			Logger:              log,
			DB:                  db,
			BatchSize:           cfg.BatchSize,
			SmallBatchSize:      cfg.SmallBatchSize,
			BulkInsertThreshold: cfg.BulkInsertThreshold,
			Maintenance: pg.MaintenanceConfig{
				Enabled:   cfg.EnableMaintenance,
				Threshold: cfg.MaintenanceThreshold,
			},
		})
		if err != nil {
			return err
		}
	}

	pipeline, err := ingest.NewPipeline(ingest.PipelineConfig{
		Logger:           log,
		Client:           apiClient,
		Store:            store,
		Workers:          cfg.ParallelWorkers,
		SuperBatchFactor: cfg.SuperBatchFactor,
		PacingDelay:      cfg.PacingDelay,
		DryRun:           *dryRunFlag,
		SkipHistory:      *skipHistoryFlag,
		SkipLive:         *skipLiveFlag,
		TeamIDs:          *teamsFlag,
		PlayerIDs:        *playersFlag,
	})
	if err != nil {
		return err
	}

	if *serveFlag {
		srv, err := server.New(server.Config{
			Logger:          log,
			Pipeline:        pipeline,
			ListenAddr:      *listenAddrFlag,
			RefreshInterval: *refreshIntervalFlag,
			VersionInfo: server.VersionInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
			},
		})
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	}

	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("run complete",
		"run_id", report.RunID,
		"current_gameweek", report.CurrentGameweek,
		"written", report.TotalWritten(),
		"skipped", report.TotalSkipped(),
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return nil
}
