package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/malbeclabs/fpldata/pkg/pg"
)

type StoreConfig struct {
	Logger *slog.Logger
	DB     *pg.Client

	// BatchSize applies to the large tables (players, stats, history).
	// Defaults to 1000.
	BatchSize int

	// SmallBatchSize applies to teams and gameweeks. Defaults to 100.
	SmallBatchSize int

	// BulkInsertThreshold selects between the statement and COPY write
	// paths. Defaults to 100.
	BulkInsertThreshold int

	Maintenance pg.MaintenanceConfig
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DB == nil {
		return errors.New("db client is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.SmallBatchSize <= 0 {
		cfg.SmallBatchSize = 100
	}
	if cfg.BulkInsertThreshold <= 0 {
		cfg.BulkInsertThreshold = 100
	}
	return nil
}

// Store writes parsed records into PostgreSQL. Each entity group goes
// through its own transaction, so a failed group never takes committed
// groups down with it.
type Store struct {
	log *slog.Logger
	cfg StoreConfig
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

func (s *Store) UpsertGameweeks(ctx context.Context, records []Gameweek) (pg.Report, error) {
	return s.upsert(ctx, GameweeksTable, s.cfg.SmallBatchSize, rowsOf(records))
}

func (s *Store) UpsertTeams(ctx context.Context, records []Team) (pg.Report, error) {
	return s.upsert(ctx, TeamsTable, s.cfg.SmallBatchSize, rowsOf(records))
}

func (s *Store) UpsertPlayers(ctx context.Context, records []Player) (pg.Report, error) {
	return s.upsert(ctx, PlayersTable, s.cfg.BatchSize, rowsOf(records))
}

func (s *Store) UpsertPlayerStats(ctx context.Context, records []PlayerStat) (pg.Report, error) {
	return s.upsert(ctx, PlayerStatsTable, s.cfg.BatchSize, rowsOf(records))
}

func (s *Store) UpsertFixtures(ctx context.Context, records []Fixture) (pg.Report, error) {
	return s.upsert(ctx, FixturesTable, s.cfg.BatchSize, rowsOf(records))
}

func (s *Store) UpsertPlayerHistory(ctx context.Context, records []PlayerHistory) (pg.Report, error) {
	return s.upsert(ctx, PlayerHistoryTable, s.cfg.BatchSize, rowsOf(records))
}

func (s *Store) UpsertGameweekLivePlayers(ctx context.Context, records []GameweekLivePlayer) (pg.Report, error) {
	return s.upsert(ctx, GameweekLivePlayersTable, s.cfg.BatchSize, rowsOf(records))
}

// Maintain runs post-bulk maintenance for table when the written row count
// warrants it. Failures are logged, never returned.
func (s *Store) Maintain(ctx context.Context, table string, written int) {
	s.cfg.DB.MaybeVacuumAnalyze(ctx, s.log, s.cfg.Maintenance, table, written)
}

func (s *Store) upsert(ctx context.Context, table pg.Table, batchSize int, rows []pg.Row) (pg.Report, error) {
	if len(rows) == 0 {
		return pg.Report{}, nil
	}

	upsertCfg := pg.UpsertConfig{
		Logger:              s.log,
		BatchSize:           batchSize,
		BulkInsertThreshold: s.cfg.BulkInsertThreshold,
	}

	start := time.Now()
	var report pg.Report
	err := s.cfg.DB.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		report, err = pg.Upsert(ctx, tx, upsertCfg, table, rows)
		return err
	})
	if err != nil {
		return pg.Report{}, err
	}

	elapsed := time.Since(start)
	s.log.Info("ingest: group committed",
		"table", table.Name,
		"written", report.Written,
		"skipped", report.Skipped,
		"deduplicated", report.Deduplicated,
		"elapsed", elapsed.Round(time.Millisecond),
		"rate", fmt.Sprintf("%.0f rows/s", float64(report.Written)/max(elapsed.Seconds(), 0.001)))

	return report, nil
}

func rowsOf[T interface{ Row() pg.Row }](records []T) []pg.Row {
	rows := make([]pg.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return rows
}
