package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/fpldata/pkg/dedupe"
	"github.com/malbeclabs/fpldata/pkg/fetch"
	"github.com/malbeclabs/fpldata/pkg/fpl"
	"github.com/malbeclabs/fpldata/pkg/metrics"
	"github.com/malbeclabs/fpldata/pkg/pg"
)

type PipelineConfig struct {
	Logger *slog.Logger
	Client *fpl.Client
	Store  *Store

	// Concurrent fetch tuning, see fetch.Config.
	Workers          int
	SuperBatchFactor int
	PacingDelay      time.Duration

	// DryRun fetches and parses everything but writes nothing. No database
	// is touched, Store may be nil.
	DryRun bool

	// SkipHistory disables the per-player element-summary fetch, the most
	// expensive stage of a run.
	SkipHistory bool

	// SkipLive disables the live gameweek stat fetch.
	SkipLive bool

	// TeamIDs restricts the run to the given clubs and their players.
	// Empty means all.
	TeamIDs []int

	// PlayerIDs restricts the run to the given players. Empty means all.
	PlayerIDs []int

	Clock clockwork.Clock
}

func (cfg *PipelineConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Client == nil {
		return errors.New("fpl client is required")
	}
	if cfg.Store == nil && !cfg.DryRun {
		return errors.New("store is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 15
	}
	if cfg.SuperBatchFactor <= 0 {
		cfg.SuperBatchFactor = 5
	}
	if cfg.PacingDelay < 0 {
		return errors.New("pacing delay must not be negative")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// GroupReport summarizes one entity group of a run.
type GroupReport struct {
	Parsed       int
	Written      int
	Skipped      int
	Deduplicated int
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID           string
	CurrentGameweek int
	Elapsed         time.Duration
	HistoryFetched  int
	HistoryFailed   int
	Groups          map[string]GroupReport
}

// Pipeline runs one full ingest cycle: fetch the season's resources from the
// FPL API, parse them into records and upsert them group by group in
// dependency order.
type Pipeline struct {
	log *slog.Logger
	cfg PipelineConfig
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Run executes one cycle. The returned error is non-nil when the bootstrap
// fetch fails, the context is cancelled, or a fetch stage or entity group
// wholly failed; groups that did commit stay committed either way. Only the
// bootstrap failure aborts the run, every other stage degrades to whatever
// it could fetch.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.NewString()[:8]
	start := p.cfg.Clock.Now()
	log := p.log.With("run_id", runID)

	report := &RunReport{
		RunID:  runID,
		Groups: make(map[string]GroupReport),
	}

	log.Info("pipeline: run starting", "dry_run", p.cfg.DryRun)

	bootstrapRes, fixturesRes := fetch.Pair(ctx,
		func(ctx context.Context) (*fpl.Bootstrap, error) {
			return observe("bootstrap", func() (*fpl.Bootstrap, error) { return p.cfg.Client.Bootstrap(ctx) })
		},
		func(ctx context.Context) ([]fpl.FixturePayload, error) {
			return observe("fixtures", func() ([]fpl.FixturePayload, error) { return p.cfg.Client.Fixtures(ctx) })
		},
	)
	// Everything hangs off bootstrap; fixtures only cost their own group.
	if bootstrapRes.Err != nil {
		metrics.PipelineRunTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch bootstrap: %w", bootstrapRes.Err)
	}
	bootstrap := bootstrapRes.Value

	var runErrs []error

	fixturePayloads := fixturesRes.Value
	if fixturesRes.Err != nil {
		log.Warn("pipeline: fixtures fetch failed, continuing without fixtures", "error", fixturesRes.Err)
		runErrs = append(runErrs, fmt.Errorf("failed to fetch fixtures: %w", fixturesRes.Err))
	}

	report.CurrentGameweek = CurrentGameweek(bootstrap.Events)
	log.Info("pipeline: bootstrap fetched",
		"gameweeks", len(bootstrap.Events),
		"teams", len(bootstrap.Teams),
		"players", len(bootstrap.Elements),
		"fixtures", len(fixturePayloads),
		"current_gameweek", report.CurrentGameweek)

	gameweeks := ParseGameweeks(log, bootstrap.Events)
	teams := ParseTeams(log, bootstrap.Teams)
	players := ParsePlayers(log, bootstrap.Elements)
	fixtures := ParseFixtures(log, fixturePayloads)

	teams, players = p.selectEntities(log, teams, players)
	selected := make(map[int]bool, len(players))
	for _, pl := range players {
		selected[pl.ID] = true
	}

	stats := ParsePlayerStats(log, bootstrap.Elements, report.CurrentGameweek)
	stats = filterRecords(stats, func(s PlayerStat) bool { return selected[s.PlayerID] })
	var dropped int
	stats, dropped = dedupe.ByKey(stats, PlayerStat.Key)
	if dropped > 0 {
		log.Debug("pipeline: dropped duplicate stat snapshots", "duplicates", dropped)
	}

	history, err := p.fetchHistory(ctx, log, players, report)
	if err != nil {
		if ctx.Err() != nil {
			metrics.PipelineRunTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		runErrs = append(runErrs, err)
	}

	live := p.fetchLive(ctx, log, report.CurrentGameweek, selected)
	if ctx.Err() != nil {
		metrics.PipelineRunTotal.WithLabelValues("error").Inc()
		return nil, ctx.Err()
	}

	if p.cfg.DryRun {
		p.reportDryRun(log, report, gameweeks, teams, players, stats, fixtures, history, live)
		report.Elapsed = p.cfg.Clock.Since(start)
		if len(runErrs) > 0 {
			metrics.PipelineRunTotal.WithLabelValues("error").Inc()
			return report, errors.Join(runErrs...)
		}
		metrics.PipelineRunTotal.WithLabelValues("ok").Inc()
		return report, nil
	}

	// Dependency order: referenced tables first, so the row-level fallback
	// only skips rows whose parents genuinely never landed.
	runErrs = append(runErrs, p.persist(ctx, log, report, "gameweeks", len(gameweeks), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertGameweeks(ctx, gameweeks))
	})...)
	runErrs = append(runErrs, p.persist(ctx, log, report, "teams", len(teams), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertTeams(ctx, teams))
	})...)
	runErrs = append(runErrs, p.persist(ctx, log, report, "players", len(players), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertPlayers(ctx, players))
	})...)
	runErrs = append(runErrs, p.persist(ctx, log, report, "player_stats", len(stats), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertPlayerStats(ctx, stats))
	})...)
	runErrs = append(runErrs, p.persist(ctx, log, report, "fixtures", len(fixtures), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertFixtures(ctx, fixtures))
	})...)
	runErrs = append(runErrs, p.persist(ctx, log, report, "player_history", len(history), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertPlayerHistory(ctx, history))
	})...)
	runErrs = append(runErrs, p.persist(ctx, log, report, "gameweek_live_players", len(live), func() (int, int, int, error) {
		return reportOf(p.cfg.Store.UpsertGameweekLivePlayers(ctx, live))
	})...)

	// Maintenance runs after the writing transactions have committed.
	for _, table := range []string{"players", "player_stats", "player_history", "gameweek_live_players"} {
		p.cfg.Store.Maintain(ctx, table, report.Groups[table].Written)
	}

	report.Elapsed = p.cfg.Clock.Since(start)

	status := "ok"
	if len(runErrs) > 0 {
		status = "error"
	}
	metrics.PipelineRunTotal.WithLabelValues(status).Inc()
	metrics.PipelineRunDuration.Observe(report.Elapsed.Seconds())

	log.Info("pipeline: run finished",
		"status", status,
		"elapsed", report.Elapsed.Round(time.Millisecond),
		"written", report.TotalWritten(),
		"skipped", report.TotalSkipped(),
		"history_failed", report.HistoryFailed)

	if len(runErrs) > 0 {
		return report, errors.Join(runErrs...)
	}
	return report, nil
}

// TotalWritten sums the written rows across all groups.
func (r *RunReport) TotalWritten() int {
	var n int
	for _, g := range r.Groups {
		n += g.Written
	}
	return n
}

// TotalSkipped sums the skipped rows across all groups.
func (r *RunReport) TotalSkipped() int {
	var n int
	for _, g := range r.Groups {
		n += g.Skipped
	}
	return n
}

// selectEntities applies the optional team and player restrictions.
func (p *Pipeline) selectEntities(log *slog.Logger, teams []Team, players []Player) ([]Team, []Player) {
	if len(p.cfg.TeamIDs) > 0 {
		wanted := make(map[int]bool, len(p.cfg.TeamIDs))
		for _, id := range p.cfg.TeamIDs {
			wanted[id] = true
		}
		teams = filterRecords(teams, func(t Team) bool { return wanted[t.ID] })
		players = filterRecords(players, func(pl Player) bool { return wanted[pl.TeamID] })
		log.Info("pipeline: restricted to teams", "teams", len(teams), "players", len(players))
	}
	if len(p.cfg.PlayerIDs) > 0 {
		wanted := make(map[int]bool, len(p.cfg.PlayerIDs))
		for _, id := range p.cfg.PlayerIDs {
			wanted[id] = true
		}
		players = filterRecords(players, func(pl Player) bool { return wanted[pl.ID] })
		log.Info("pipeline: restricted to players", "players", len(players))
	}
	return teams, players
}

// fetchHistory pulls element summaries for every selected player with
// bounded parallelism. Individual failures cost that player's history only;
// the returned error is non-nil when the whole stage failed.
func (p *Pipeline) fetchHistory(ctx context.Context, log *slog.Logger, players []Player, report *RunReport) ([]PlayerHistory, error) {
	if p.cfg.SkipHistory || len(players) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(players))
	for _, pl := range players {
		ids = append(ids, pl.ID)
	}

	results, err := fetch.Fetch(ctx, fetch.Config{
		Logger:           log,
		Workers:          p.cfg.Workers,
		SuperBatchFactor: p.cfg.SuperBatchFactor,
		PacingDelay:      p.cfg.PacingDelay,
		Clock:            p.cfg.Clock,
	}, ids, func(ctx context.Context, playerID int) (*fpl.ElementSummary, error) {
		return observe("element_summary", func() (*fpl.ElementSummary, error) {
			return p.cfg.Client.ElementSummary(ctx, playerID)
		})
	})
	if err != nil && !errors.Is(err, fetch.ErrAllFailed) {
		return nil, err
	}

	var history []PlayerHistory
	for _, res := range results {
		if res.Err != nil {
			report.HistoryFailed++
			continue
		}
		report.HistoryFetched++
		history = append(history, ParsePlayerHistory(log, res.Key, res.Value.History)...)
	}

	history, dropped := dedupe.ByKey(history, PlayerHistory.Key)
	if dropped > 0 {
		log.Debug("pipeline: dropped duplicate history entries", "duplicates", dropped)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch player history: %w", err)
	}
	return history, nil
}

// fetchLive pulls the live stat lines for the current gameweek. This stage
// is best effort, a failure costs the live table one refresh.
func (p *Pipeline) fetchLive(ctx context.Context, log *slog.Logger, gameweekID int, selected map[int]bool) []GameweekLivePlayer {
	if p.cfg.SkipLive {
		return nil
	}

	payload, err := observe("event_live", func() (*fpl.EventLive, error) {
		return p.cfg.Client.EventLive(ctx, gameweekID)
	})
	if err != nil {
		log.Warn("pipeline: live gameweek fetch failed", "gameweek", gameweekID, "error", err)
		return nil
	}

	live := ParseGameweekLive(log, gameweekID, payload.Elements)
	live = filterRecords(live, func(l GameweekLivePlayer) bool { return selected[l.PlayerID] })
	live, _ = dedupe.ByKey(live, GameweekLivePlayer.Key)
	return live
}

// persist writes one entity group and folds the result into the run report.
func (p *Pipeline) persist(ctx context.Context, log *slog.Logger, report *RunReport, group string, parsed int, write func() (int, int, int, error)) []error {
	if ctx.Err() != nil {
		return []error{ctx.Err()}
	}

	written, skipped, deduplicated, err := write()
	report.Groups[group] = GroupReport{
		Parsed:       parsed,
		Written:      written,
		Skipped:      skipped,
		Deduplicated: deduplicated,
	}
	if err != nil {
		log.Error("pipeline: group failed", "group", group, "error", err)
		return []error{fmt.Errorf("failed to ingest %s: %w", group, err)}
	}
	return nil
}

func (p *Pipeline) reportDryRun(log *slog.Logger, report *RunReport, gameweeks []Gameweek, teams []Team, players []Player, stats []PlayerStat, fixtures []Fixture, history []PlayerHistory, live []GameweekLivePlayer) {
	groups := []struct {
		name   string
		parsed int
		sample any
	}{
		{"gameweeks", len(gameweeks), first(gameweeks)},
		{"teams", len(teams), first(teams)},
		{"players", len(players), first(players)},
		{"player_stats", len(stats), first(stats)},
		{"fixtures", len(fixtures), first(fixtures)},
		{"player_history", len(history), first(history)},
		{"gameweek_live_players", len(live), first(live)},
	}
	for _, g := range groups {
		report.Groups[g.name] = GroupReport{Parsed: g.parsed}
		log.Info("pipeline: dry run, skipping write", "group", g.name, "rows", g.parsed)
		if g.sample != nil {
			log.Debug("pipeline: dry run sample", "group", g.name, "record", fmt.Sprintf("%+v", g.sample))
		}
	}
}

func first[T any](records []T) any {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

func filterRecords[T any](records []T, keep func(T) bool) []T {
	out := records[:0:0]
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func reportOf(r pg.Report, err error) (int, int, int, error) {
	return r.Written, r.Skipped, r.Deduplicated, err
}

// observe wraps one API call with fetch metrics.
func observe[T any](resource string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.FetchDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FetchTotal.WithLabelValues(resource, status).Inc()
	return v, err
}
