package pg

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/malbeclabs/fpldata/pkg/metrics"
)

type MaintenanceConfig struct {
	// Enabled gates maintenance entirely.
	Enabled bool

	// Threshold is the minimum number of rows written to a table before a
	// VACUUM ANALYZE is worthwhile. Defaults to 1000.
	Threshold int
}

func (cfg *MaintenanceConfig) Validate() error {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 1000
	}
	return nil
}

// shouldMaintain reports whether a table write is large enough to warrant a
// VACUUM ANALYZE. The threshold is exclusive: writing exactly Threshold rows
// does not trigger maintenance.
func shouldMaintain(cfg MaintenanceConfig, written int) bool {
	return cfg.Enabled && written > cfg.Threshold
}

// MaybeVacuumAnalyze runs VACUUM ANALYZE on table when the number of rows
// written crosses the configured threshold. It must be called after the
// writing transaction has committed: VACUUM cannot run inside a transaction
// block, so the statement goes out on a plain pooled connection. Maintenance
// failures are logged and swallowed, the ingested data is already durable.
func (c *Client) MaybeVacuumAnalyze(ctx context.Context, log *slog.Logger, cfg MaintenanceConfig, table string, written int) {
	if err := cfg.Validate(); err != nil {
		log.Warn("pg: invalid maintenance config", "error", err)
		return
	}
	if !shouldMaintain(cfg, written) {
		return
	}

	start := time.Now()
	if _, err := c.pool.Exec(ctx, fmt.Sprintf("VACUUM ANALYZE %s", table)); err != nil {
		log.Warn("pg: maintenance failed", "table", table, "error", err)
		metrics.MaintenanceTotal.WithLabelValues(table, "error").Inc()
		return
	}

	log.Info("pg: maintenance complete",
		"table", table, "written", written, "duration", time.Since(start).Round(time.Millisecond))
	metrics.MaintenanceTotal.WithLabelValues(table, "ok").Inc()
}
