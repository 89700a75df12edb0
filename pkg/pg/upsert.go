package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/malbeclabs/fpldata/pkg/metrics"
)

// Table describes an upsert target: the insert column list and the natural
// key the ON CONFLICT clause resolves on.
type Table struct {
	Name       string
	Columns    []string
	KeyColumns []string
}

func (t Table) updateColumns() []string {
	keys := make(map[string]bool, len(t.KeyColumns))
	for _, col := range t.KeyColumns {
		keys[col] = true
	}
	cols := make([]string, 0, len(t.Columns)-len(t.KeyColumns))
	for _, col := range t.Columns {
		if !keys[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

// keyIndexes maps each key column to its position in the insert column list.
func (t Table) keyIndexes() ([]int, error) {
	idx := make([]int, 0, len(t.KeyColumns))
	for _, key := range t.KeyColumns {
		found := -1
		for i, col := range t.Columns {
			if col == key {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("key column %q is not in the column list of table %q", key, t.Name)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

// Row holds one record's values in the same order as Table.Columns.
type Row []any

// Strategy names a write path for Upsert.
type Strategy string

const (
	// StrategyAuto picks a path from the row count and BulkInsertThreshold.
	StrategyAuto Strategy = ""
	// StrategyStatement writes batches with multi-row INSERT statements.
	StrategyStatement Strategy = "statement"
	// StrategyCopy stages batches with COPY and merges from a temp table.
	StrategyCopy Strategy = "copy"
)

type UpsertConfig struct {
	Logger *slog.Logger

	// BatchSize is the number of rows written per statement. Defaults to 1000.
	BatchSize int

	// BulkInsertThreshold selects the write path under StrategyAuto: loads of
	// at least this many rows go through the COPY-based bulk path, smaller
	// ones through multi-row INSERT statements. Defaults to 100.
	BulkInsertThreshold int

	// Strategy pins the write path. Defaults to StrategyAuto.
	Strategy Strategy
}

func (cfg *UpsertConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.BulkInsertThreshold <= 0 {
		cfg.BulkInsertThreshold = 100
	}
	switch cfg.Strategy {
	case StrategyAuto, StrategyStatement, StrategyCopy:
	default:
		return fmt.Errorf("unknown upsert strategy %q", cfg.Strategy)
	}
	return nil
}

// strategyFor resolves the write path for a load of n rows.
func (cfg UpsertConfig) strategyFor(n int) Strategy {
	if cfg.Strategy != StrategyAuto {
		return cfg.Strategy
	}
	if n >= cfg.BulkInsertThreshold {
		return StrategyCopy
	}
	return StrategyStatement
}

// Report summarizes one upsert call.
type Report struct {
	// Written is the number of rows inserted or updated.
	Written int
	// Deduplicated is the number of duplicate-key rows dropped before
	// writing (first occurrence wins).
	Deduplicated int
	// Skipped is the number of rows dropped after a constraint violation.
	Skipped int
	// SkippedKeys holds the rendered natural keys of the skipped rows.
	SkippedKeys []string
}

// Upsert writes rows into table within tx, updating existing rows on natural
// key conflicts. Rows are deduplicated on the key first, then written in
// batches. A batch that fails with a constraint violation is retried row by
// row inside savepoints, skipping only the offending rows; malformed data and
// any other database error abort the call and leave tx poised for rollback.
func Upsert(ctx context.Context, tx pgx.Tx, cfg UpsertConfig, table Table, rows []Row) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if len(rows) == 0 {
		return Report{}, nil
	}

	keyIdx, err := table.keyIndexes()
	if err != nil {
		return Report{}, err
	}
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			return Report{}, fmt.Errorf("row %d has %d values, table %q has %d columns", i, len(row), table.Name, len(table.Columns))
		}
	}

	var report Report
	rows, report.Deduplicated = dedupeRows(rows, keyIdx)
	if report.Deduplicated > 0 {
		cfg.Logger.Debug("pg: dropped duplicate rows before upsert",
			"table", table.Name, "duplicates", report.Deduplicated)
	}

	strategy := cfg.strategyFor(len(rows))
	if strategy == StrategyCopy {
		// Best effort: a crash can only lose this transaction, which the
		// next run replays anyway. SET LOCAL expires with the transaction.
		if _, err := tx.Exec(ctx, "SET LOCAL synchronous_commit = OFF"); err != nil {
			cfg.Logger.Debug("pg: failed to relax synchronous_commit", "error", err)
		}
	}

	for start := 0; start < len(rows); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(rows))
		batch := rows[start:end]

		var batchErr error
		if strategy == StrategyCopy {
			batchErr = upsertBatchCopy(ctx, tx, table, batch)
		} else {
			batchErr = upsertBatchInsert(ctx, tx, table, batch)
		}

		switch {
		case batchErr == nil:
			report.Written += len(batch)
		case isConstraintViolation(batchErr):
			cfg.Logger.Warn("pg: batch hit a constraint violation, retrying row by row",
				"table", table.Name, "rows", len(batch), "error", batchErr)
			written, skippedKeys, err := upsertRowByRow(ctx, tx, cfg.Logger, table, keyIdx, batch)
			if err != nil {
				return report, err
			}
			report.Written += written
			report.Skipped += len(skippedKeys)
			report.SkippedKeys = append(report.SkippedKeys, skippedKeys...)
		default:
			return report, fmt.Errorf("failed to upsert batch into %s: %w", table.Name, batchErr)
		}
	}

	metrics.RowsUpserted.WithLabelValues(table.Name).Add(float64(report.Written))
	metrics.RowsSkipped.WithLabelValues(table.Name).Add(float64(report.Skipped))

	return report, nil
}

// dedupeRows drops rows whose key values were already seen, keeping the first
// occurrence and preserving order.
func dedupeRows(rows []Row, keyIdx []int) ([]Row, int) {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		key := renderKey(row, keyIdx)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}

func renderKey(row Row, keyIdx []int) string {
	parts := make([]string, 0, len(keyIdx))
	for _, i := range keyIdx {
		parts = append(parts, fmt.Sprint(row[i]))
	}
	return strings.Join(parts, ":")
}

// upsertBatchInsert writes a batch with a single multi-row INSERT ... ON
// CONFLICT statement inside a savepoint, so a failure leaves the enclosing
// transaction usable.
func upsertBatchInsert(ctx context.Context, tx pgx.Tx, table Table, batch []Row) error {
	sub, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}
	defer sub.Rollback(ctx) //nolint:errcheck // no-op after commit

	args := make([]any, 0, len(batch)*len(table.Columns))
	for _, row := range batch {
		args = append(args, row...)
	}
	if _, err := sub.Exec(ctx, insertSQL(table, len(batch)), args...); err != nil {
		return err
	}
	return sub.Commit(ctx)
}

// upsertBatchCopy loads a batch into a temporary table with the COPY
// protocol, then merges it into the target with INSERT ... SELECT ... ON
// CONFLICT. Runs inside a savepoint like the statement path.
func upsertBatchCopy(ctx context.Context, tx pgx.Tx, table Table, batch []Row) error {
	sub, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}
	defer sub.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Table names must start with a letter; the random suffix keeps
	// concurrent upserts in separate sessions from colliding.
	tempTable := "staging_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	_, err = sub.Exec(ctx, fmt.Sprintf(
		`CREATE TEMPORARY TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP`,
		tempTable, table.Name))
	if err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	n, err := sub.CopyFrom(ctx,
		pgx.Identifier{tempTable},
		table.Columns,
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return batch[i], nil
		}),
	)
	if err != nil {
		return err
	}
	if n != int64(len(batch)) {
		return fmt.Errorf("only %d of %d rows were staged", n, len(batch))
	}

	cols := strings.Join(table.Columns, ", ")
	if _, err := sub.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) SELECT %s FROM %s %s`,
		table.Name, cols, cols, tempTable, conflictClause(table))); err != nil {
		return err
	}
	return sub.Commit(ctx)
}

// upsertRowByRow writes each row in its own savepoint, skipping rows that
// violate a constraint and keeping the rest.
func upsertRowByRow(ctx context.Context, tx pgx.Tx, log *slog.Logger, table Table, keyIdx []int, batch []Row) (int, []string, error) {
	sql := insertSQL(table, 1)

	var written int
	var skippedKeys []string
	for _, row := range batch {
		sub, err := tx.Begin(ctx)
		if err != nil {
			return written, skippedKeys, fmt.Errorf("failed to open savepoint: %w", err)
		}

		if _, err := sub.Exec(ctx, sql, row...); err != nil {
			sub.Rollback(ctx) //nolint:errcheck
			if isConstraintViolation(err) {
				key := renderKey(row, keyIdx)
				log.Warn("pg: skipping row after constraint violation",
					"table", table.Name, "key", key, "error", err)
				skippedKeys = append(skippedKeys, key)
				continue
			}
			return written, skippedKeys, fmt.Errorf("failed to upsert row into %s: %w", table.Name, err)
		}

		if err := sub.Commit(ctx); err != nil {
			return written, skippedKeys, fmt.Errorf("failed to release savepoint: %w", err)
		}
		written++
	}
	return written, skippedKeys, nil
}

func insertSQL(table Table, nRows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table.Name, strings.Join(table.Columns, ", "))

	arg := 1
	for i := 0; i < nRows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range table.Columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", arg)
			arg++
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ")
	sb.WriteString(conflictClause(table))
	return sb.String()
}

func conflictClause(table Table) string {
	assignments := make([]string, 0, len(table.Columns))
	for _, col := range table.updateColumns() {
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	assignments = append(assignments, "updated_at = NOW()")
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
		strings.Join(table.KeyColumns, ", "), strings.Join(assignments, ", "))
}

// isConstraintViolation reports whether err is a class 23 SQLSTATE: a unique,
// foreign key, not-null or check constraint failure. These are row-level
// problems worth isolating; everything else aborts the upsert.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
	}
	return false
}

// IsDataError reports whether err is a class 22 SQLSTATE: malformed values
// that PostgreSQL could not coerce. Callers treat these as fatal for the
// whole entity group.
func IsDataError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsDataException(pgErr.Code)
	}
	return false
}
