package pg_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/fpldata/pkg/pg"
	fpltesting "github.com/malbeclabs/fpldata/pkg/testing"
)

var (
	gameweeksTable = pg.Table{
		Name:       "gameweeks",
		Columns:    []string{"id", "name"},
		KeyColumns: []string{"id"},
	}
	teamsTable = pg.Table{
		Name:       "teams",
		Columns:    []string{"id", "code", "name", "short_name"},
		KeyColumns: []string{"id"},
	}
	playersTable = pg.Table{
		Name:       "players",
		Columns:    []string{"id", "code", "first_name", "second_name", "web_name", "team_id", "element_type"},
		KeyColumns: []string{"id"},
	}
)

func upsertCfg() pg.UpsertConfig {
	return pg.UpsertConfig{Logger: fpltesting.NewLogger()}
}

func TestFPLData_PG_Upsert_Statement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testClient(t)

	t.Run("insert then update on the same key", func(t *testing.T) {

		rows := []pg.Row{
			{9001, 9001, "Alpha FC", "ALP"},
			{9002, 9002, "Beta FC", "BET"},
		}

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, rows)
			require.NoError(t, err)
			require.Equal(t, 2, report.Written)
			require.Zero(t, report.Skipped)
			return nil
		})
		require.NoError(t, err)

		// Second pass with a changed name must update in place.
		rows[0] = pg.Row{9001, 9001, "Alpha Town", "ALP"}
		err = client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, rows)
			require.NoError(t, err)
			require.Equal(t, 2, report.Written)
			return nil
		})
		require.NoError(t, err)

		var name string
		err = client.Pool().QueryRow(ctx, `SELECT name FROM teams WHERE id = 9001`).Scan(&name)
		require.NoError(t, err)
		require.Equal(t, "Alpha Town", name)

		var count int
		err = client.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM teams WHERE id IN (9001, 9002)`).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})

	t.Run("duplicate keys keep the first occurrence", func(t *testing.T) {

		rows := []pg.Row{
			{9101, 9101, "Gamma FC", "GAM"},
			{9101, 9101, "Gamma Utd", "GAU"},
			{9102, 9102, "Delta FC", "DEL"},
		}

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, rows)
			require.NoError(t, err)
			require.Equal(t, 2, report.Written)
			require.Equal(t, 1, report.Deduplicated)
			return nil
		})
		require.NoError(t, err)

		var name string
		err = client.Pool().QueryRow(ctx, `SELECT name FROM teams WHERE id = 9101`).Scan(&name)
		require.NoError(t, err)
		require.Equal(t, "Gamma FC", name)
	})

	t.Run("rejects rows that do not match the column list", func(t *testing.T) {

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, []pg.Row{{9201, 9201}})
			return err
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "columns")
	})

	t.Run("empty input is a no-op", func(t *testing.T) {

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, nil)
			require.NoError(t, err)
			require.Zero(t, report.Written)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestFPLData_PG_Upsert_Bulk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testClient(t)

	t.Run("large batches go through the COPY path", func(t *testing.T) {

		const n = 250
		rows := make([]pg.Row, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, pg.Row{20000 + i, fmt.Sprintf("Gameweek %d", i)})
		}

		cfg := upsertCfg()
		cfg.BatchSize = 100 // force multiple batches

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, cfg, gameweeksTable, rows)
			require.NoError(t, err)
			require.Equal(t, n, report.Written)
			return nil
		})
		require.NoError(t, err)

		var count int
		err = client.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM gameweeks WHERE id >= 20000 AND id < 20000+$1`, n).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, n, count)

		// Re-running the same batch must update, not duplicate.
		err = client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, cfg, gameweeksTable, rows)
			require.NoError(t, err)
			require.Equal(t, n, report.Written)
			return nil
		})
		require.NoError(t, err)

		err = client.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM gameweeks WHERE id >= 20000 AND id < 20000+$1`, n).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, n, count)
	})

	t.Run("threshold selects the statement path for small batches", func(t *testing.T) {

		cfg := upsertCfg()
		cfg.BulkInsertThreshold = 100

		rows := make([]pg.Row, 0, 99)
		for i := 0; i < 99; i++ {
			rows = append(rows, pg.Row{21000 + i, fmt.Sprintf("Gameweek %d", i)})
		}

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, cfg, gameweeksTable, rows)
			require.NoError(t, err)
			require.Equal(t, 99, report.Written)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestFPLData_PG_Upsert_ConstraintViolations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testClient(t)

	// Seed one team the player rows can point at.
	err := client.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, []pg.Row{{9301, 9301, "Epsilon FC", "EPS"}})
		return err
	})
	require.NoError(t, err)

	t.Run("only the offending rows are skipped", func(t *testing.T) {

		// Row 30002 references a team that does not exist; the other rows
		// must survive the foreign key violation.
		rows := []pg.Row{
			{30001, 30001, "Ann", "Ayala", "Ayala", 9301, 1},
			{30002, 30002, "Bob", "Baker", "Baker", 999999, 2},
			{30003, 30003, "Cal", "Cole", "Cole", 9301, 3},
			{30004, 30004, "Dee", "Dunn", "Dunn", 9301, 4},
		}

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, upsertCfg(), playersTable, rows)
			require.NoError(t, err)
			require.Equal(t, 3, report.Written)
			require.Equal(t, 1, report.Skipped)
			require.Equal(t, []string{"30002"}, report.SkippedKeys)
			return nil
		})
		require.NoError(t, err)

		var count int
		err = client.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE id >= 30001 AND id <= 30004`).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 3, count)

		var exists bool
		err = client.Pool().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM players WHERE id = 30002)`).Scan(&exists)
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("violations on the bulk path also fall back row by row", func(t *testing.T) {

		const n = 120
		rows := make([]pg.Row, 0, n)
		for i := 0; i < n; i++ {
			teamID := 9301
			if i == 57 {
				teamID = 999999
			}
			rows = append(rows, pg.Row{31000 + i, 31000 + i, "First", "Last", "Web", teamID, 1})
		}

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			report, err := pg.Upsert(ctx, tx, upsertCfg(), playersTable, rows)
			require.NoError(t, err)
			require.Equal(t, n-1, report.Written)
			require.Equal(t, 1, report.Skipped)
			return nil
		})
		require.NoError(t, err)

		var count int
		err = client.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE id >= 31000 AND id < 31000+$1`, n).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, n-1, count)
	})

	t.Run("malformed values abort the whole group", func(t *testing.T) {

		// An out-of-range value for an INTEGER column is not a constraint
		// violation, so it must not be absorbed by the row-level fallback.
		rows := []pg.Row{
			{32001, 32001, "Eve", "Early", "Early", 9301, 1},
			{32002, int64(1) << 40, "Fay", "Ford", "Ford", 9301, 2},
		}

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := pg.Upsert(ctx, tx, upsertCfg(), playersTable, rows)
			return err
		})
		require.Error(t, err)

		// The enclosing transaction rolled back, nothing from the group
		// landed.
		var count int
		err = client.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE id IN (32001, 32002)`).Scan(&count)
		require.NoError(t, err)
		require.Zero(t, count)
	})
}

func TestFPLData_PG_Client_WithTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testClient(t)

	t.Run("rolls back on error", func(t *testing.T) {

		boom := fmt.Errorf("boom")
		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, []pg.Row{{9401, 9401, "Zeta FC", "ZET"}})
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		var exists bool
		err = client.Pool().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM teams WHERE id = 9401)`).Scan(&exists)
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("commits on nil", func(t *testing.T) {

		err := client.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := pg.Upsert(ctx, tx, upsertCfg(), teamsTable, []pg.Row{{9402, 9402, "Eta FC", "ETA"}})
			return err
		})
		require.NoError(t, err)

		var exists bool
		err = client.Pool().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM teams WHERE id = 9402)`).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists)
	})
}

func TestFPLData_PG_Client_MaybeVacuumAnalyze(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := testClient(t)
	log := fpltesting.NewLogger()

	t.Run("runs above the threshold", func(t *testing.T) {
		client.MaybeVacuumAnalyze(ctx, log, pg.MaintenanceConfig{Enabled: true, Threshold: 10}, "teams", 11)

		// The pool must still be usable afterwards.
		var one int
		err := client.Pool().QueryRow(ctx, `SELECT 1`).Scan(&one)
		require.NoError(t, err)
		require.Equal(t, 1, one)
	})

	t.Run("skips below the threshold and when disabled", func(t *testing.T) {
		// A bogus table name would fail if the statement actually ran.
		client.MaybeVacuumAnalyze(ctx, log, pg.MaintenanceConfig{Enabled: true, Threshold: 10}, "no_such_table", 10)
		client.MaybeVacuumAnalyze(ctx, log, pg.MaintenanceConfig{Enabled: false, Threshold: 10}, "no_such_table", 100)
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		client.MaybeVacuumAnalyze(ctx, log, pg.MaintenanceConfig{Enabled: true, Threshold: 10}, "no_such_table", 100)
	})
}
