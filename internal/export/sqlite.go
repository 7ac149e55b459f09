package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/adcorr-cli/internal/align"
)

const schema = `
CREATE TABLE IF NOT EXISTS aligned_days (
  day TEXT PRIMARY KEY,
  orders INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS aligned_values (
  day TEXT NOT NULL REFERENCES aligned_days(day),
  key TEXT NOT NULL,
  value REAL NOT NULL,
  PRIMARY KEY (day, key)
);
CREATE INDEX IF NOT EXISTS idx_aligned_values_key ON aligned_values(key);
`

// WriteSQLite stores t in the database at path, replacing any earlier export.
// Only values present on a day are stored.
func WriteSQLite(ctx context.Context, path string, t *align.Table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM aligned_values; DELETE FROM aligned_days;`); err != nil {
		return err
	}
	dayStmt, err := tx.PrepareContext(ctx, `INSERT INTO aligned_days(day, orders) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer dayStmt.Close()
	valStmt, err := tx.PrepareContext(ctx, `INSERT INTO aligned_values(day, key, value) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer valStmt.Close()

	keys := t.Keys()
	for _, row := range t.Rows {
		if _, err := dayStmt.ExecContext(ctx, row.Day, row.Orders); err != nil {
			return fmt.Errorf("insert day %s: %w", row.Day, err)
		}
		for _, k := range keys {
			v, ok := row.Values[k]
			if !ok {
				continue
			}
			if _, err := valStmt.ExecContext(ctx, row.Day, k, v); err != nil {
				return fmt.Errorf("insert %s/%s: %w", row.Day, k, err)
			}
		}
	}
	return tx.Commit()
}
