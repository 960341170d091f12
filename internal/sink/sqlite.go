package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/user/listing-scraper/internal/domain"
)

// WriteSQLite appends records to table in the SQLite database at path. The
// table is created on first use with one TEXT column per field of the first
// record and is never dropped or recreated.
func WriteSQLite(path, table string, records []domain.Record) error {
	columns, err := domain.Columns(records)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(sqliteCreateTable(table, columns)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	// An existing table with other column names fails here instead of
	// taking values into the wrong columns.
	stmt, err := tx.Preparex(sqliteInsert(table, columns))
	if err != nil {
		return fmt.Errorf("%w: table %s: %w", domain.ErrSchemaMismatch, table, err)
	}
	defer stmt.Close()

	for _, r := range records {
		args := make([]any, 0, r.Len())
		for _, v := range r.Values() {
			args = append(args, v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	return tx.Commit()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqliteCreateTable(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func sqliteInsert(table string, columns []string) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(names, ", "), placeholders)
}
