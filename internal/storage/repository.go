package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"visadash/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists petition record snapshots. Ingest replaces the
// whole table; the server reads it once at startup (and on refresh) into the
// in-memory dataset, so no query runs per dashboard request.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceAll swaps the stored snapshot for records in one transaction, so a
// reader never sees a half-ingested table.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM petition_records`); err != nil {
		return fmt.Errorf("clear petition records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO petition_records (
			year, employer_name, city, state, industry,
			initial_approval, initial_denial, continuing_approval, continuing_denial
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Year, rec.EmployerName, rec.City, rec.State, rec.Industry,
			rec.InitialApproval, rec.InitialDenial, rec.ContinuingApproval, rec.ContinuingDenial,
		); err != nil {
			return fmt.Errorf("insert record (employer=%s year=%d): %w", rec.EmployerName, rec.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Petition snapshot replaced", "rows", len(records))
	return nil
}

// LoadRecords reads the full stored snapshot, normalized and with derived
// totals recomputed.
func (r *SQLiteRepository) LoadRecords(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT year, employer_name, city, state, industry,
		       initial_approval, initial_denial, continuing_approval, continuing_denial
		FROM petition_records
		ORDER BY year, employer_name`)
	if err != nil {
		return nil, fmt.Errorf("query petition records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(
			&rec.Year, &rec.EmployerName, &rec.City, &rec.State, &rec.Industry,
			&rec.InitialApproval, &rec.InitialDenial, &rec.ContinuingApproval, &rec.ContinuingDenial,
		); err != nil {
			return nil, fmt.Errorf("scan petition record: %w", err)
		}
		records = append(records, rec.Normalized())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate petition records: %w", err)
	}
	return records, nil
}

// CountRecords returns the number of stored records.
func (r *SQLiteRepository) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM petition_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count petition records: %w", err)
	}
	return n, nil
}
