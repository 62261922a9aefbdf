// Package store persists analysis runs and their group summaries in
// SQLite.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"query-log-analyzer/pkg/aggregate"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store manages the SQLite database for analysis runs.
type Store struct {
	db *sql.DB
}

// Run is one persisted analysis of a record file.
type Run struct {
	ID          int64     `json:"id"`
	SourceFile  string    `json:"sourceFile"`
	RecordCount int       `json:"recordCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewStore opens (or creates) the database and applies migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases coherent and avoids
	// SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis stores a run and all four of its summary lists in one
// transaction, preserving the aggregator's sort order.
func (s *Store) SaveAnalysis(sourceFile string, analysis aggregate.Analysis) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO runs (source_file, record_count) VALUES (?, ?)`,
		sourceFile, analysis.RecordCount,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO group_summaries (run_id, mode, grouping, position, request_time, statement,
		 avg_elapsed_s, total_elapsed_s, avg_cpu_us, avg_service_s, avg_result_count, avg_result_size, count, example)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, mode := range []string{aggregate.ModeParameterized, aggregate.ModeValued} {
		for _, grouping := range []string{aggregate.GroupingStatement, aggregate.GroupingTemplate} {
			for position, summary := range analysis.Summaries(mode, grouping) {
				_, err := stmt.Exec(
					runID, mode, grouping, position,
					summary.RequestTime, summary.Statement,
					summary.AvgElapsedSeconds, summary.TotalElapsedSeconds,
					summary.AvgCPUMicroseconds, summary.AvgServiceSeconds,
					summary.AvgResultCount, summary.AvgResultSizeBytes,
					summary.Count, summary.Example,
				)
				if err != nil {
					return 0, fmt.Errorf("failed to insert summary: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// GetRun retrieves a run by ID, returning nil when not found.
func (s *Store) GetRun(id int64) (*Run, error) {
	run := &Run{}
	err := s.db.QueryRow(
		`SELECT id, source_file, record_count, created_at FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.SourceFile, &run.RecordCount, &run.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves all runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, source_file, record_count, created_at FROM runs ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SourceFile, &run.RecordCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetSummaries retrieves one summary list of a run in stored order.
func (s *Store) GetSummaries(runID int64, mode, grouping string) ([]aggregate.Summary, error) {
	rows, err := s.db.Query(
		`SELECT request_time, statement, avg_elapsed_s, total_elapsed_s, avg_cpu_us,
		 avg_service_s, avg_result_count, avg_result_size, count, example
		 FROM group_summaries WHERE run_id = ? AND mode = ? AND grouping = ?
		 ORDER BY position`,
		runID, mode, grouping,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}
	defer rows.Close()

	summaries := []aggregate.Summary{}
	for rows.Next() {
		var sum aggregate.Summary
		if err := rows.Scan(
			&sum.RequestTime, &sum.Statement,
			&sum.AvgElapsedSeconds, &sum.TotalElapsedSeconds,
			&sum.AvgCPUMicroseconds, &sum.AvgServiceSeconds,
			&sum.AvgResultCount, &sum.AvgResultSizeBytes,
			&sum.Count, &sum.Example,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteRun deletes a run and its summaries.
func (s *Store) DeleteRun(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
