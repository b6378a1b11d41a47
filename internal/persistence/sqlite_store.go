// Package persistence stores detection run checkpoints in SQLite so long
// classification passes survive restarts without repeating LLM calls.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) UpsertRun(ctx context.Context, run *DetectionRun) error {
	if run == nil {
		return fmt.Errorf("run is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO detection_runs (
			id, detector, export_path, model, seed, sample_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			detector=excluded.detector,
			export_path=excluded.export_path,
			model=excluded.model,
			seed=excluded.seed,
			sample_count=excluded.sample_count,
			updated_at=excluded.updated_at`,
		run.ID,
		run.Detector,
		run.ExportPath,
		run.Model,
		run.Seed,
		run.SampleCount,
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*DetectionRun, error) {
	var run DetectionRun
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, detector, export_path, model, seed, sample_count, created_at, updated_at
		 FROM detection_runs WHERE id = ?`,
		runID,
	).Scan(
		&run.ID,
		&run.Detector,
		&run.ExportPath,
		&run.Model,
		&run.Seed,
		&run.SampleCount,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*DetectionRun, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, detector, export_path, model, seed, sample_count, created_at, updated_at
		 FROM detection_runs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*DetectionRun, 0)
	for rows.Next() {
		var run DetectionRun
		if err := rows.Scan(
			&run.ID,
			&run.Detector,
			&run.ExportPath,
			&run.Model,
			&run.Seed,
			&run.SampleCount,
			&run.CreatedAt,
			&run.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ret = append(ret, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) UpsertResult(ctx context.Context, result *ResultRecord) error {
	if result == nil {
		return fmt.Errorf("result is nil")
	}
	updatedAt := result.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO detection_results (run_id, sample_key, label, rationale, raw_output, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, sample_key) DO UPDATE SET
			label=excluded.label,
			rationale=excluded.rationale,
			raw_output=excluded.raw_output,
			updated_at=excluded.updated_at`,
		result.RunID,
		result.SampleKey,
		result.Label,
		result.Rationale,
		result.RawOutput,
		updatedAt,
	)
	return err
}

func (s *SQLiteStore) LoadResults(ctx context.Context, runID string) (map[string]ResultRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, sample_key, label, rationale, raw_output, updated_at
		 FROM detection_results
		 WHERE run_id = ?
		 ORDER BY sample_key ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make(map[string]ResultRecord)
	for rows.Next() {
		var item ResultRecord
		if err := rows.Scan(
			&item.RunID,
			&item.SampleKey,
			&item.Label,
			&item.Rationale,
			&item.RawOutput,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ret[item.SampleKey] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM detection_results WHERE run_id = ?`, runID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM detection_runs WHERE id = ?`, runID)
	return err
}
