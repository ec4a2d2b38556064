package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRun inserts a run and assigns its seq from the logical clock
// (one more than the highest seq so far). Writing the same id twice is a
// no-op. Returns the stored run.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if _, err := insertRun(ctx, s.db, run); err != nil {
		return Run{}, err
	}

	stored, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	slog.Debug("run written", "run_id", stored.ID, "seq", stored.Seq, "mappings", stored.MappingCount)
	return stored, nil
}

// WriteQuery stores rec.Text under its content address and links it to
// rec.Mapping in rec.RunID. The query row is shared by every run that
// compiles the same text. Returns the query id.
//
// Note: The run referenced by rec.RunID must exist (foreign key constraint).
func (s *Store) WriteQuery(ctx context.Context, rec QueryRecord) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write query: begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertQuery(ctx, tx, rec)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write query: commit: %w", err)
	}

	slog.Debug("query written", "run_id", rec.RunID, "mapping", rec.Mapping, "query_id", id)
	return id, nil
}

// RecordRun writes run and every query of it in one transaction: either
// the run and all its links are stored, or nothing is. The RunID of each
// record is set to run.ID and MappingCount to len(queries). A run id that
// is already in the catalog is an error. Returns the stored run.
func (s *Store) RecordRun(ctx context.Context, run Run, queries []QueryRecord) (Run, error) {
	run.MappingCount = len(queries)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	inserted, err := insertRun(ctx, tx, run)
	if err != nil {
		return Run{}, err
	}
	if !inserted {
		return Run{}, fmt.Errorf("record run: run %s already recorded", run.ID)
	}
	for _, rec := range queries {
		rec.RunID = run.ID
		if _, err := insertQuery(ctx, tx, rec); err != nil {
			return Run{}, fmt.Errorf("record run %s: %w", run.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}

	stored, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	slog.Debug("run recorded", "run_id", stored.ID, "seq", stored.Seq, "mappings", stored.MappingCount)
	return stored, nil
}

// insertRun reports whether a new row was written.
func insertRun(ctx context.Context, db execer, run Run) (bool, error) {
	if run.ID == "" {
		return false, errors.New("write run: empty id")
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, specs_dir, tool_version, mapping_count)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.SpecsDir, run.ToolVersion, run.MappingCount)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	return n > 0, nil
}

func insertQuery(ctx context.Context, db execer, rec QueryRecord) (string, error) {
	if rec.Mapping == "" {
		return "", errors.New("write query: empty mapping name")
	}
	id := QueryID(rec.Text)
	warnings, err := marshalWarnings(rec.Warnings)
	if err != nil {
		return "", fmt.Errorf("write query: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO queries (id, kind, text, first_run_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, rec.Kind, rec.Text, rec.RunID); err != nil {
		return "", fmt.Errorf("write query: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO run_queries (run_id, mapping, query_id, spec_hash, warnings)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, mapping) DO UPDATE SET
			query_id = excluded.query_id,
			spec_hash = excluded.spec_hash,
			warnings = excluded.warnings
	`, rec.RunID, rec.Mapping, id, rec.SpecHash, warnings); err != nil {
		return "", fmt.Errorf("write query link: %w", err)
	}
	return id, nil
}
