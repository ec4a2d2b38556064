package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, specs_dir, tool_version, mapping_count
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// LatestRun returns the run with the highest seq.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, specs_dir, tool_version, mapping_count
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	return run, err
}

// ListRuns returns all runs ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, specs_dir, tool_version, mapping_count
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ListQueries returns the queries linked from a run, ordered by mapping
// name. Returns an empty slice (not nil) if the run has none.
func (s *Store) ListQueries(ctx context.Context, runID string) ([]QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, rq.run_id, rq.mapping, q.kind, q.text, rq.spec_hash, rq.warnings
		FROM run_queries rq
		JOIN queries q ON q.id = rq.query_id
		WHERE rq.run_id = ?
		ORDER BY rq.mapping COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	records := []QueryRecord{}
	for rows.Next() {
		rec, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return records, nil
}

// ReadQuery returns the query with the given content address, as linked
// from the earliest run that produced it.
func (s *Store) ReadQuery(ctx context.Context, id string) (QueryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT q.id, rq.run_id, rq.mapping, q.kind, q.text, rq.spec_hash, rq.warnings
		FROM queries q
		JOIN run_queries rq ON rq.query_id = q.id
		JOIN runs r ON r.id = rq.run_id
		WHERE q.id = ?
		ORDER BY r.seq ASC, rq.mapping COLLATE BINARY ASC
		LIMIT 1
	`, id)
	rec, err := scanQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueryRecord{}, fmt.Errorf("query %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// LatestQuery returns the query compiled for mapping in the most recent run
// that includes it.
func (s *Store) LatestQuery(ctx context.Context, mapping string) (QueryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT q.id, rq.run_id, rq.mapping, q.kind, q.text, rq.spec_hash, rq.warnings
		FROM run_queries rq
		JOIN queries q ON q.id = rq.query_id
		JOIN runs r ON r.id = rq.run_id
		WHERE rq.mapping = ?
		ORDER BY r.seq DESC
		LIMIT 1
	`, mapping)
	rec, err := scanQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueryRecord{}, fmt.Errorf("mapping %s: %w", mapping, ErrNotFound)
	}
	return rec, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	if err := row.Scan(&run.ID, &run.Seq, &run.SpecsDir, &run.ToolVersion, &run.MappingCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

func scanQuery(row scanner) (QueryRecord, error) {
	var (
		rec      QueryRecord
		warnings string
	)
	if err := row.Scan(&rec.ID, &rec.RunID, &rec.Mapping, &rec.Kind, &rec.Text, &rec.SpecHash, &warnings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QueryRecord{}, err
		}
		return QueryRecord{}, fmt.Errorf("scan query: %w", err)
	}
	var err error
	if rec.Warnings, err = unmarshalWarnings(warnings); err != nil {
		return QueryRecord{}, err
	}
	return rec, nil
}
