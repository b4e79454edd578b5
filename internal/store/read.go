package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/search"
)

// ReadRun returns the run with the given ID, records included.
// Returns ErrNotFound (wrapped) if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, components, databases, solids, passes, nx, nf, result_hash, engine_version, ir_version
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return s.fillRun(ctx, run)
}

// LatestRun returns the most recently saved run.
// Returns ErrNotFound (wrapped) if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, components, databases, solids, passes, nx, nf, result_hash, engine_version, ir_version
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return s.fillRun(ctx, run)
}

// ListRuns returns a summary of every run in save order.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, components, passes, nx, nf, result_hash
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var sum RunSummary
		var components string
		if err := rows.Scan(&sum.ID, &sum.Seq, &components, &sum.Passes, &sum.NX, &sum.NF, &sum.ResultHash); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if sum.Components, err = unmarshalStrings(components); err != nil {
			return nil, fmt.Errorf("run %s: %w", sum.ID, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return summaries, nil
}

// RunsWithRecord returns the IDs of the runs whose results contain a
// record with the given content hash, in save order.
func (s *Store) RunsWithRecord(ctx context.Context, recordHash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.id, r.seq
		FROM results res
		JOIN runs r ON res.run_id = r.id
		WHERE res.record_hash = ?
		ORDER BY r.seq ASC
	`, recordHash)
	if err != nil {
		return nil, fmt.Errorf("query runs with record: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		var seq int64
		if err := rows.Scan(&id, &seq); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs with record: %w", err)
	}
	return ids, nil
}

func scanRun(row *sql.Row) (Run, error) {
	var run Run
	var components, databases string
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&components,
		&databases,
		&run.Solids,
		&run.Passes,
		&run.NX,
		&run.NF,
		&run.ResultHash,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		return Run{}, err
	}
	if run.Components, err = unmarshalStrings(components); err != nil {
		return Run{}, err
	}
	if run.Databases, err = unmarshalStrings(databases); err != nil {
		return Run{}, err
	}
	return run, nil
}

// fillRun loads the records, discovered components and warnings of run.
func (s *Store) fillRun(ctx context.Context, run Run) (Run, error) {
	var err error
	if run.Records, _, err = s.readResults(ctx, run.ID); err != nil {
		return Run{}, err
	}
	if run.Discovered, err = s.readDiscovered(ctx, run.ID); err != nil {
		return Run{}, err
	}
	if run.Warnings, err = s.readWarnings(ctx, run.ID); err != nil {
		return Run{}, err
	}
	return run, nil
}

// readResults returns the records of a run and their stored hashes, in
// position order.
func (s *Store) readResults(ctx context.Context, runID string) ([]ir.Record, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record, record_hash
		FROM results
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	recs := []ir.Record{}
	hashes := []string{}
	for rows.Next() {
		var data, hash string
		if err := rows.Scan(&data, &hash); err != nil {
			return nil, nil, fmt.Errorf("scan result: %w", err)
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, nil, err
		}
		recs = append(recs, rec)
		hashes = append(hashes, hash)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate results: %w", err)
	}
	return recs, hashes, nil
}

func (s *Store) readDiscovered(ctx context.Context, runID string) ([]ir.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record
		FROM discovered
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query discovered: %w", err)
	}
	defer rows.Close()

	recs := []ir.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan discovered: %w", err)
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discovered: %w", err)
	}
	return recs, nil
}

func (s *Store) readWarnings(ctx context.Context, runID string) ([]search.Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, message, names, file, ordinal, proceed
		FROM warnings
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var warnings []search.Warning
	for rows.Next() {
		var w search.Warning
		var kind, names string
		if err := rows.Scan(&kind, &w.Message, &names, &w.File, &w.Ordinal, &w.Proceed); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		w.Kind = search.WarningKind(kind)
		if w.Names, err = unmarshalStrings(names); err != nil {
			return nil, err
		}
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	return warnings, nil
}
