package store

import (
	"context"
	"fmt"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// SaveRun stores a run and its records atomically. It assigns the run's
// sequence number and result hash and returns the stored run.
//
// Saving the same run ID twice returns ErrDuplicateRun and changes
// nothing.
func (s *Store) SaveRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("save run: empty run ID")
	}
	if run.NX < 0 || run.NX > len(run.Records) {
		return Run{}, fmt.Errorf("save run %s: soluble count %d outside 0..%d", run.ID, run.NX, len(run.Records))
	}

	hashes := make([]string, len(run.Records))
	for i, rec := range run.Records {
		h, err := ir.RecordHash(rec)
		if err != nil {
			return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
		}
		hashes[i] = h
	}
	resultHash, err := ir.ResultHash(hashes)
	if err != nil {
		return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	run.ResultHash = resultHash
	run.NF = len(run.Records) - run.NX

	components, err := marshalStrings(run.Components)
	if err != nil {
		return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	databases, err := marshalStrings(run.Databases)
	if err != nil {
		return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("save run %s: begin tx: %w", run.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, run.ID).Scan(&exists); err != nil {
		return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if exists > 0 {
		return Run{}, fmt.Errorf("save run %s: %w", run.ID, ErrDuplicateRun)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("save run %s: next seq: %w", run.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, components, databases, solids, passes, nx, nf, result_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		components,
		databases,
		run.Solids,
		run.Passes,
		run.NX,
		run.NF,
		run.ResultHash,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("save run %s: insert run: %w", run.ID, err)
	}

	for i, rec := range run.Records {
		data, err := marshalRecord(rec)
		if err != nil {
			return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
		}
		solid := i >= run.NX
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results (run_id, position, name, solid, record_hash, record)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, rec.Name, solid, hashes[i], data); err != nil {
			return Run{}, fmt.Errorf("save run %s: insert result %q: %w", run.ID, rec.Name, err)
		}
		if solid != chem.IsSolid(rec.Name) {
			s.logger.Warn("stored record partition disagrees with its phase",
				"run_id", run.ID, "name", rec.Name, "position", i, "solid", solid)
		}
	}

	for i, rec := range run.Discovered {
		data, err := marshalRecord(rec)
		if err != nil {
			return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO discovered (run_id, position, name, record)
			VALUES (?, ?, ?, ?)
		`, run.ID, i, rec.Name, data); err != nil {
			return Run{}, fmt.Errorf("save run %s: insert discovered %q: %w", run.ID, rec.Name, err)
		}
	}

	for i, w := range run.Warnings {
		names, err := marshalStrings(w.Names)
		if err != nil {
			return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO warnings (run_id, position, kind, message, names, file, ordinal, proceed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, string(w.Kind), w.Message, names, w.File, w.Ordinal, w.Proceed); err != nil {
			return Run{}, fmt.Errorf("save run %s: insert warning: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("save run %s: commit: %w", run.ID, err)
	}
	s.logger.Debug("run saved", "run_id", run.ID, "seq", run.Seq, "records", len(run.Records))
	return run, nil
}

// DeleteRun removes a run and everything stored with it.
// Returns ErrNotFound if the run does not exist.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}
