package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dbsearch/internal/ir"
)

// VerifyRun recomputes the record hashes and the result hash of a stored
// run and compares them with the stored values.
//
// Returns an *IntegrityError for the first mismatch, ErrNotFound (wrapped)
// for an unknown run, and nil when the run is intact.
func (s *Store) VerifyRun(ctx context.Context, id string) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT result_hash FROM runs WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("verify run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("verify run %s: %w", id, err)
	}

	recs, hashes, err := s.readResults(ctx, id)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", id, err)
	}
	computed := make([]string, len(recs))
	for i, rec := range recs {
		h, err := ir.RecordHash(rec)
		if err != nil {
			return fmt.Errorf("verify run %s: %w", id, err)
		}
		if h != hashes[i] {
			return &IntegrityError{RunID: id, Position: i, Want: hashes[i], Got: h}
		}
		computed[i] = h
	}

	got, err := ir.ResultHash(computed)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", id, err)
	}
	if got != stored {
		return &IntegrityError{RunID: id, Position: -1, Want: stored, Got: got}
	}
	s.logger.Debug("run verified", "run_id", id, "records", len(recs))
	return nil
}
