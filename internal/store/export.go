package store

import (
	"context"
	"time"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

// ExportAll returns every subject with its aliases.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Subject, error) {
	return s.List(ctx)
}

// Import stores subjects from an export, keeping their ids and timestamps.
// Subjects whose id already exists are skipped. Subjects without an id get a
// fresh one.
func (s *SQLiteStore) Import(ctx context.Context, subjects []model.Subject) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, in := range subjects {
		subj, err := s.prepareImport(in)
		if err != nil {
			return 0, err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO subjects (id, primary_name, primary_norm, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			subj.ID, subj.PrimaryName, resolver.Normalize(subj.PrimaryName),
			formatTime(subj.CreatedAt), formatTime(subj.UpdatedAt))
		if err != nil {
			return 0, errors.Wrapf(err, "import subject %s", subj.ID)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		if err := writeAliases(ctx, tx, &subj); err != nil {
			return 0, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}

func (s *SQLiteStore) prepareImport(in model.Subject) (model.Subject, error) {
	return prepareImport(in, s.ids, s.now())
}

// prepareImport validates an exported subject and fills in missing fields.
func prepareImport(in model.Subject, ids *idSource, now time.Time) (model.Subject, error) {
	name, err := cleanName("primary name", in.PrimaryName)
	if err != nil {
		return model.Subject{}, errors.Wrapf(err, "import subject %q", in.ID)
	}
	subj := model.Subject{
		ID:          in.ID,
		PrimaryName: name,
		CreatedAt:   in.CreatedAt.UTC(),
		UpdatedAt:   in.UpdatedAt.UTC(),
	}
	if subj.ID == "" {
		subj.ID = ids.next(now)
	}
	if subj.CreatedAt.IsZero() {
		subj.CreatedAt = now
	}
	if subj.UpdatedAt.IsZero() {
		subj.UpdatedAt = subj.CreatedAt
	}
	for _, a := range in.Aliases {
		if a, err := cleanName("alias", a); err == nil {
			applyAlias(&subj, a)
		}
	}
	return subj, nil
}
