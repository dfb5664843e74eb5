package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

// SQLiteStore implements Backend using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	ids   *idSource
	clock func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	o := buildOptions(opts)
	s := &SQLiteStore{
		db:    db,
		path:  dbPath,
		ids:   newIDSource(),
		clock: o.clock,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

func (s *SQLiteStore) now() time.Time {
	return s.clock().UTC()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		id           TEXT PRIMARY KEY,
		primary_name TEXT NOT NULL,
		primary_norm TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_subjects_created ON subjects(created_at, id);
	CREATE INDEX IF NOT EXISTS idx_subjects_norm ON subjects(primary_norm);

	CREATE TABLE IF NOT EXISTS subject_aliases (
		subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		alias      TEXT NOT NULL,
		norm       TEXT NOT NULL,
		PRIMARY KEY (subject_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_aliases_norm ON subject_aliases(norm);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, name string) (*model.Subject, error) {
	name, err := cleanName("primary name", name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	subj := &model.Subject{
		ID:          s.ids.next(now),
		PrimaryName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subjects (id, primary_name, primary_norm, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		subj.ID, subj.PrimaryName, resolver.Normalize(subj.PrimaryName),
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, errors.Wrap(err, "insert subject")
	}
	return subj, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Subject, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.get(ctx, s.db, id)
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Subject, error) {
	return s.query(ctx, `SELECT id, primary_name, created_at, updated_at FROM subjects
		ORDER BY created_at, id`)
}

func (s *SQLiteStore) AddAlias(ctx context.Context, id, alias string) (*model.Subject, error) {
	alias, err := cleanName("alias", alias)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(subj *model.Subject) bool {
		return applyAlias(subj, alias)
	})
}

func (s *SQLiteStore) PinAsPrimary(ctx context.Context, id, name string) (*model.Subject, error) {
	name, err := cleanName("primary name", name)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(subj *model.Subject) bool {
		applyPin(subj, name)
		return true
	})
}

func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE subjects SET updated_at = ? WHERE id = ?`, formatTime(s.now()), id)
	if err != nil {
		return errors.Wrap(err, "touch subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("subject %s", id)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_aliases WHERE subject_id = ?`, id); err != nil {
		return false, errors.Wrap(err, "delete aliases")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete subject")
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// update loads a subject inside a transaction, applies fn and, when fn
// reports a change, rewrites the subject row and its aliases.
func (s *SQLiteStore) update(ctx context.Context, id string, fn func(*model.Subject) bool) (*model.Subject, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	subj, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !fn(subj) {
		return subj, nil
	}
	subj.UpdatedAt = s.now()

	if err := writeSubject(ctx, tx, subj); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return subj, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SQLiteStore) get(ctx context.Context, q querier, id string) (*model.Subject, error) {
	var subj model.Subject
	var createdAt, updatedAt string
	err := q.QueryRowContext(ctx,
		`SELECT id, primary_name, created_at, updated_at FROM subjects WHERE id = ?`, id).
		Scan(&subj.ID, &subj.PrimaryName, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("subject %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get subject")
	}
	subj.CreatedAt = parseTime(createdAt)
	subj.UpdatedAt = parseTime(updatedAt)

	aliases, err := loadAliases(ctx, q, `WHERE subject_id = ?`, id)
	if err != nil {
		return nil, err
	}
	subj.Aliases = aliases[id]
	return &subj, nil
}

// query runs a subject SELECT and attaches aliases with a second query.
func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]model.Subject, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var subj model.Subject
		var createdAt, updatedAt string
		if err := rows.Scan(&subj.ID, &subj.PrimaryName, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		subj.CreatedAt = parseTime(createdAt)
		subj.UpdatedAt = parseTime(updatedAt)
		subjects = append(subjects, subj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	if len(subjects) == 0 {
		return subjects, nil
	}

	aliases, err := loadAliases(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		subjects[i].Aliases = aliases[subjects[i].ID]
	}
	return subjects, nil
}

func loadAliases(ctx context.Context, q querier, where string, args ...interface{}) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT subject_id, alias FROM subject_aliases `+where+` ORDER BY subject_id, seq`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "load aliases")
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var id, alias string
		if err := rows.Scan(&id, &alias); err != nil {
			return nil, err
		}
		out[id] = append(out[id], alias)
	}
	return out, rows.Err()
}

func writeSubject(ctx context.Context, tx execer, subj *model.Subject) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE subjects SET primary_name = ?, primary_norm = ?, updated_at = ? WHERE id = ?`,
		subj.PrimaryName, resolver.Normalize(subj.PrimaryName), formatTime(subj.UpdatedAt), subj.ID)
	if err != nil {
		return errors.Wrap(err, "update subject")
	}
	return writeAliases(ctx, tx, subj)
}

func writeAliases(ctx context.Context, tx execer, subj *model.Subject) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_aliases WHERE subject_id = ?`, subj.ID); err != nil {
		return errors.Wrap(err, "clear aliases")
	}
	for i, a := range subj.Aliases {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO subject_aliases (subject_id, seq, alias, norm) VALUES (?, ?, ?, ?)`,
			subj.ID, i, a, resolver.Normalize(a))
		if err != nil {
			return errors.Wrap(err, "insert alias")
		}
	}
	return nil
}

// timeLayout is fixed width so stored timestamps sort lexically in time
// order. RFC3339Nano drops trailing zeros and does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
