package store

import (
	"context"
	"strings"

	"github.com/royalrew/sintari-relations-sub003/internal/model"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

// Search finds subjects whose primary name or any alias contains the query,
// compared by resolver key. Results are ordered most recently touched first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Subject, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(resolver.Normalize(p.Query)) + "%"

	return s.query(ctx, `
		SELECT DISTINCT s.id, s.primary_name, s.created_at, s.updated_at
		FROM subjects s
		LEFT JOIN subject_aliases a ON a.subject_id = s.id
		WHERE s.primary_norm LIKE ? ESCAPE '\' OR a.norm LIKE ? ESCAPE '\'
		ORDER BY s.updated_at DESC, s.id
		LIMIT ?`, pattern, pattern, limit)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
