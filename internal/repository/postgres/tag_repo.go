package postgres

import (
	"context"

	"github.com/and161185/notes-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TagRepo implements TagRepository using PostgreSQL.
type TagRepo struct{ db *DB }

// NewTagRepo constructs a tag repository.
func NewTagRepo(db *DB) *TagRepo { return &TagRepo{db: db} }

// GetOrCreate upserts tags by name and returns the resulting rows.
// The DO UPDATE no-op makes RETURNING yield a row on conflict as well,
// so existing tags come back with their original IDs.
func (r *TagRepo) GetOrCreate(ctx context.Context, names []string) ([]model.Tag, error) {
	const q = `
INSERT INTO tags (id, name) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name`

	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		var t model.Tag
		if err := r.db.Pool.QueryRow(ctx, q, id, name).Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}
