package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/notes-keeper/internal/errs"
	"github.com/and161185/notes-keeper/internal/model"
	"github.com/and161185/notes-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// NoteRepo implements NoteRepository using PostgreSQL. Ownership is enforced
// by pairing id with user_id in every statement, so a foreign note behaves
// exactly like a missing one.
type NoteRepo struct{ db *DB }

// NewNoteRepo constructs a note repository.
func NewNoteRepo(db *DB) *NoteRepo { return &NoteRepo{db: db} }

const noteColumns = `id, user_id, title, content, starred, created_at, updated_at`

// Create inserts a note and its tag links in one transaction.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note, tagIDs []uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO notes (id, user_id, title, content)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`
	if err = tx.QueryRow(ctx, ins, n.ID, n.UserID, n.Title, n.Content).Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		return err
	}

	const link = `INSERT INTO note_tags (note_id, tag_id) VALUES ($1, $2)`
	for _, tagID := range tagIDs {
		if _, err = tx.Exec(ctx, link, n.ID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a single note with tags.
func (r *NoteRepo) Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes WHERE id=$1 AND user_id=$2`
	n, err := scanNote(r.db.Pool.QueryRow(ctx, q, noteID, userID))
	if err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, []*model.Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the owner's notes matching all supplied filters,
// most-recently-updated first. DISTINCT guards against duplicates from
// the tag join.
func (r *NoteRepo) List(ctx context.Context, userID uuid.UUID, f model.NoteFilter) ([]model.Note, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT n.id, n.user_id, n.title, n.content, n.starred, n.created_at, n.updated_at FROM notes n`)
	if f.Tag != nil {
		sb.WriteString(` JOIN note_tags nt ON nt.note_id = n.id JOIN tags t ON t.id = nt.tag_id`)
	}
	sb.WriteString(` WHERE n.user_id=$1`)
	args := []any{userID}

	if f.Search != nil {
		args = append(args, escapeLike(*f.Search))
		i := len(args)
		fmt.Fprintf(&sb, ` AND (n.title ILIKE '%%'||$%d||'%%' OR n.content ILIKE '%%'||$%d||'%%')`, i, i)
	}
	if f.Tag != nil {
		args = append(args, *f.Tag)
		fmt.Fprintf(&sb, ` AND t.name=$%d`, len(args))
	}
	if f.Starred != nil {
		args = append(args, *f.Starred)
		fmt.Fprintf(&sb, ` AND n.starred=$%d`, len(args))
	}
	sb.WriteString(` ORDER BY n.updated_at DESC`)

	return r.queryNotes(ctx, sb.String(), args...)
}

// Recent returns up to limit notes, most-recently-updated first.
func (r *NoteRepo) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes WHERE user_id=$1 ORDER BY updated_at DESC LIMIT $2`
	return r.queryNotes(ctx, q, userID, limit)
}

// Update applies a partial change, refreshes updated_at, and optionally
// replaces the tag set, all in one transaction.
func (r *NoteRepo) Update(ctx context.Context, userID, noteID uuid.UUID, p repository.UpdateNoteParams) (*model.Note, error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upd = `
UPDATE notes
SET title=COALESCE($3, title), content=COALESCE($4, content), updated_at=now()
WHERE id=$1 AND user_id=$2
RETURNING ` + noteColumns
	n, err := scanNote(tx.QueryRow(ctx, upd, noteID, userID, p.Title, p.Content))
	if err != nil {
		return nil, err
	}

	if p.SetTags {
		if _, err := tx.Exec(ctx, `DELETE FROM note_tags WHERE note_id=$1`, noteID); err != nil {
			return nil, err
		}
		const link = `INSERT INTO note_tags (note_id, tag_id) VALUES ($1, $2)`
		for _, tagID := range p.TagIDs {
			if _, err := tx.Exec(ctx, link, noteID, tagID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, []*model.Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete permanently removes a note; note_tags rows go via cascade.
func (r *NoteRepo) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM notes WHERE id=$1 AND user_id=$2`, noteID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ToggleStar flips starred and refreshes updated_at in a single statement.
func (r *NoteRepo) ToggleStar(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	const q = `
UPDATE notes
SET starred = NOT starred, updated_at=now()
WHERE id=$1 AND user_id=$2
RETURNING ` + noteColumns
	n, err := scanNote(r.db.Pool.QueryRow(ctx, q, noteID, userID))
	if err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, []*model.Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *NoteRepo) queryNotes(ctx context.Context, q string, args ...any) ([]model.Note, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]model.Note, 0, 16)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Starred, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*model.Note, len(notes))
	for i := range notes {
		refs[i] = &notes[i]
	}
	if err := r.attachTags(ctx, refs); err != nil {
		return nil, err
	}
	return notes, nil
}

// attachTags loads tags for the given notes in one query and fills Tags on
// each note. Notes without tags get an empty (non-nil) slice.
func (r *NoteRepo) attachTags(ctx context.Context, notes []*model.Note) error {
	byID := make(map[uuid.UUID]*model.Note, len(notes))
	ids := make([]uuid.UUID, 0, len(notes))
	for _, n := range notes {
		n.Tags = []model.Tag{}
		byID[n.ID] = n
		ids = append(ids, n.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	const q = `
SELECT nt.note_id, t.id, t.name
FROM note_tags nt
JOIN tags t ON t.id = nt.tag_id
WHERE nt.note_id = ANY($1)
ORDER BY t.name`
	rows, err := r.db.Pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var noteID uuid.UUID
		var t model.Tag
		if err := rows.Scan(&noteID, &t.ID, &t.Name); err != nil {
			return err
		}
		if n, ok := byID[noteID]; ok {
			n.Tags = append(n.Tags, t)
		}
	}
	return rows.Err()
}

func scanNote(row pgx.Row) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Starred, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// escapeLike neutralizes LIKE metacharacters so search text matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
