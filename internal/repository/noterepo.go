package repository

import (
	"context"

	"github.com/and161185/notes-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// NoteRepository provides note storage scoped to an owner. Every method
// takes the owner's userID and must treat a note owned by someone else
// exactly like a missing note (errs.ErrNotFound).
type NoteRepository interface {
	// Create inserts a note and attaches the given tag set.
	Create(ctx context.Context, n *model.Note, tagIDs []uuid.UUID) error

	// Get returns a single note with its tags.
	Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)

	// List returns the owner's notes matching all supplied filters,
	// most-recently-updated first, without duplicates.
	List(ctx context.Context, userID uuid.UUID, f model.NoteFilter) ([]model.Note, error)

	// Recent returns up to limit notes, most-recently-updated first.
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.Note, error)

	// Update applies a partial update and refreshes updated_at.
	Update(ctx context.Context, userID, noteID uuid.UUID, p UpdateNoteParams) (*model.Note, error)

	// Delete permanently removes a note. Tags survive.
	Delete(ctx context.Context, userID, noteID uuid.UUID) error

	// ToggleStar flips the starred flag and refreshes updated_at.
	ToggleStar(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)
}

// UpdateNoteParams is a storage-level partial change. Nil Title/Content are
// left unchanged; TagIDs replaces the tag set only when SetTags is true.
type UpdateNoteParams struct {
	Title   *string
	Content *string
	SetTags bool
	TagIDs  []uuid.UUID
}

// TagRepository provides the global tag namespace.
type TagRepository interface {
	// GetOrCreate upserts tags by normalized name and returns them in
	// storage order. Names must already be normalized and non-empty.
	GetOrCreate(ctx context.Context, names []string) ([]model.Tag, error)
}
