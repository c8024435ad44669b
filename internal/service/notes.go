package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/and161185/notes-keeper/internal/errs"
	"github.com/and161185/notes-keeper/internal/model"
	"github.com/and161185/notes-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Recent listing bounds.
const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// NoteService defines operations over a user's notes.
type NoteService interface {
	// Create stores a new note owned by userID, resolving tags lazily.
	Create(ctx context.Context, userID uuid.UUID, title, content string, tagNames []string) (*model.Note, error)
	// Get returns a single note by ID.
	Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)
	// List returns notes matching all supplied filters, newest update first.
	List(ctx context.Context, userID uuid.UUID, f model.NoteFilter) ([]model.Note, error)
	// Recent returns the limit most-recently-updated notes.
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.Note, error)
	// Update applies a partial change; a supplied tag list replaces the set.
	Update(ctx context.Context, userID, noteID uuid.UUID, upd model.NoteUpdate) (*model.Note, error)
	// Delete permanently removes a note.
	Delete(ctx context.Context, userID, noteID uuid.UUID) error
	// ToggleStar flips the starred flag.
	ToggleStar(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)
}

type NoteServiceImpl struct {
	notes repository.NoteRepository
	tags  repository.TagRepository
}

// NewNoteService constructs NoteService with required repositories.
func NewNoteService(notes repository.NoteRepository, tags repository.TagRepository) *NoteServiceImpl {
	return &NoteServiceImpl{notes: notes, tags: tags}
}

// Create resolves tags and stores the note.
func (s *NoteServiceImpl) Create(ctx context.Context, userID uuid.UUID, title, content string, tagNames []string) (*model.Note, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrInvalidInput)
	}
	tags, err := s.resolveTags(ctx, tagNames)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	n := &model.Note{ID: id, UserID: userID, Title: title, Content: content}
	if err := s.notes.Create(ctx, n, tagIDs(tags)); err != nil {
		return nil, err
	}
	n.Tags = tags
	return n, nil
}

// Get fetches a single note by id.
func (s *NoteServiceImpl) Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/noteID", errs.ErrInvalidInput)
	}
	return s.notes.Get(ctx, userID, noteID)
}

// List normalizes filters and delegates to the repository. Blank search or
// tag values impose no constraint, matching the absent-parameter case.
func (s *NoteServiceImpl) List(ctx context.Context, userID uuid.UUID, f model.NoteFilter) ([]model.Note, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrInvalidInput)
	}
	if f.Search != nil && *f.Search == "" {
		f.Search = nil
	}
	if f.Tag != nil {
		t := normalizeTag(*f.Tag)
		if t == "" {
			f.Tag = nil
		} else {
			f.Tag = &t
		}
	}
	return s.notes.List(ctx, userID, f)
}

// Recent returns the most recently updated notes, newest first.
func (s *NoteServiceImpl) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.Note, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.notes.Recent(ctx, userID, limit)
}

// Update applies a partial change. A non-nil tag list, even an empty one,
// fully replaces the note's tag set. updated_at refreshes regardless.
func (s *NoteServiceImpl) Update(ctx context.Context, userID, noteID uuid.UUID, upd model.NoteUpdate) (*model.Note, error) {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/noteID", errs.ErrInvalidInput)
	}

	p := repository.UpdateNoteParams{Title: upd.Title, Content: upd.Content}
	if upd.Tags != nil {
		tags, err := s.resolveTags(ctx, *upd.Tags)
		if err != nil {
			return nil, err
		}
		p.SetTags = true
		p.TagIDs = tagIDs(tags)
	}
	return s.notes.Update(ctx, userID, noteID, p)
}

// Delete removes a note; its tags stay in the global namespace.
func (s *NoteServiceImpl) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return fmt.Errorf("%w: empty userID/noteID", errs.ErrInvalidInput)
	}
	return s.notes.Delete(ctx, userID, noteID)
}

// ToggleStar flips the starred flag.
func (s *NoteServiceImpl) ToggleStar(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	if userID == uuid.Nil || noteID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID/noteID", errs.ErrInvalidInput)
	}
	return s.notes.ToggleStar(ctx, userID, noteID)
}

// resolveTags normalizes names and upserts them into the global namespace.
// The result is sorted by name; input order does not survive.
func (s *NoteServiceImpl) resolveTags(ctx context.Context, names []string) ([]model.Tag, error) {
	normalized := normalizeTagNames(names)
	if len(normalized) == 0 {
		return []model.Tag{}, nil
	}
	tags, err := s.tags.GetOrCreate(ctx, normalized)
	if err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// normalizeTagNames trims, lowercases, drops blanks, and deduplicates.
func normalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := normalizeTag(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func tagIDs(tags []model.Tag) []uuid.UUID {
	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
