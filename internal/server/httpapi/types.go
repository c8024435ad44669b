package httpapi

import (
	"time"

	"github.com/and161185/notes-keeper/internal/model"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags" validate:"omitempty,dive,max=50"`
}

// updateNoteRequest carries a partial change: absent fields stay nil and
// leave the note untouched; a present tags array replaces the tag set.
type updateNoteRequest struct {
	Title   *string   `json:"title" validate:"omitempty,max=200"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags" validate:"omitempty,dive,max=50"`
}

type tagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type noteResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Tags      []tagResponse `json:"tags"`
	Starred   bool          `json:"starred"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toNoteResponse(n *model.Note) noteResponse {
	tags := make([]tagResponse, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, tagResponse{ID: t.ID.String(), Name: t.Name})
	}
	return noteResponse{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		Tags:      tags,
		Starred:   n.Starred,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toNoteResponses(notes []model.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, toNoteResponse(&notes[i]))
	}
	return out
}

func toTokenResponse(t model.Tokens) tokenResponse {
	return tokenResponse{AccessToken: t.AccessToken, TokenType: "bearer"}
}
