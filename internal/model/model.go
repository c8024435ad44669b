// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique
	Email     string    // unique
	PwdHash   []byte    // Argon2id(password, SaltAuth)
	SaltAuth  []byte    // per-user auth salt
	CreatedAt time.Time
}

// Tag is a global, case-insensitive label. Name is stored normalized
// (trimmed, lowercased) and unique across all users.
type Tag struct {
	ID   uuid.UUID
	Name string
}

// Note is a single record owned by exactly one user.
type Note struct {
	ID        uuid.UUID
	UserID    uuid.UUID // FK -> users.id, fixed at creation
	Title     string
	Content   string
	Starred   bool
	Tags      []Tag // unordered set
	CreatedAt time.Time
	UpdatedAt time.Time // refreshed on every mutation
}

// NoteFilter narrows a user's note listing. Nil fields impose no constraint;
// all supplied filters apply together.
type NoteFilter struct {
	Search  *string // case-insensitive substring over title OR content
	Tag     *string // normalized tag name, exact match
	Starred *bool
}

// NoteUpdate is a partial change intent. Nil fields are left unchanged;
// a non-nil Tags fully replaces the note's tag set (empty slice clears it).
type NoteUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
}
