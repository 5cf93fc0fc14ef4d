package models

import "time"

// MaxNoteLength is the longest note text accepted, counted in runes.
const MaxNoteLength = 60

// Note is a short ephemeral text item. An author has at most one live note:
// creating a new one hard-deletes all prior notes by the same author.
type Note struct {
	ID             int       `db:"id" json:"id"`
	AuthorID       int       `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	AuthorAvatar   string    `db:"author_avatar" json:"author_avatar"`
	Text           string    `db:"text" json:"text"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time `db:"expires_at" json:"expires_at"`
}

// NoteWithView is a note joined with the requesting user's view state.
type NoteWithView struct {
	Note
	IsViewed bool `db:"is_viewed" json:"is_viewed"`
}

// NoteView records that a user has seen a note.
type NoteView struct {
	NoteID   int       `db:"note_id" json:"note_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	ViewedAt time.Time `db:"viewed_at" json:"viewed_at"`
}
