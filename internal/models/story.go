package models

import "time"

// Story is a single ephemeral image item. Author identity is snapshotted at
// creation time and never refreshed, so a later avatar change does not rewrite
// existing rows.
type Story struct {
	ID             int       `db:"id" json:"id"`
	AuthorID       int       `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	AuthorAvatar   string    `db:"author_avatar" json:"author_avatar"`
	ImageURL       string    `db:"image_url" json:"image"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time `db:"expires_at" json:"expires_at"`
}

// StoryWithView is a story joined with the requesting user's view state.
type StoryWithView struct {
	Story
	IsViewed bool `db:"is_viewed" json:"is_viewed"`
}

// StoryView records that a user has seen a story. The (story, user) pair is
// unique; inserting an existing pair is a no-op.
type StoryView struct {
	StoryID  int       `db:"story_id" json:"story_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	ViewedAt time.Time `db:"viewed_at" json:"viewed_at"`
}

// FeedEvent is broadcasted through websockets when ephemeral content changes.
type FeedEvent struct {
	Type     string `json:"type"`
	Story    *Story `json:"story,omitempty"`
	Note     *Note  `json:"note,omitempty"`
	ItemID   int    `json:"item_id,omitempty"`
	ViewerID int    `json:"viewer_id,omitempty"`
}
