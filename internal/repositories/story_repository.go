package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stories-service/internal/models"
)

var ErrStoryNotFound = errors.New("story not found")

// StoryRepository abstracts story persistence.
type StoryRepository interface {
	CreateStory(ctx context.Context, author models.User, imageURL string) (models.Story, error)
	GetStory(ctx context.Context, storyID int) (models.Story, error)
	FeedStories(ctx context.Context, viewerID int) ([]models.StoryWithView, error)
	MarkViewed(ctx context.Context, storyID int, viewerID int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// StoryRepo is a sqlx implementation of StoryRepository.
type StoryRepo struct {
	db *sqlx.DB
}

// NewStoryRepo constructs a StoryRepo.
func NewStoryRepo(db *sqlx.DB) *StoryRepo {
	return &StoryRepo{db: db}
}

// CreateStory inserts a story with a fixed 24h lifetime and the author
// identity snapshotted onto the row.
func (r *StoryRepo) CreateStory(ctx context.Context, author models.User, imageURL string) (models.Story, error) {
	var story models.Story
	err := r.db.QueryRowxContext(ctx, `INSERT INTO stories (author_id, author_username, author_avatar, image_url, created_at, expires_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW() + INTERVAL '24 hours')
        RETURNING id, author_id, author_username, author_avatar, image_url, created_at, expires_at`,
		author.ID, author.Username, author.AvatarURL, imageURL).
		Scan(&story.ID, &story.AuthorID, &story.AuthorUsername, &story.AuthorAvatar, &story.ImageURL, &story.CreatedAt, &story.ExpiresAt)
	return story, err
}

// GetStory fetches a story by id. Expired rows still pending purge are
// returned; callers apply their own expiry filter where it matters.
func (r *StoryRepo) GetStory(ctx context.Context, storyID int) (models.Story, error) {
	var story models.Story
	err := r.db.GetContext(ctx, &story, `SELECT id, author_id, author_username, author_avatar, image_url, created_at, expires_at FROM stories WHERE id=$1`, storyID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Story{}, ErrStoryNotFound
	}
	return story, err
}

// FeedStories returns live stories from authors the viewer follows, plus the
// viewer's own, newest first, each flagged with the viewer's view state. The
// expiry filter here is authoritative regardless of purge timing.
func (r *StoryRepo) FeedStories(ctx context.Context, viewerID int) ([]models.StoryWithView, error) {
	query := `SELECT s.id, s.author_id, s.author_username, s.author_avatar, s.image_url, s.created_at, s.expires_at,
            (sv.user_id IS NOT NULL) AS is_viewed
        FROM stories s
        LEFT JOIN story_views sv ON sv.story_id = s.id AND sv.user_id=$1
        WHERE s.expires_at > NOW()
        AND (s.author_id=$1 OR s.author_id IN (SELECT following_id FROM follows WHERE follower_id=$1))
        ORDER BY s.created_at DESC, s.id DESC`
	var stories []models.StoryWithView
	err := r.db.SelectContext(ctx, &stories, query, viewerID)
	return stories, err
}

// MarkViewed records the view as an atomic set-add. Concurrent marks from the
// same viewer are idempotent; marks from different viewers never clobber each
// other.
func (r *StoryRepo) MarkViewed(ctx context.Context, storyID int, viewerID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO story_views (story_id, user_id) VALUES ($1, $2)
        ON CONFLICT (story_id, user_id) DO NOTHING`, storyID, viewerID)
	return err
}

// DeleteExpired physically removes stories past their lifetime. View rows go
// with them via the cascade.
func (r *StoryRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
