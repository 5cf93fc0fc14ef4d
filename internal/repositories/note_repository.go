package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stories-service/internal/models"
)

var ErrNoteNotFound = errors.New("note not found")

// NoteRepository abstracts note persistence.
type NoteRepository interface {
	CreateNote(ctx context.Context, author models.User, text string) (models.Note, error)
	GetNote(ctx context.Context, noteID int) (models.Note, error)
	FeedNotes(ctx context.Context, viewerID int) ([]models.NoteWithView, error)
	MarkViewed(ctx context.Context, noteID int, viewerID int) error
	DeleteNote(ctx context.Context, noteID int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// NoteRepo is a sqlx implementation of NoteRepository.
type NoteRepo struct {
	db *sqlx.DB
}

// NewNoteRepo constructs a NoteRepo.
func NewNoteRepo(db *sqlx.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// CreateNote replaces all prior notes of the author with the new one. The
// supersession delete and the insert commit together.
func (r *NoteRepo) CreateNote(ctx context.Context, author models.User, text string) (models.Note, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Note{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM notes WHERE author_id=$1`, author.ID); err != nil {
		return models.Note{}, err
	}

	var note models.Note
	if err = tx.QueryRowxContext(ctx, `INSERT INTO notes (author_id, author_username, author_avatar, text, created_at, expires_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW() + INTERVAL '24 hours')
        RETURNING id, author_id, author_username, author_avatar, text, created_at, expires_at`,
		author.ID, author.Username, author.AvatarURL, text).
		Scan(&note.ID, &note.AuthorID, &note.AuthorUsername, &note.AuthorAvatar, &note.Text, &note.CreatedAt, &note.ExpiresAt); err != nil {
		return models.Note{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// GetNote fetches a note by id.
func (r *NoteRepo) GetNote(ctx context.Context, noteID int) (models.Note, error) {
	var note models.Note
	err := r.db.GetContext(ctx, &note, `SELECT id, author_id, author_username, author_avatar, text, created_at, expires_at FROM notes WHERE id=$1`, noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNoteNotFound
	}
	return note, err
}

// FeedNotes returns live notes from mutual follows plus the viewer's own,
// newest first. Mutual means the viewer follows the author and the author
// follows the viewer back.
func (r *NoteRepo) FeedNotes(ctx context.Context, viewerID int) ([]models.NoteWithView, error) {
	query := `SELECT n.id, n.author_id, n.author_username, n.author_avatar, n.text, n.created_at, n.expires_at,
            (nv.user_id IS NOT NULL) AS is_viewed
        FROM notes n
        LEFT JOIN note_views nv ON nv.note_id = n.id AND nv.user_id=$1
        WHERE n.expires_at > NOW()
        AND (n.author_id=$1 OR n.author_id IN (
            SELECT f.following_id FROM follows f
            INNER JOIN follows b ON b.follower_id = f.following_id AND b.following_id = f.follower_id
            WHERE f.follower_id=$1))
        ORDER BY n.created_at DESC, n.id DESC`
	var notes []models.NoteWithView
	err := r.db.SelectContext(ctx, &notes, query, viewerID)
	return notes, err
}

// MarkViewed records the view as an atomic set-add.
func (r *NoteRepo) MarkViewed(ctx context.Context, noteID int, viewerID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO note_views (note_id, user_id) VALUES ($1, $2)
        ON CONFLICT (note_id, user_id) DO NOTHING`, noteID, viewerID)
	return err
}

// DeleteNote hard-deletes a note.
func (r *NoteRepo) DeleteNote(ctx context.Context, noteID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1`, noteID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteExpired physically removes notes past their lifetime.
func (r *NoteRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
