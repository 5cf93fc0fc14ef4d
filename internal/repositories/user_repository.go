package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stories-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the replicated user directory and the follow graph.
// Both are maintained by external services; this service never mutates them.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	FollowerIDs(ctx context.Context, userID int) ([]int, error)
	MutualFollowerIDs(ctx context.Context, userID int) ([]int, error)
	IsFollowing(ctx context.Context, followerID int, followingID int) (bool, error)
	AreMutuals(ctx context.Context, userID int, otherID int) (bool, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, avatar_url, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// FollowerIDs returns the ids of users following the given user.
func (r *UserRepo) FollowerIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT follower_id FROM follows WHERE following_id=$1 ORDER BY follower_id`, userID)
	return ids, err
}

// MutualFollowerIDs returns followers of the user who are also followed back.
func (r *UserRepo) MutualFollowerIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	query := `SELECT f.follower_id FROM follows f
        INNER JOIN follows r ON r.follower_id = f.following_id AND r.following_id = f.follower_id
        WHERE f.following_id=$1
        ORDER BY f.follower_id`
	err := r.db.SelectContext(ctx, &ids, query, userID)
	return ids, err
}

// IsFollowing checks for a one-directional follow edge.
func (r *UserRepo) IsFollowing(ctx context.Context, followerID int, followingID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND following_id=$2)`, followerID, followingID)
	return exists, err
}

// AreMutuals checks that both follow edges exist between two users.
func (r *UserRepo) AreMutuals(ctx context.Context, userID int, otherID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
        SELECT 1 FROM follows a
        INNER JOIN follows b ON b.follower_id = a.following_id AND b.following_id = a.follower_id
        WHERE a.follower_id=$1 AND a.following_id=$2)`
	err := r.db.GetContext(ctx, &exists, query, userID, otherID)
	return exists, err
}
