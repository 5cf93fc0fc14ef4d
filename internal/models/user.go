package models

import "time"

// User is the replicated user directory row this service reads. Accounts and
// profile edits are owned by the user service; only id, username and avatar
// matter here.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Follow is a one-directional edge in the follow graph, maintained by the
// follow service and read-only here.
type Follow struct {
	FollowerID  int       `db:"follower_id" json:"follower_id"`
	FollowingID int       `db:"following_id" json:"following_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
