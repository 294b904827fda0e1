package models

import "time"

// Like records that a user likes a post. The composite unique index makes the
// likes of a post a set: inserting an existing (user, post) pair is a no-op at
// the store layer, so duplicates are impossible by construction.
//
// Likes are hard-deleted (no DeletedAt): a row either exists in the set or it
// does not.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
