package models

import (
	"time"

	"gorm.io/gorm"
)

// Rating bounds for a review. Half-steps (3.5, 4.5) are allowed.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Post represents a restaurant review.
//
// LikesCount, CommentsCount and LikedByMe are never persisted; the repository
// computes them per query via subselects against the likes and comments tables
// so a page of posts costs a single round trip.
type Post struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UserID         uint    `gorm:"not null;index" json:"user_id"`
	User           User    `gorm:"foreignKey:UserID" json:"user"`
	RestaurantName string  `gorm:"not null;index" json:"restaurant_name"`
	Text           string  `gorm:"type:text;not null" json:"text"`
	Rating         float64 `gorm:"not null" json:"rating"`
	// ImageURL is a single optional stored-file reference (e.g. /uploads/<name>).
	ImageURL      string         `json:"image_url"`
	LikesCount    int            `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int            `gorm:"->;-:migration" json:"comments_count"`
	LikedByMe     bool           `gorm:"->;-:migration" json:"liked_by_me"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidRating reports whether r is within [MinRating, MaxRating] on a
// half-step boundary.
func ValidRating(r float64) bool {
	if r < MinRating || r > MaxRating {
		return false
	}
	doubled := r * 2
	return doubled == float64(int64(doubled))
}
