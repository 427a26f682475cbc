package models

import "time"

// Like is a user's like on a post (PostgreSQL). Posts live in MongoDB, so
// PostID holds the hex ObjectID.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_like_post_user"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_like_post_user"`
	CreatedAt time.Time `json:"created_at"`
}

// PostLikeStatus is returned by the post like endpoints
type PostLikeStatus struct {
	PostID     string        `json:"post_id"`
	LikesCount int64         `json:"likes_count"`
	Liked      bool          `json:"liked"`
	Likers     []UserCompact `json:"likers,omitempty"`
}
