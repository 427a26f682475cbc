package models

import "time"

// Follow is a one-way "follower reads following" edge between two users
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowStatus is returned by follow and unfollow
type FollowStatus struct {
	UserID    uint `json:"user_id"`
	Following bool `json:"following"`
}
