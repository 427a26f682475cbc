package models

import "time"

const (
	NotificationComment  = "comment"
	NotificationReply    = "reply"
	NotificationLike     = "comment_like"
	NotificationPostLike = "post_like"
	NotificationFollow   = "follow"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"` // comment, reply, comment_like, post_like, follow
	ActorID     uint      `json:"actor_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	TargetID    string    `json:"target_id"`                  // post ID, comment ID or user ID
	TargetType  string    `json:"target_type" gorm:"size:20"` // post, comment, user
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
