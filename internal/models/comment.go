package models

import (
	"time"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a comment or reply stored in MongoDB. Replies point at their
// parent through ParentID; the nesting is rebuilt on read.
type Comment struct {
	ID        primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	PostID    string                `json:"post_id" bson:"post_id"`
	ParentID  string                `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Content   string                `json:"content" bson:"content"`
	Author    commenttree.AuthorRef `json:"author" bson:"author"`
	Likes     int                   `json:"likes" bson:"likes"`
	LikedBy   []string              `json:"liked_by" bson:"liked_by"`
	CreatedAt time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time             `json:"updated_at" bson:"updated_at"`
}

// ToRaw converts the stored document into the comment service wire form
func (c *Comment) ToRaw() commenttree.RawComment {
	likes := c.Likes
	return commenttree.RawComment{
		ID:        c.ID.Hex(),
		Content:   c.Content,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Likes:     &likes,
		LikedBy:   append([]string(nil), c.LikedBy...),
		CreatedAt: c.CreatedAt,
		Author:    c.Author,
	}
}

// CreateCommentRequest defines the request body for a comment or a reply
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// UpdateCommentRequest defines the request body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}
