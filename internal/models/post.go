package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a blog post stored in MongoDB
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string             `json:"user_id" bson:"user_id"` // author's user id
	Title         string             `json:"title" bson:"title"`
	Content       string             `json:"content" bson:"content"`
	ImageURLs     []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	Tags          []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title     string   `json:"title" validate:"required,min=1,max=200"`
	Content   string   `json:"content" validate:"required,min=1,max=50000"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	Tags      []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title     string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content   string   `json:"content,omitempty" validate:"omitempty,min=1,max=50000"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	Tags      []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
}
