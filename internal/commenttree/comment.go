// Package commenttree turns flat comment lists into reply trees and keeps a
// per-post cache of those trees consistent across mutations.
package commenttree

import "time"

// MaxContentLength is the longest comment body accepted, in characters.
const MaxContentLength = 10000

// AuthorRef is the user summary embedded in a comment at creation time
type AuthorRef struct {
	ID        string `json:"id" bson:"id"`
	FirstName string `json:"firstName" bson:"first_name"`
	LastName  string `json:"lastName" bson:"last_name"`
	Avatar    string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// RawComment is a comment as it arrives from the comment service
type RawComment struct {
	ID        string    `json:"id" validate:"required"`
	Content   string    `json:"content" validate:"required,max=10000"`
	PostID    string    `json:"postId" validate:"required"`
	ParentID  string    `json:"parentId,omitempty"`
	Likes     *int      `json:"likes,omitempty" validate:"omitempty,min=0"`
	LikedBy   []string  `json:"likesBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Author    AuthorRef `json:"author"`
}

// Comment is the canonical node of a post's comment forest
type Comment struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Author    AuthorRef  `json:"author"`
	PostID    string     `json:"postId"`
	ParentID  string     `json:"parentId,omitempty"`
	Likes     int        `json:"likes"`
	LikedBy   []string   `json:"likesBy"`
	CreatedAt time.Time  `json:"createdAt"`
	Replies   []*Comment `json:"replies"`
}

// IsRoot reports whether the comment has no parent
func (c *Comment) IsRoot() bool {
	return c.ParentID == ""
}

// HasLiked reports whether userID is in LikedBy
func (c *Comment) HasLiked(userID string) bool {
	for _, id := range c.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the comment and its replies
func (c *Comment) Clone() *Comment {
	cp := *c
	cp.LikedBy = append([]string(nil), c.LikedBy...)
	if cp.LikedBy == nil {
		cp.LikedBy = []string{}
	}
	cp.Replies = make([]*Comment, len(c.Replies))
	for i, r := range c.Replies {
		cp.Replies[i] = r.Clone()
	}
	return &cp
}

// CloneForest deep copies an ordered sequence of roots
func CloneForest(forest []*Comment) []*Comment {
	out := make([]*Comment, len(forest))
	for i, c := range forest {
		out[i] = c.Clone()
	}
	return out
}

// Count returns the number of comments in a forest, replies included
func Count(forest []*Comment) int {
	n := 0
	for _, c := range forest {
		n += 1 + Count(c.Replies)
	}
	return n
}

// Find returns the first comment with the given id, depth first
func Find(forest []*Comment, id string) *Comment {
	for _, c := range forest {
		if c.ID == id {
			return c
		}
		if found := Find(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}
