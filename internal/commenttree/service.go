package commenttree

import "context"

// Service is the remote comment API the store talks to. Every returned
// comment is normalised by the store before it touches the cache.
type Service interface {
	FetchComments(ctx context.Context, postID string) ([]RawComment, error)
	CreateComment(ctx context.Context, postID, content string, author AuthorRef) (*RawComment, error)
	ReplyToComment(ctx context.Context, parentID, content string, author AuthorRef) (*RawComment, error)
	UpdateComment(ctx context.Context, commentID, content string) (*RawComment, error)
	DeleteComment(ctx context.Context, commentID string) error
	// LikeComment and UnlikeComment return the authoritative like count.
	LikeComment(ctx context.Context, commentID, userID string) (int, error)
	UnlikeComment(ctx context.Context, commentID, userID string) (int, error)
}
