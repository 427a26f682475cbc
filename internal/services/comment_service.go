package services

import (
	"context"
	"fmt"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/rs/zerolog"
)

// CommentService is the server side of commenttree.Service. It persists
// comments in MongoDB, keeps posts' comment counts in step and records
// notifications for the people a comment concerns.
type CommentService struct {
	comments      repositories.CommentRepository
	posts         repositories.PostRepository
	notifications repositories.NotificationRepository
	log           zerolog.Logger
}

var _ commenttree.Service = (*CommentService)(nil)

// NewCommentService creates a new CommentService
func NewCommentService(
	comments repositories.CommentRepository,
	posts repositories.PostRepository,
	notifications repositories.NotificationRepository,
	log zerolog.Logger,
) *CommentService {
	return &CommentService{
		comments:      comments,
		posts:         posts,
		notifications: notifications,
		log:           log.With().Str("component", "comment_service").Logger(),
	}
}

func (s *CommentService) FetchComments(ctx context.Context, postID string) ([]commenttree.RawComment, error) {
	stored, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	raws := make([]commenttree.RawComment, 0, len(stored))
	for i := range stored {
		raws = append(raws, stored[i].ToRaw())
	}
	return raws, nil
}

func (s *CommentService) CreateComment(ctx context.Context, postID, content string, author commenttree.AuthorRef) (*commenttree.RawComment, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, Content: content, Author: author}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	s.adjustCount(ctx, postID, 1)
	s.notify(author.ID, post.UserID, models.NotificationComment, postID, "post",
		fmt.Sprintf("%s commented on your post", displayName(author)))

	raw := comment.ToRaw()
	return &raw, nil
}

func (s *CommentService) ReplyToComment(ctx context.Context, parentID, content string, author commenttree.AuthorRef) (*commenttree.RawComment, error) {
	parent, err := s.comments.GetCommentByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	reply := &models.Comment{
		PostID:   parent.PostID,
		ParentID: parentID,
		Content:  content,
		Author:   author,
	}
	if err := s.comments.CreateComment(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	s.adjustCount(ctx, parent.PostID, 1)
	s.notify(author.ID, parent.Author.ID, models.NotificationReply, parentID, "comment",
		fmt.Sprintf("%s replied to your comment", displayName(author)))

	raw := reply.ToRaw()
	return &raw, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, commentID, content string) (*commenttree.RawComment, error) {
	comment, err := s.comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	raw := comment.ToRaw()
	return &raw, nil
}

// DeleteComment removes the comment together with its replies
func (s *CommentService) DeleteComment(ctx context.Context, commentID string) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	removed, err := s.comments.DeleteCommentTree(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.adjustCount(ctx, comment.PostID, -int(removed))
	return nil
}

func (s *CommentService) LikeComment(ctx context.Context, commentID, userID string) (int, error) {
	before, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return 0, err
	}
	after, err := s.comments.AddLike(ctx, commentID, userID)
	if err != nil {
		return 0, err
	}
	if !contains(before.LikedBy, userID) {
		s.notify(userID, after.Author.ID, models.NotificationLike, commentID, "comment", "Someone liked your comment")
	}
	return after.Likes, nil
}

func (s *CommentService) UnlikeComment(ctx context.Context, commentID, userID string) (int, error) {
	after, err := s.comments.RemoveLike(ctx, commentID, userID)
	if err != nil {
		return 0, err
	}
	return after.Likes, nil
}

// DeletePostComments drops every comment of a deleted post
func (s *CommentService) DeletePostComments(ctx context.Context, postID string) error {
	removed, err := s.comments.DeleteCommentsByPostID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post comments: %w", err)
	}
	s.log.Debug().Str("post_id", postID).Int64("removed", removed).Msg("post comments deleted")
	return nil
}

func (s *CommentService) adjustCount(ctx context.Context, postID string, delta int) {
	if delta == 0 {
		return
	}
	if err := s.posts.AddCommentsCount(ctx, postID, delta); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Int("delta", delta).Msg("failed to update comments count")
	}
}

// notify records a notification for recipient unless the actor is the
// recipient or either id is not a user id.
func (s *CommentService) notify(actor, recipient, kind, targetID, targetType, message string) {
	if actor == recipient {
		return
	}
	actorID, ok := models.ParseUserID(actor)
	if !ok {
		return
	}
	recipientID, ok := models.ParseUserID(recipient)
	if !ok {
		return
	}
	n := &models.Notification{
		Type:        kind,
		ActorID:     actorID,
		RecipientID: recipientID,
		TargetID:    targetID,
		TargetType:  targetType,
		Message:     message,
	}
	if err := s.notifications.CreateNotification(n); err != nil {
		s.log.Warn().Err(err).Str("type", kind).Uint("recipient_id", recipientID).Msg("failed to create notification")
	}
}

func displayName(a commenttree.AuthorRef) string {
	name := a.FirstName
	if a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += a.LastName
	}
	if name == "" {
		return "Someone"
	}
	return name
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
