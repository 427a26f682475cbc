package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler serves comment threads out of the comment store. Reads come
// from the cached forest of a post; writes go through the store so the
// cached forest follows every change.
type CommentHandler struct {
	store             *commenttree.Store
	commentRepository repositories.CommentRepository // ownership checks
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository // author details for new comments
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	store *commenttree.Store,
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
) *CommentHandler {
	return &CommentHandler{
		store:             store,
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/posts/:post_id/comments", h.GetCommentTree)
	g.GET("/posts/:post_id/comments/flat", h.GetFlatComments)
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.POST("/comments/:id/replies", h.ReplyToComment)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/comments/:id/like", h.LikeComment)
	g.DELETE("/comments/:id/like", h.UnlikeComment)
}

// FlatComment is a comment without its replies, tagged with its depth
type FlatComment struct {
	ID         string                `json:"id"`
	Content    string                `json:"content"`
	Author     commenttree.AuthorRef `json:"author"`
	PostID     string                `json:"postId"`
	ParentID   string                `json:"parentId,omitempty"`
	Likes      int                   `json:"likes"`
	LikedBy    []string              `json:"likesBy"`
	CreatedAt  time.Time             `json:"createdAt"`
	Depth      int                   `json:"depth"`
	ReplyCount int                   `json:"replyCount"`
}

// GetCommentTree returns the nested comment forest of a post. ?refresh=true
// reloads it from the database first.
func (h *CommentHandler) GetCommentTree(c echo.Context) error {
	postID := c.Param("post_id")
	forest, err := h.forest(c, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"comments": forest,
			"total":    commenttree.Count(forest),
		},
	})
}

// GetFlatComments returns the forest in display order as a flat list
func (h *CommentHandler) GetFlatComments(c echo.Context) error {
	postID := c.Param("post_id")
	forest, err := h.forest(c, postID)
	if err != nil {
		return err
	}
	flat := make([]FlatComment, 0, commenttree.Count(forest))
	flat = flatten(flat, forest, 0)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"comments": flat,
			"total":    len(flat),
		},
	})
}

func (h *CommentHandler) forest(c echo.Context, postID string) ([]*commenttree.Comment, error) {
	ctx := c.Request().Context()
	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		return nil, repoError(err, "Post not found")
	}
	if c.QueryParam("refresh") == "true" || !h.store.IsLoaded(postID) {
		if err := h.store.LoadCommentsForPost(ctx, postID); err != nil {
			return nil, commentError(err)
		}
	}
	return h.store.Forest(postID), nil
}

// CreateComment adds a top-level comment to a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if !h.store.IsLoaded(postID) {
		if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
			return repoError(err, "Post not found")
		}
		if err := h.store.LoadCommentsForPost(ctx, postID); err != nil {
			return commentError(err)
		}
	}

	comment, err := h.store.AddComment(ctx, postID, req.Content, user.ToAuthor())
	if err != nil {
		return commentError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": comment})
}

// ReplyToComment adds a reply below an existing comment
func (h *CommentHandler) ReplyToComment(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	parent, err := h.loadTarget(c)
	if err != nil {
		return err
	}

	reply, err := h.store.ReplyToComment(c.Request().Context(), parent.ID.Hex(), req.Content, user.ToAuthor())
	if err != nil {
		return commentError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": reply})
}

// UpdateComment edits the content of the caller's own comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.loadTarget(c)
	if err != nil {
		return err
	}
	if comment.Author.ID != models.UserIDString(userID) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	updated, err := h.store.UpdateComment(c.Request().Context(), comment.ID.Hex(), req.Content)
	if err != nil {
		return commentError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}

// DeleteComment deletes the caller's own comment with all of its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	comment, err := h.loadTarget(c)
	if err != nil {
		return err
	}
	if comment.Author.ID != models.UserIDString(userID) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.store.RemoveComment(c.Request().Context(), comment.ID.Hex(), comment.PostID); err != nil {
		return commentError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LikeComment likes a comment; liking twice is a no-op
func (h *CommentHandler) LikeComment(c echo.Context) error {
	return h.like(c, true)
}

// UnlikeComment withdraws the caller's like
func (h *CommentHandler) UnlikeComment(c echo.Context) error {
	return h.like(c, false)
}

func (h *CommentHandler) like(c echo.Context, liked bool) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	comment, err := h.loadTarget(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	liker := models.UserIDString(userID)
	var likes int
	if liked {
		likes, err = h.store.LikeComment(ctx, comment.ID.Hex(), comment.PostID, liker)
	} else {
		likes, err = h.store.UnlikeComment(ctx, comment.ID.Hex(), comment.PostID, liker)
	}
	if err != nil {
		return commentError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"id": comment.ID.Hex(), "likes": likes, "liked": liked},
	})
}

// loadTarget reads the comment named by :id and makes sure its post's
// forest is cached before it is mutated
func (h *CommentHandler) loadTarget(c echo.Context) (*models.Comment, error) {
	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, c.Param("id"))
	if err != nil {
		return nil, repoError(err, "Comment not found")
	}
	if !h.store.IsLoaded(comment.PostID) {
		if err := h.store.LoadCommentsForPost(ctx, comment.PostID); err != nil {
			return nil, commentError(err)
		}
	}
	return comment, nil
}

func (h *CommentHandler) currentUser(c echo.Context) (*models.User, error) {
	userID, err := requireUserID(c)
	if err != nil {
		return nil, err
	}
	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authenticated user not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return user, nil
}

// commentError maps comment store errors onto HTTP errors
func commentError(err error) error {
	var malformed *commenttree.MalformedCommentError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	case errors.As(err, &malformed):
		return echo.NewHTTPError(http.StatusInternalServerError, malformed.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func flatten(out []FlatComment, forest []*commenttree.Comment, depth int) []FlatComment {
	for _, c := range forest {
		out = append(out, FlatComment{
			ID:         c.ID,
			Content:    c.Content,
			Author:     c.Author,
			PostID:     c.PostID,
			ParentID:   c.ParentID,
			Likes:      c.Likes,
			LikedBy:    c.LikedBy,
			CreatedAt:  c.CreatedAt,
			Depth:      depth,
			ReplyCount: len(c.Replies),
		})
		out = flatten(out, c.Replies, depth+1)
	}
	return out
}
