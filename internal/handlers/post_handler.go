package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PostCommentsDeleter removes the comments of a deleted post
type PostCommentsDeleter interface {
	DeletePostComments(ctx context.Context, postID string) error
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	likeRepository      repositories.LikeRepository
	savedPostRepository repositories.SavedPostRepository
	comments            PostCommentsDeleter
	store               *commenttree.Store
	log                 zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	savedPostRepo repositories.SavedPostRepository,
	comments PostCommentsDeleter,
	store *commenttree.Store,
	log zerolog.Logger,
) *PostHandler {
	return &PostHandler{
		postRepository:      postRepo,
		userRepository:      userRepo,
		likeRepository:      likeRepo,
		savedPostRepository: savedPostRepo,
		comments:            comments,
		store:               store,
		log:                 log,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts) // all posts, or one author's with ?user_id=
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// EnrichedPost is a post with its author's public summary
type EnrichedPost struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post := &models.Post{
		UserID:    models.UserIDString(userID),
		Title:     req.Title,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
		Tags:      req.Tags,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, enrichPosts(h.userRepository, []models.Post{*post})[0])
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return repoError(err, "Post not found")
	}
	return c.JSON(http.StatusOK, enrichPosts(h.userRepository, []models.Post{*post})[0])
}

// GetPosts retrieves multiple posts, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	userID := c.QueryParam("user_id")
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var posts []models.Post
	var err error
	if userID != "" {
		posts, _, err = h.postRepository.GetPostsByUserIDs(c.Request().Context(), []string{userID}, skip, limit)
	} else {
		posts, err = h.postRepository.GetAllPosts(c.Request().Context(), skip, limit)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, enrichPosts(h.userRepository, posts))
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	existingPost, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return repoError(err, "Post not found")
	}
	if existingPost.UserID != models.UserIDString(userID) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	if req.Title != "" {
		existingPost.Title = req.Title
	}
	if req.Content != "" {
		existingPost.Content = req.Content
	}
	if req.ImageURLs != nil {
		existingPost.ImageURLs = req.ImageURLs
	}
	if req.Tags != nil {
		existingPost.Tags = req.Tags
	}

	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, existingPost); err != nil {
		return repoError(err, "Post not found")
	}
	return c.JSON(http.StatusOK, enrichPosts(h.userRepository, []models.Post{*existingPost})[0])
}

// DeletePost deletes a post and its comments
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")
	ctx := c.Request().Context()

	existingPost, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return repoError(err, "Post not found")
	}
	if existingPost.UserID != models.UserIDString(userID) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return repoError(err, "Post not found")
	}
	if err := h.comments.DeletePostComments(ctx, postID); err != nil {
		h.log.Error().Err(err).Str("post_id", postID).Msg("failed to delete comments of deleted post")
	}
	if err := h.likeRepository.DeleteLikesByPostID(postID); err != nil {
		h.log.Warn().Err(err).Str("post_id", postID).Msg("failed to delete likes of deleted post")
	}
	if err := h.savedPostRepository.DeleteSavesByPostID(postID); err != nil {
		h.log.Warn().Err(err).Str("post_id", postID).Msg("failed to delete bookmarks of deleted post")
	}
	if h.store.IsLoaded(postID) || len(h.store.Forest(postID)) > 0 {
		// leaves an empty forest behind
		if err := h.store.LoadCommentsForPost(ctx, postID); err != nil {
			h.log.Warn().Err(err).Str("post_id", postID).Msg("failed to reset cached comments")
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// enrichPosts attaches author summaries
func enrichPosts(users repositories.UserRepository, posts []models.Post) []EnrichedPost {
	dir := newUserDirectory(users)
	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		enriched[i] = EnrichedPost{Post: p, Author: dir.lookupString(p.UserID)}
	}
	return enriched
}
