package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// SavedPostHandler handles bookmarks
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(savedPostRepo repositories.SavedPostRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedPostRepo,
		postRepository:      postRepo,
		userRepository:      userRepo,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
	g.GET("/saved-posts", h.GetSavedPosts)
}

// SavePost bookmarks a post
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return repoError(err, "Post not found")
	}

	if err := h.savedPostRepository.SavePost(&models.SavedPost{UserID: currentUserID, PostID: postID}); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Post already saved")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"post_id": postID, "saved": true}})
}

// UnsavePost removes a bookmark
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	if err := h.savedPostRepository.UnsavePost(currentUserID, postID); err != nil {
		return repoError(err, "Saved post not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"post_id": postID, "saved": false}})
}

// GetSavedPosts lists the caller's bookmarked posts, most recently saved
// first. Bookmarks of posts deleted since are skipped.
func (h *SavedPostHandler) GetSavedPosts(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c, 10)

	saved, total, err := h.savedPostRepository.GetSavedPostsByUser(currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	posts := make([]models.Post, 0, len(saved))
	for _, s := range saved {
		post, err := h.postRepository.GetPostByID(ctx, s.PostID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		posts = append(posts, *post)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    enrichPosts(h.userRepository, posts),
		"meta":    pageMeta(page, limit, total),
	})
}
