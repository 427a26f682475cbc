package handlers

import (
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the newest posts by the current user and the people they follow
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c, 10)

	following, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorIDs := make([]string, 0, len(following)+1)
	authorIDs = append(authorIDs, models.UserIDString(currentUserID))
	for _, id := range following {
		authorIDs = append(authorIDs, models.UserIDString(id))
	}

	skip := int64((page - 1) * limit)
	posts, total, err := h.postRepository.GetPostsByUserIDs(c.Request().Context(), authorIDs, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": enrichPosts(h.userRepository, posts),
		},
		"meta": pageMeta(page, limit, total),
	})
}
