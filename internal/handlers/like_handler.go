package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const recentLikers = 5

// LikeHandler handles likes on posts. Comment likes live with the comments.
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository // keeps likes_count in step
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	log                    zerolog.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	log zerolog.Logger,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		log:                    log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes", h.GetPostLikes)
}

// LikePost likes a post and tells its author
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return repoError(err, "Post not found")
	}

	if err := h.likeRepository.CreateLike(&models.Like{PostID: postID, UserID: userID}); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.AddLikesCount(ctx, postID, 1); err != nil {
		h.log.Warn().Err(err).Str("post_id", postID).Msg("failed to update likes count")
	}

	if authorID, ok := models.ParseUserID(post.UserID); ok && authorID != userID {
		notif := &models.Notification{
			Type:        models.NotificationPostLike,
			ActorID:     userID,
			RecipientID: authorID,
			TargetID:    postID,
			TargetType:  "post",
			Message:     "Someone liked your post",
		}
		if err := h.notificationRepository.CreateNotification(notif); err != nil {
			h.log.Warn().Err(err).Msg("failed to create post like notification")
		}
	}

	return h.status(c, http.StatusCreated, postID, true, false)
}

// UnlikePost withdraws the caller's like
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	if err := h.likeRepository.DeleteLike(postID, userID); err != nil {
		return repoError(err, "Like not found")
	}
	if err := h.postRepository.AddLikesCount(c.Request().Context(), postID, -1); err != nil {
		h.log.Warn().Err(err).Str("post_id", postID).Msg("failed to update likes count")
	}
	return h.status(c, http.StatusOK, postID, false, false)
}

// GetPostLikes returns the like count, whether the caller liked the post
// and the most recent likers
func (h *LikeHandler) GetPostLikes(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return repoError(err, "Post not found")
	}

	liked, err := h.likeRepository.HasUserLikedPost(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.status(c, http.StatusOK, postID, liked, true)
}

func (h *LikeHandler) status(c echo.Context, code int, postID string, liked, withLikers bool) error {
	count, err := h.likeRepository.GetLikesCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	status := models.PostLikeStatus{PostID: postID, LikesCount: count, Liked: liked}
	if withLikers {
		ids, err := h.likeRepository.GetRecentLikerIDs(postID, recentLikers)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		dir := newUserDirectory(h.userRepository)
		status.Likers = make([]models.UserCompact, 0, len(ids))
		for _, id := range ids {
			if u, ok := dir.lookup(id); ok {
				status.Likers = append(status.Likers, u)
			}
		}
	}
	return c.JSON(code, echo.Map{"success": true, "data": status})
}
