package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	log                    zerolog.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, log zerolog.Logger) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		log:                    log,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	if _, err := h.userRepository.GetUserByID(targetID); err != nil {
		return repoError(err, "User not found")
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.userRepository.AdjustFollowCounts(currentUserID, targetID, 1); err != nil {
		h.log.Warn().Err(err).Uint("follower_id", currentUserID).Uint("following_id", targetID).Msg("failed to update follow counts")
	}

	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		notif := &models.Notification{
			Type:        models.NotificationFollow,
			ActorID:     currentUserID,
			RecipientID: targetID,
			TargetID:    models.UserIDString(currentUserID),
			TargetType:  "user",
			Message:     actor.FirstName + " started following you",
		}
		if err := h.notificationRepository.CreateNotification(notif); err != nil {
			h.log.Warn().Err(err).Msg("failed to create follow notification")
		}
	}

	return c.JSON(http.StatusOK, models.FollowStatus{UserID: targetID, Following: true})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.followRepository.DeleteFollow(currentUserID, targetID); err != nil {
		return repoError(err, "Not following this user")
	}
	if err := h.userRepository.AdjustFollowCounts(currentUserID, targetID, -1); err != nil {
		h.log.Warn().Err(err).Uint("follower_id", currentUserID).Uint("following_id", targetID).Msg("failed to update follow counts")
	}

	return c.JSON(http.StatusOK, models.FollowStatus{UserID: targetID, Following: false})
}

// GetFollowers lists who follows the user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.list(c, h.followRepository.GetFollowers)
}

// GetFollowing lists who the user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.list(c, h.followRepository.GetFollowing)
}

func (h *FollowHandler) list(c echo.Context, fetch func(uint) ([]models.User, error)) error {
	userID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := fetch(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	compact := make([]models.UserCompact, 0, len(users))
	for i := range users {
		compact = append(compact, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, compact)
}
