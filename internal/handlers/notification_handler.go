package handlers

import (
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) withActors(notifications []models.Notification) []EnrichedNotification {
	dir := newUserDirectory(h.userRepository)
	out := make([]EnrichedNotification, 0, len(notifications))
	for _, n := range notifications {
		actor, _ := dir.lookup(n.ActorID)
		out = append(out, EnrichedNotification{Notification: n, Actor: actor})
	}
	return out
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c, 20)

	notifications, total, err := h.notificationRepository.GetByRecipientID(currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.withActors(notifications),
		},
		"meta": pageMeta(page, limit, total),
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	notifID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(notifID, currentUserID); err != nil {
		return repoError(err, "Notification not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}
