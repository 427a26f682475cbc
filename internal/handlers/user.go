package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const searchLimit = 20

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteUser)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(id)
	if err != nil {
		return repoError(err, "User profile not found")
	}
	return c.JSON(http.StatusOK, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		return repoError(err, "User profile not found")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile. Comments keep the
// author details they were written with.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		return repoError(err, "User profile not found")
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes the authenticated user's profile
func (h *UserHandler) DeleteUser(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.userRepository.DeleteUser(userID); err != nil {
		return repoError(err, "User profile not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers searches for users by name or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(query, searchLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	compact := make([]models.UserCompact, 0, len(users))
	for i := range users {
		compact = append(compact, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, compact)
}
