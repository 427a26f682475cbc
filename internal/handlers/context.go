package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's id, or 0
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.UserContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

func requireUserID(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseIDParam(c echo.Context, name, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return uint(id), nil
}

// bindAndValidate binds the request body into req and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// pagination reads page and limit query params
func pagination(c echo.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit
}

func pageMeta(page, limit int, total int64) echo.Map {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

// repoError maps repository errors onto HTTP errors
func repoError(err error, notFoundMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// userDirectory resolves public user summaries, fetching each user once.
// Unknown users resolve to the zero summary.
type userDirectory struct {
	users repositories.UserRepository
	seen  map[uint]models.UserCompact
}

func newUserDirectory(users repositories.UserRepository) *userDirectory {
	return &userDirectory{users: users, seen: make(map[uint]models.UserCompact)}
}

func (d *userDirectory) lookup(id uint) (models.UserCompact, bool) {
	if u, ok := d.seen[id]; ok {
		return u, u.ID != 0
	}
	var summary models.UserCompact
	if user, err := d.users.GetUserByID(id); err == nil {
		summary = user.ToCompact()
	}
	d.seen[id] = summary
	return summary, summary.ID != 0
}

// lookupString is lookup for ids stored as strings in documents
func (d *userDirectory) lookupString(id string) models.UserCompact {
	uid, ok := models.ParseUserID(id)
	if !ok {
		return models.UserCompact{}
	}
	u, _ := d.lookup(uid)
	return u
}
