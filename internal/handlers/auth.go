package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier verifies Firebase ID tokens; *auth.Client satisfies it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   TokenVerifier
	jwtSecret      string
	jwtTTL         time.Duration
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in
// which case federated login is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth TokenVerifier, jwtSecret string, jwtTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		jwtTTL:         jwtTTL,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.userRepository.GetUserByEmail(email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Avatar:    req.Avatar,
		Password:  string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	// same answer for unknown email and wrong password
	user, err := h.userRepository.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT,
// creating or linking the local account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}
	email = strings.ToLower(email)
	displayName, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(token.UID)
	switch {
	case err == nil:
		user.Email = email
	case errors.Is(err, repositories.ErrNotFound):
		user, err = h.userRepository.GetUserByEmail(email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
		if user == nil {
			user = &models.User{Email: email}
		}
		uid := token.UID
		user.FirebaseUID = &uid
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	if displayName != "" && user.FirstName == "" {
		user.FirstName, user.LastName = splitName(displayName)
	}
	if picture != "" && user.Avatar == "" {
		user.Avatar = picture
	}

	if user.ID == 0 {
		err = h.userRepository.CreateUser(user)
	} else {
		err = h.userRepository.UpdateUser(user)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save user")
	}

	localJWT, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": localJWT, "user": user})
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
