package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserContextKey is where the verified claims are stored on the echo context
const UserContextKey = "user"

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil {
				var verr *jwt.ValidationError
				if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if !token.Valid || claims.UserID == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}
