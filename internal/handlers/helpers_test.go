package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/mocks"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// request builds an echo context for a handler call. userID 0 means
// unauthenticated; params alternate name, value.
func request(e *echo.Echo, method, target, body string, userID uint, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set(middleware.UserContextKey, &models.JwtCustomClaims{UserID: userID})
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code, "message: %v", he.Message)
	return he
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func seedUser(t *testing.T, users *mocks.MockUserRepository, first, email string) *models.User {
	t.Helper()
	u := &models.User{FirstName: first, LastName: "Test", Email: email}
	require.NoError(t, users.CreateUser(u))
	return u
}
