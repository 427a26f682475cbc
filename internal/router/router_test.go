package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/mocks"
	"github.com/anonto42/inkwell/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t *testing.T
	e *echo.Echo
}

func newServer(t *testing.T) *server {
	t.Helper()
	users := mocks.NewMockUserRepository()
	deps := Dependencies{
		Users:         users,
		Follows:       mocks.NewMockFollowRepository(users),
		Notifications: mocks.NewMockNotificationRepository(),
		Posts:         mocks.NewMockPostRepository(),
		Comments:      mocks.NewMockCommentRepository(),
		Likes:         mocks.NewMockLikeRepository(),
		SavedPosts:    mocks.NewMockSavedPostRepository(),
		JWTSecret:     "router-test-secret",
		JWTTTL:        time.Hour,
		Log:           zerolog.Nop(),
		Metrics:       prometheus.NewRegistry(),
	}
	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupMiddleware(e, deps.Log)
	SetupRoutes(e, deps)
	return &server{t: t, e: e}
}

func (s *server) do(method, path, token, body string, out interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func (s *server) signup(first, email string) string {
	s.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	body := `{"first_name":"` + first + `","last_name":"Test","email":"` + email + `","password":"password123"}`
	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", body, &resp)
	require.Equal(s.t, http.StatusCreated, rec.Code)
	return resp.Token
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	var resp map[string]string
	rec := s.do(http.MethodGet, "/health", "", "", &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/api/v1/profile", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/profile", "garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommentThreadEndToEnd(t *testing.T) {
	s := newServer(t)
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")

	var post struct {
		ID string `json:"id"`
	}
	rec := s.do(http.MethodPost, "/api/v1/posts", alice, `{"title":"Trees","content":"All about trees"}`, &post)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, post.ID)

	type commentResp struct {
		Data struct {
			ID       string `json:"id"`
			ParentID string `json:"parentId"`
		} `json:"data"`
	}
	var root commentResp
	rec = s.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", bob, `{"content":"Nice read"}`, &root)
	require.Equal(t, http.StatusCreated, rec.Code)

	var reply commentResp
	rec = s.do(http.MethodPost, "/api/v1/comments/"+root.Data.ID+"/replies", alice, `{"content":"Thanks Bob"}`, &reply)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, root.Data.ID, reply.Data.ParentID)

	rec = s.do(http.MethodPost, "/api/v1/comments/"+reply.Data.ID+"/like", bob, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tree struct {
		Data struct {
			Comments []struct {
				ID      string `json:"id"`
				Replies []struct {
					ID    string `json:"id"`
					Likes int    `json:"likes"`
				} `json:"replies"`
			} `json:"comments"`
			Total int `json:"total"`
		} `json:"data"`
	}
	rec = s.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", bob, "", &tree)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, tree.Data.Total)
	require.Len(t, tree.Data.Comments, 1)
	require.Len(t, tree.Data.Comments[0].Replies, 1)
	assert.Equal(t, 1, tree.Data.Comments[0].Replies[0].Likes)

	var count struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	rec = s.do(http.MethodGet, "/api/v1/notifications/unread-count", alice, "", &count)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, count.Data.Count)

	rec = s.do(http.MethodDelete, "/api/v1/posts/"+post.ID, bob, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/api/v1/posts/"+post.ID, alice, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", bob, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `comment_service_calls_total{op="create",result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "comment_forest_changes_total")
}
