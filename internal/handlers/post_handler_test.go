package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/anonto42/inkwell/backend/internal/mocks"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postEnv struct {
	e        *echo.Echo
	users    *mocks.MockUserRepository
	posts    *mocks.MockPostRepository
	comments *mocks.MockCommentRepository
	likes    *mocks.MockLikeRepository
	saved    *mocks.MockSavedPostRepository
	notifs   *mocks.MockNotificationRepository
	store    *commenttree.Store
	posth    *PostHandler
	likeh    *LikeHandler
	savedh   *SavedPostHandler
	author   *models.User
	reader   *models.User
}

func newPostEnv(t *testing.T) *postEnv {
	t.Helper()
	env := &postEnv{
		e:        newEcho(),
		users:    mocks.NewMockUserRepository(),
		posts:    mocks.NewMockPostRepository(),
		comments: mocks.NewMockCommentRepository(),
		likes:    mocks.NewMockLikeRepository(),
		saved:    mocks.NewMockSavedPostRepository(),
		notifs:   mocks.NewMockNotificationRepository(),
	}
	svc := services.NewCommentService(env.comments, env.posts, env.notifs, zerolog.Nop())
	env.store = commenttree.NewStore(svc, commenttree.Options{Logger: zerolog.Nop()})
	env.posth = NewPostHandler(env.posts, env.users, env.likes, env.saved, svc, env.store, zerolog.Nop())
	env.likeh = NewLikeHandler(env.likes, env.posts, env.users, env.notifs, zerolog.Nop())
	env.savedh = NewSavedPostHandler(env.saved, env.posts, env.users)
	env.author = seedUser(t, env.users, "Ada", "ada@example.com")
	env.reader = seedUser(t, env.users, "Bob", "bob@example.com")
	return env
}

func (env *postEnv) createPost(t *testing.T, title string) string {
	t.Helper()
	c, rec := request(env.e, http.MethodPost, "/", `{"title":"`+title+`","content":"body"}`, env.author.ID)
	require.NoError(t, env.posth.CreatePost(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var post EnrichedPost
	decode(t, rec, &post)
	assert.Equal(t, "Ada", post.Author.FirstName)
	return post.ID.Hex()
}

func TestCreateAndGetPost(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "First")

	c, rec := request(env.e, http.MethodGet, "/", "", env.reader.ID, "id", id)
	require.NoError(t, env.posth.GetPost(c))
	var post EnrichedPost
	decode(t, rec, &post)
	assert.Equal(t, "First", post.Title)
	assert.Equal(t, env.author.ID, post.Author.ID)

	c, _ = request(env.e, http.MethodGet, "/", "", env.reader.ID, "id", "missing")
	requireHTTPError(t, env.posth.GetPost(c), http.StatusNotFound)

	c, _ = request(env.e, http.MethodPost, "/", `{"title":"","content":"body"}`, env.author.ID)
	requireHTTPError(t, env.posth.CreatePost(c), http.StatusBadRequest)
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Draft")

	c, _ := request(env.e, http.MethodPut, "/", `{"title":"Mine now"}`, env.reader.ID, "id", id)
	requireHTTPError(t, env.posth.UpdatePost(c), http.StatusForbidden)

	c, _ = request(env.e, http.MethodPut, "/", `{"title":"Final"}`, env.author.ID, "id", id)
	require.NoError(t, env.posth.UpdatePost(c))
	post, err := env.posts.GetPostByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Final", post.Title)
	assert.Equal(t, "body", post.Content)
}

func TestDeletePostCleansUp(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Doomed")
	ctx := context.Background()

	_, err := env.store.AddComment(ctx, id, "hello", env.reader.ToAuthor())
	require.NoError(t, err)
	require.NoError(t, env.likes.CreateLike(&models.Like{PostID: id, UserID: env.reader.ID}))
	require.NoError(t, env.saved.SavePost(&models.SavedPost{PostID: id, UserID: env.reader.ID}))

	c, _ := request(env.e, http.MethodDelete, "/", "", env.reader.ID, "id", id)
	requireHTTPError(t, env.posth.DeletePost(c), http.StatusForbidden)

	c, rec := request(env.e, http.MethodDelete, "/", "", env.author.ID, "id", id)
	require.NoError(t, env.posth.DeletePost(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	left, err := env.comments.GetCommentsByPostID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Empty(t, env.store.Forest(id))
	n, _ := env.likes.GetLikesCountByPostID(id)
	assert.Zero(t, n)
	saved, _ := env.saved.IsPostSaved(env.reader.ID, id)
	assert.False(t, saved)
}

func TestGetPostsByAuthor(t *testing.T) {
	env := newPostEnv(t)
	env.createPost(t, "One")
	env.createPost(t, "Two")
	other := &models.Post{UserID: models.UserIDString(env.reader.ID), Title: "Bob's", Content: "x"}
	require.NoError(t, env.posts.CreatePost(context.Background(), other))

	c, rec := request(env.e, http.MethodGet, "/?user_id="+models.UserIDString(env.author.ID), "", env.reader.ID)
	require.NoError(t, env.posth.GetPosts(c))
	var posts []EnrichedPost
	decode(t, rec, &posts)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, env.author.ID, p.Author.ID)
	}

	c, rec = request(env.e, http.MethodGet, "/", "", env.reader.ID)
	require.NoError(t, env.posth.GetPosts(c))
	decode(t, rec, &posts)
	assert.Len(t, posts, 3)
}
