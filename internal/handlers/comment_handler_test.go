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

type commentEnv struct {
	e             *echo.Echo
	h             *CommentHandler
	store         *commenttree.Store
	users         *mocks.MockUserRepository
	posts         *mocks.MockPostRepository
	comments      *mocks.MockCommentRepository
	notifications *mocks.MockNotificationRepository
	author        *models.User
	reader        *models.User
	postID        string
}

func newCommentEnv(t *testing.T) *commentEnv {
	t.Helper()
	env := &commentEnv{
		e:             newEcho(),
		users:         mocks.NewMockUserRepository(),
		posts:         mocks.NewMockPostRepository(),
		comments:      mocks.NewMockCommentRepository(),
		notifications: mocks.NewMockNotificationRepository(),
	}
	svc := services.NewCommentService(env.comments, env.posts, env.notifications, zerolog.Nop())
	env.store = commenttree.NewStore(svc, commenttree.Options{Logger: zerolog.Nop()})
	env.h = NewCommentHandler(env.store, env.comments, env.posts, env.users)
	env.author = seedUser(t, env.users, "Ada", "ada@example.com")
	env.reader = seedUser(t, env.users, "Bob", "bob@example.com")

	post := &models.Post{UserID: models.UserIDString(env.author.ID), Title: "Hello", Content: "World"}
	require.NoError(t, env.posts.CreatePost(context.Background(), post))
	env.postID = post.ID.Hex()
	return env
}

type commentResponse struct {
	Success bool                `json:"success"`
	Data    commenttree.Comment `json:"data"`
}

type treeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Comments []*commenttree.Comment `json:"comments"`
		Total    int                    `json:"total"`
	} `json:"data"`
}

func (env *commentEnv) comment(t *testing.T, userID uint, content string) commenttree.Comment {
	t.Helper()
	c, rec := request(env.e, http.MethodPost, "/", `{"content":"`+content+`"}`, userID, "post_id", env.postID)
	require.NoError(t, env.h.CreateComment(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp commentResponse
	decode(t, rec, &resp)
	return resp.Data
}

func (env *commentEnv) reply(t *testing.T, userID uint, parentID, content string) commenttree.Comment {
	t.Helper()
	c, rec := request(env.e, http.MethodPost, "/", `{"content":"`+content+`"}`, userID, "id", parentID)
	require.NoError(t, env.h.ReplyToComment(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp commentResponse
	decode(t, rec, &resp)
	return resp.Data
}

func (env *commentEnv) tree(t *testing.T) treeResponse {
	t.Helper()
	c, rec := request(env.e, http.MethodGet, "/", "", 0, "post_id", env.postID)
	require.NoError(t, env.h.GetCommentTree(c))
	var resp treeResponse
	decode(t, rec, &resp)
	return resp
}

func TestCreateCommentAndReadTree(t *testing.T) {
	env := newCommentEnv(t)

	root := env.comment(t, env.reader.ID, "first!")
	assert.Equal(t, env.postID, root.PostID)
	assert.Equal(t, "Bob", root.Author.FirstName)
	assert.Empty(t, root.Replies)

	reply := env.reply(t, env.author.ID, root.ID, "thanks")
	assert.Equal(t, root.ID, reply.ParentID)
	assert.Equal(t, env.postID, reply.PostID)
	nested := env.reply(t, env.reader.ID, reply.ID, "welcome")

	resp := env.tree(t)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Data.Total)
	require.Len(t, resp.Data.Comments, 1)
	require.Len(t, resp.Data.Comments[0].Replies, 1)
	require.Len(t, resp.Data.Comments[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, resp.Data.Comments[0].Replies[0].Replies[0].ID)

	post, err := env.posts.GetPostByID(context.Background(), env.postID)
	require.NoError(t, err)
	assert.Equal(t, 3, post.CommentsCount)

	// comment on the author's post and reply to the reader's comment
	var kinds []string
	for _, n := range env.notifications.Notifications {
		kinds = append(kinds, n.Type)
	}
	assert.ElementsMatch(t, []string{models.NotificationComment, models.NotificationReply, models.NotificationReply}, kinds)
}

func TestGetFlatComments(t *testing.T) {
	env := newCommentEnv(t)
	a := env.comment(t, env.reader.ID, "a")
	a1 := env.reply(t, env.author.ID, a.ID, "a1")
	b := env.comment(t, env.author.ID, "b")

	c, rec := request(env.e, http.MethodGet, "/", "", 0, "post_id", env.postID)
	require.NoError(t, env.h.GetFlatComments(c))

	var resp struct {
		Data struct {
			Comments []FlatComment `json:"comments"`
			Total    int           `json:"total"`
		} `json:"data"`
	}
	decode(t, rec, &resp)
	require.Equal(t, 3, resp.Data.Total)
	got := resp.Data.Comments
	// newest root first, replies right below their parent
	assert.Equal(t, []string{b.ID, a.ID, a1.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, []int{0, 0, 1}, []int{got[0].Depth, got[1].Depth, got[2].Depth})
	assert.Equal(t, 1, got[1].ReplyCount)
	assert.Equal(t, a.ID, got[2].ParentID)
}

func TestCommentTreeUnknownPost(t *testing.T) {
	env := newCommentEnv(t)
	c, _ := request(env.e, http.MethodGet, "/", "", 0, "post_id", "000000000000000000000000")
	requireHTTPError(t, env.h.GetCommentTree(c), http.StatusNotFound)

	c, _ = request(env.e, http.MethodPost, "/", `{"content":"hi"}`, env.reader.ID, "post_id", "not-an-id")
	requireHTTPError(t, env.h.CreateComment(c), http.StatusNotFound)
}

func TestCreateCommentValidation(t *testing.T) {
	env := newCommentEnv(t)

	c, _ := request(env.e, http.MethodPost, "/", `{"content":""}`, env.reader.ID, "post_id", env.postID)
	requireHTTPError(t, env.h.CreateComment(c), http.StatusBadRequest)

	c, _ = request(env.e, http.MethodPost, "/", `{"content":"hi"}`, 0, "post_id", env.postID)
	requireHTTPError(t, env.h.CreateComment(c), http.StatusUnauthorized)

	c, _ = request(env.e, http.MethodPost, "/", `{"content":"hi"}`, 99, "post_id", env.postID)
	requireHTTPError(t, env.h.CreateComment(c), http.StatusUnauthorized)
}

func TestReplyToMissingComment(t *testing.T) {
	env := newCommentEnv(t)
	c, _ := request(env.e, http.MethodPost, "/", `{"content":"hi"}`, env.reader.ID, "id", "000000000000000000000000")
	he := requireHTTPError(t, env.h.ReplyToComment(c), http.StatusNotFound)
	assert.Equal(t, "Comment not found", he.Message)
}

func TestUpdateCommentOwnership(t *testing.T) {
	env := newCommentEnv(t)
	root := env.comment(t, env.reader.ID, "tpyo")

	c, _ := request(env.e, http.MethodPut, "/", `{"content":"hijacked"}`, env.author.ID, "id", root.ID)
	requireHTTPError(t, env.h.UpdateComment(c), http.StatusForbidden)

	c, rec := request(env.e, http.MethodPut, "/", `{"content":"typo"}`, env.reader.ID, "id", root.ID)
	require.NoError(t, env.h.UpdateComment(c))
	var resp commentResponse
	decode(t, rec, &resp)
	assert.Equal(t, "typo", resp.Data.Content)

	cached, ok := env.store.Comment(env.postID, root.ID)
	require.True(t, ok)
	assert.Equal(t, "typo", cached.Content)
}

func TestDeleteCommentRemovesSubtree(t *testing.T) {
	env := newCommentEnv(t)
	root := env.comment(t, env.reader.ID, "root")
	child := env.reply(t, env.author.ID, root.ID, "child")
	env.reply(t, env.reader.ID, child.ID, "grandchild")
	other := env.comment(t, env.author.ID, "other")

	c, _ := request(env.e, http.MethodDelete, "/", "", env.author.ID, "id", root.ID)
	requireHTTPError(t, env.h.DeleteComment(c), http.StatusForbidden)

	c, rec := request(env.e, http.MethodDelete, "/", "", env.reader.ID, "id", root.ID)
	require.NoError(t, env.h.DeleteComment(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	resp := env.tree(t)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Comments, 1)
	assert.Equal(t, other.ID, resp.Data.Comments[0].ID)

	post, err := env.posts.GetPostByID(context.Background(), env.postID)
	require.NoError(t, err)
	assert.Equal(t, 1, post.CommentsCount)

	c, _ = request(env.e, http.MethodDelete, "/", "", env.reader.ID, "id", child.ID)
	requireHTTPError(t, env.h.DeleteComment(c), http.StatusNotFound)
}

func TestLikeAndUnlikeComment(t *testing.T) {
	env := newCommentEnv(t)
	root := env.comment(t, env.author.ID, "like me")

	type likeResponse struct {
		Data struct {
			ID    string `json:"id"`
			Likes int    `json:"likes"`
			Liked bool   `json:"liked"`
		} `json:"data"`
	}

	for i := 0; i < 2; i++ {
		c, rec := request(env.e, http.MethodPost, "/", "", env.reader.ID, "id", root.ID)
		require.NoError(t, env.h.LikeComment(c))
		var resp likeResponse
		decode(t, rec, &resp)
		assert.Equal(t, 1, resp.Data.Likes)
		assert.True(t, resp.Data.Liked)
	}

	cached, ok := env.store.Comment(env.postID, root.ID)
	require.True(t, ok)
	assert.True(t, cached.HasLiked(models.UserIDString(env.reader.ID)))

	c, rec := request(env.e, http.MethodDelete, "/", "", env.reader.ID, "id", root.ID)
	require.NoError(t, env.h.UnlikeComment(c))
	var resp likeResponse
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Data.Likes)
	assert.False(t, resp.Data.Liked)

	cached, _ = env.store.Comment(env.postID, root.ID)
	assert.Equal(t, 0, cached.Likes)
	assert.Empty(t, cached.LikedBy)

	likes := 0
	for _, n := range env.notifications.Notifications {
		if n.Type == models.NotificationLike {
			likes++
		}
	}
	assert.Equal(t, 1, likes)

	c, _ = request(env.e, http.MethodPost, "/", "", 0, "id", root.ID)
	requireHTTPError(t, env.h.LikeComment(c), http.StatusUnauthorized)
}

func TestMutationLoadsColdForest(t *testing.T) {
	env := newCommentEnv(t)
	root := env.comment(t, env.reader.ID, "warm")

	// a fresh store has nothing cached for the post
	svc := services.NewCommentService(env.comments, env.posts, env.notifications, zerolog.Nop())
	env.store = commenttree.NewStore(svc, commenttree.Options{Logger: zerolog.Nop()})
	env.h = NewCommentHandler(env.store, env.comments, env.posts, env.users)
	require.False(t, env.store.IsLoaded(env.postID))

	env.reply(t, env.author.ID, root.ID, "cold reply")
	require.True(t, env.store.IsLoaded(env.postID))
	forest := env.store.Forest(env.postID)
	require.Len(t, forest, 1)
	assert.Len(t, forest[0].Replies, 1)
}

func TestRefreshReloadsFromDatabase(t *testing.T) {
	env := newCommentEnv(t)
	env.comment(t, env.reader.ID, "cached")
	calls := env.comments.GetByPostIDCalls

	env.tree(t)
	assert.Equal(t, calls, env.comments.GetByPostIDCalls)

	c, _ := request(env.e, http.MethodGet, "/?refresh=true", "", 0, "post_id", env.postID)
	require.NoError(t, env.h.GetCommentTree(c))
	assert.Equal(t, calls+1, env.comments.GetByPostIDCalls)
}
