package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeStatusResponse struct {
	Data models.PostLikeStatus `json:"data"`
}

func TestLikePost(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Likeable")

	c, rec := request(env.e, http.MethodPost, "/", "", env.reader.ID, "post_id", id)
	require.NoError(t, env.likeh.LikePost(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp likeStatusResponse
	decode(t, rec, &resp)
	assert.Equal(t, int64(1), resp.Data.LikesCount)
	assert.True(t, resp.Data.Liked)

	c, _ = request(env.e, http.MethodPost, "/", "", env.reader.ID, "post_id", id)
	requireHTTPError(t, env.likeh.LikePost(c), http.StatusConflict)

	post, err := env.posts.GetPostByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, post.LikesCount)

	require.Len(t, env.notifs.Notifications, 1)
	n := env.notifs.Notifications[0]
	assert.Equal(t, models.NotificationPostLike, n.Type)
	assert.Equal(t, env.author.ID, n.RecipientID)
	assert.Equal(t, env.reader.ID, n.ActorID)
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Mine")

	c, _ := request(env.e, http.MethodPost, "/", "", env.author.ID, "post_id", id)
	require.NoError(t, env.likeh.LikePost(c))
	assert.Empty(t, env.notifs.Notifications)
}

func TestUnlikePost(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Fickle")

	c, _ := request(env.e, http.MethodDelete, "/", "", env.reader.ID, "post_id", id)
	requireHTTPError(t, env.likeh.UnlikePost(c), http.StatusNotFound)

	c, _ = request(env.e, http.MethodPost, "/", "", env.reader.ID, "post_id", id)
	require.NoError(t, env.likeh.LikePost(c))

	c, rec := request(env.e, http.MethodDelete, "/", "", env.reader.ID, "post_id", id)
	require.NoError(t, env.likeh.UnlikePost(c))
	var resp likeStatusResponse
	decode(t, rec, &resp)
	assert.Zero(t, resp.Data.LikesCount)
	assert.False(t, resp.Data.Liked)

	post, err := env.posts.GetPostByID(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, post.LikesCount)
}

func TestGetPostLikes(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Popular")
	for _, u := range []uint{env.author.ID, env.reader.ID} {
		c, _ := request(env.e, http.MethodPost, "/", "", u, "post_id", id)
		require.NoError(t, env.likeh.LikePost(c))
	}

	c, rec := request(env.e, http.MethodGet, "/", "", env.reader.ID, "post_id", id)
	require.NoError(t, env.likeh.GetPostLikes(c))
	var resp likeStatusResponse
	decode(t, rec, &resp)
	assert.Equal(t, int64(2), resp.Data.LikesCount)
	assert.True(t, resp.Data.Liked)
	require.Len(t, resp.Data.Likers, 2)
	assert.Equal(t, env.reader.ID, resp.Data.Likers[0].ID)

	c, _ = request(env.e, http.MethodGet, "/", "", env.reader.ID, "post_id", "missing")
	requireHTTPError(t, env.likeh.GetPostLikes(c), http.StatusNotFound)
}
