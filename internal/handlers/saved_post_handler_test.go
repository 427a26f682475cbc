package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndListPosts(t *testing.T) {
	env := newPostEnv(t)
	first := env.createPost(t, "First")
	second := env.createPost(t, "Second")

	for _, id := range []string{first, second} {
		c, _ := request(env.e, http.MethodPost, "/", "", env.reader.ID, "id", id)
		require.NoError(t, env.savedh.SavePost(c))
	}
	c, _ := request(env.e, http.MethodPost, "/", "", env.reader.ID, "id", first)
	requireHTTPError(t, env.savedh.SavePost(c), http.StatusConflict)

	c, _ = request(env.e, http.MethodPost, "/", "", env.reader.ID, "id", "missing")
	requireHTTPError(t, env.savedh.SavePost(c), http.StatusNotFound)

	var resp struct {
		Data []EnrichedPost         `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	c, rec := request(env.e, http.MethodGet, "/", "", env.reader.ID)
	require.NoError(t, env.savedh.GetSavedPosts(c))
	decode(t, rec, &resp)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, second, resp.Data[0].ID.Hex())
	assert.EqualValues(t, 2, resp.Meta["totalItems"])

	// a bookmark whose post is gone is skipped
	require.NoError(t, env.posts.DeletePost(context.Background(), second))
	c, rec = request(env.e, http.MethodGet, "/", "", env.reader.ID)
	require.NoError(t, env.savedh.GetSavedPosts(c))
	decode(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, first, resp.Data[0].ID.Hex())
}

func TestUnsavePost(t *testing.T) {
	env := newPostEnv(t)
	id := env.createPost(t, "Later")

	c, _ := request(env.e, http.MethodDelete, "/", "", env.reader.ID, "id", id)
	requireHTTPError(t, env.savedh.UnsavePost(c), http.StatusNotFound)

	c, _ = request(env.e, http.MethodPost, "/", "", env.reader.ID, "id", id)
	require.NoError(t, env.savedh.SavePost(c))
	c, _ = request(env.e, http.MethodDelete, "/", "", env.reader.ID, "id", id)
	require.NoError(t, env.savedh.UnsavePost(c))

	saved, err := env.saved.IsPostSaved(env.reader.ID, id)
	require.NoError(t, err)
	assert.False(t, saved)
}
