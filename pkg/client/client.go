// Package client is a Go client for the comment endpoints of the REST API.
// Client implements commenttree.Service, so a commenttree.Store can run on
// top of a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the API as the user the token was issued to. The author
// and user arguments of commenttree.Service are ignored: the server takes
// both from the token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ commenttree.Service = (*Client)(nil)

// New creates a client for the API rooted at baseURL, e.g.
// "https://api.example.com/api/v1"
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type commentList struct {
	Comments []commenttree.RawComment `json:"comments"`
}

type likeResult struct {
	Likes int `json:"likes"`
}

type contentBody struct {
	Content string `json:"content"`
}

// FetchComments loads the flat comment list of a post
func (c *Client) FetchComments(ctx context.Context, postID string) ([]commenttree.RawComment, error) {
	var list commentList
	path := "/posts/" + url.PathEscape(postID) + "/comments/flat?refresh=true"
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, content string, _ commenttree.AuthorRef) (*commenttree.RawComment, error) {
	var raw commenttree.RawComment
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, http.MethodPost, path, contentBody{content}, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c *Client) ReplyToComment(ctx context.Context, parentID, content string, _ commenttree.AuthorRef) (*commenttree.RawComment, error) {
	var raw commenttree.RawComment
	path := "/comments/" + url.PathEscape(parentID) + "/replies"
	if err := c.do(ctx, http.MethodPost, path, contentBody{content}, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c *Client) UpdateComment(ctx context.Context, commentID, content string) (*commenttree.RawComment, error) {
	var raw commenttree.RawComment
	if err := c.do(ctx, http.MethodPut, "/comments/"+url.PathEscape(commentID), contentBody{content}, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID), nil, nil)
}

func (c *Client) LikeComment(ctx context.Context, commentID, _ string) (int, error) {
	var res likeResult
	if err := c.do(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/like", nil, &res); err != nil {
		return 0, err
	}
	return res.Likes, nil
}

func (c *Client) UnlikeComment(ctx context.Context, commentID, _ string) (int, error) {
	var res likeResult
	if err := c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID)+"/like", nil, &res); err != nil {
		return 0, err
	}
	return res.Likes, nil
}

// do sends body as JSON and decodes the "data" field of the answer into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}
