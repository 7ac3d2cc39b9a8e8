package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
)

// Fields is one resource object in an Admin API write payload.
type Fields map[string]any

func (c *Client) GetAdminPosts(ctx context.Context, opts ListOptions) (Result, error) {
	return c.browse(ctx, domain.SurfaceAdmin, "posts", opts)
}

// GetAdminPostByID reads any post regardless of status. Updates need its updated_at.
func (c *Client) GetAdminPostByID(ctx context.Context, id string, opts ReadOptions) (Result, error) {
	return c.readByID(ctx, domain.SurfaceAdmin, "posts", id, opts)
}

// CreatePost sends {"posts": [post]}. Ghost only converts html content when source=html is set.
func (c *Client) CreatePost(ctx context.Context, post Fields) (Result, error) {
	return c.write(ctx, http.MethodPost, "posts/", "posts", post)
}

func (c *Client) UpdatePost(ctx context.Context, id string, post Fields) (Result, error) {
	return c.write(ctx, http.MethodPut, "posts/"+url.PathEscape(id)+"/", "posts", post)
}

// DeletePost returns an empty result on Ghost's 204 response.
func (c *Client) DeletePost(ctx context.Context, id string) (Result, error) {
	return c.MakeRequest(ctx, Request{
		Method:   http.MethodDelete,
		Endpoint: "posts/" + url.PathEscape(id) + "/",
		Surface:  domain.SurfaceAdmin,
	})
}

func (c *Client) CreatePage(ctx context.Context, page Fields) (Result, error) {
	return c.write(ctx, http.MethodPost, "pages/", "pages", page)
}

func (c *Client) CreateTag(ctx context.Context, tag Fields) (Result, error) {
	return c.write(ctx, http.MethodPost, "tags/", "tags", tag)
}

// GetSite reads the Admin API site endpoint, which also proves the admin key works.
func (c *Client) GetSite(ctx context.Context) (Result, error) {
	return c.MakeRequest(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "site/",
		Surface:  domain.SurfaceAdmin,
	})
}

func (c *Client) write(ctx context.Context, method, endpoint, resource string, fields Fields) (Result, error) {
	var params url.Values
	if _, ok := fields["html"]; ok {
		params = url.Values{"source": {"html"}}
	}
	return c.MakeRequest(ctx, Request{
		Method:   method,
		Endpoint: endpoint,
		Surface:  domain.SurfaceAdmin,
		Params:   params,
		Body:     map[string][]Fields{resource: {fields}},
	})
}
