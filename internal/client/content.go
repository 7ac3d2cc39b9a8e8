package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
)

// ListOptions maps to Ghost's browse parameters. Zero values are omitted.
type ListOptions struct {
	Limit   int
	Page    int
	Filter  string
	Include string
	Fields  string
	Order   string
}

func (o ListOptions) Values() url.Values {
	v := url.Values{}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	setIf(v, "filter", o.Filter)
	setIf(v, "include", o.Include)
	setIf(v, "fields", o.Fields)
	setIf(v, "order", o.Order)
	return v
}

// ReadOptions maps to Ghost's read parameters.
type ReadOptions struct {
	Include string
	Fields  string
}

func (o ReadOptions) Values() url.Values {
	v := url.Values{}
	setIf(v, "include", o.Include)
	setIf(v, "fields", o.Fields)
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func (c *Client) browse(ctx context.Context, surface domain.Surface, resource string, opts ListOptions) (Result, error) {
	return c.MakeRequest(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: resource + "/",
		Surface:  surface,
		Params:   opts.Values(),
	})
}

func (c *Client) readByID(ctx context.Context, surface domain.Surface, resource, id string, opts ReadOptions) (Result, error) {
	return c.MakeRequest(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: resource + "/" + url.PathEscape(id) + "/",
		Surface:  surface,
		Params:   opts.Values(),
	})
}

func (c *Client) readBySlug(ctx context.Context, surface domain.Surface, resource, slug string, opts ReadOptions) (Result, error) {
	return c.MakeRequest(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: resource + "/slug/" + url.PathEscape(slug) + "/",
		Surface:  surface,
		Params:   opts.Values(),
	})
}

func (c *Client) GetPosts(ctx context.Context, opts ListOptions) (Result, error) {
	return c.browse(ctx, domain.SurfaceContent, "posts", opts)
}

func (c *Client) GetPostByID(ctx context.Context, id string, opts ReadOptions) (Result, error) {
	return c.readByID(ctx, domain.SurfaceContent, "posts", id, opts)
}

func (c *Client) GetPostBySlug(ctx context.Context, slug string, opts ReadOptions) (Result, error) {
	return c.readBySlug(ctx, domain.SurfaceContent, "posts", slug, opts)
}

func (c *Client) GetPages(ctx context.Context, opts ListOptions) (Result, error) {
	return c.browse(ctx, domain.SurfaceContent, "pages", opts)
}

func (c *Client) GetPageByID(ctx context.Context, id string, opts ReadOptions) (Result, error) {
	return c.readByID(ctx, domain.SurfaceContent, "pages", id, opts)
}

func (c *Client) GetPageBySlug(ctx context.Context, slug string, opts ReadOptions) (Result, error) {
	return c.readBySlug(ctx, domain.SurfaceContent, "pages", slug, opts)
}

func (c *Client) GetTags(ctx context.Context, opts ListOptions) (Result, error) {
	return c.browse(ctx, domain.SurfaceContent, "tags", opts)
}

func (c *Client) GetTagByID(ctx context.Context, id string, opts ReadOptions) (Result, error) {
	return c.readByID(ctx, domain.SurfaceContent, "tags", id, opts)
}

func (c *Client) GetTagBySlug(ctx context.Context, slug string, opts ReadOptions) (Result, error) {
	return c.readBySlug(ctx, domain.SurfaceContent, "tags", slug, opts)
}

func (c *Client) GetAuthors(ctx context.Context, opts ListOptions) (Result, error) {
	return c.browse(ctx, domain.SurfaceContent, "authors", opts)
}

func (c *Client) GetAuthorByID(ctx context.Context, id string, opts ReadOptions) (Result, error) {
	return c.readByID(ctx, domain.SurfaceContent, "authors", id, opts)
}

func (c *Client) GetAuthorBySlug(ctx context.Context, slug string, opts ReadOptions) (Result, error) {
	return c.readBySlug(ctx, domain.SurfaceContent, "authors", slug, opts)
}

func (c *Client) GetSettings(ctx context.Context) (Result, error) {
	return c.MakeRequest(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "settings/",
		Surface:  domain.SurfaceContent,
	})
}
