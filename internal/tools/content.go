package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/internal/validation"
)

type ListInput struct {
	Limit   *int   `json:"limit,omitempty" jsonschema:"number of items to return (1-50)"`
	Page    *int   `json:"page,omitempty" jsonschema:"page number for pagination, starting at 1"`
	Filter  string `json:"filter,omitempty" jsonschema:"Ghost NQL filter, e.g. tag:news+featured:true"`
	Include string `json:"include,omitempty" jsonschema:"comma-separated relations to include, e.g. tags,authors"`
	Fields  string `json:"fields,omitempty" jsonschema:"comma-separated list of fields to return"`
	Order   string `json:"order,omitempty" jsonschema:"sort order, e.g. published_at desc"`
}

type PostIDInput struct {
	PostID  string `json:"post_id" jsonschema:"the post ID"`
	Include string `json:"include,omitempty" jsonschema:"comma-separated relations to include"`
	Fields  string `json:"fields,omitempty" jsonschema:"comma-separated list of fields to return"`
}

type PageIDInput struct {
	PageID  string `json:"page_id" jsonschema:"the page ID"`
	Include string `json:"include,omitempty" jsonschema:"comma-separated relations to include"`
	Fields  string `json:"fields,omitempty" jsonschema:"comma-separated list of fields to return"`
}

type TagIDInput struct {
	TagID   string `json:"tag_id" jsonschema:"the tag ID"`
	Include string `json:"include,omitempty" jsonschema:"comma-separated relations to include, e.g. count.posts"`
	Fields  string `json:"fields,omitempty" jsonschema:"comma-separated list of fields to return"`
}

type AuthorIDInput struct {
	AuthorID string `json:"author_id" jsonschema:"the author ID"`
	Include  string `json:"include,omitempty" jsonschema:"comma-separated relations to include, e.g. count.posts"`
	Fields   string `json:"fields,omitempty" jsonschema:"comma-separated list of fields to return"`
}

type SlugInput struct {
	Slug    string `json:"slug" jsonschema:"the resource slug"`
	Include string `json:"include,omitempty" jsonschema:"comma-separated relations to include"`
	Fields  string `json:"fields,omitempty" jsonschema:"comma-separated list of fields to return"`
}

type SearchInput struct {
	Query   string `json:"query" jsonschema:"text to match against post titles and content"`
	Limit   *int   `json:"limit,omitempty" jsonschema:"number of results to return (1-50)"`
	Include string `json:"include,omitempty" jsonschema:"comma-separated relations to include"`
}

type EmptyInput struct{}

// siteInfoFields are the settings keys surfaced by get_site_info.
var siteInfoFields = []string{
	"title", "description", "url", "logo", "icon", "cover_image",
	"accent_color", "timezone", "lang", "version",
}

type listFunc func(context.Context, client.ListOptions) (client.Result, error)
type readFunc func(context.Context, string, client.ReadOptions) (client.Result, error)

// RegisterContentTools adds the read-only Content API tools to s.
func (h *Handlers) RegisterContentTools(s *mcp.Server) {
	c := h.client
	content := domain.SurfaceContent

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetPosts,
		Description: "Get published posts from the Ghost Content API, with pagination, filtering and ordering.",
	}, handle(h, constants.ToolGetPosts, content, h.list(c.GetPosts)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetPostByID,
		Description: "Get a single published post by ID.",
	}, handle(h, constants.ToolGetPostByID, content, func(ctx context.Context, in PostIDInput) (any, error) {
		return h.readByID(ctx, c.GetPostByID, in.PostID, "post_id", in.Include, in.Fields)
	}))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetPostBySlug,
		Description: "Get a single published post by slug.",
	}, handle(h, constants.ToolGetPostBySlug, content, h.readBySlug(c.GetPostBySlug)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolSearchPosts,
		Description: "Search published posts by title and content.",
	}, handle(h, constants.ToolSearchPosts, content, h.searchPosts))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetPages,
		Description: "Get published pages from the Ghost Content API.",
	}, handle(h, constants.ToolGetPages, content, h.list(c.GetPages)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetPageByID,
		Description: "Get a single published page by ID.",
	}, handle(h, constants.ToolGetPageByID, content, func(ctx context.Context, in PageIDInput) (any, error) {
		return h.readByID(ctx, c.GetPageByID, in.PageID, "page_id", in.Include, in.Fields)
	}))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetPageBySlug,
		Description: "Get a single published page by slug.",
	}, handle(h, constants.ToolGetPageBySlug, content, h.readBySlug(c.GetPageBySlug)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetTags,
		Description: "Get tags from the Ghost Content API.",
	}, handle(h, constants.ToolGetTags, content, h.list(c.GetTags)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetTagByID,
		Description: "Get a single tag by ID.",
	}, handle(h, constants.ToolGetTagByID, content, func(ctx context.Context, in TagIDInput) (any, error) {
		return h.readByID(ctx, c.GetTagByID, in.TagID, "tag_id", in.Include, in.Fields)
	}))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetTagBySlug,
		Description: "Get a single tag by slug.",
	}, handle(h, constants.ToolGetTagBySlug, content, h.readBySlug(c.GetTagBySlug)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetAuthors,
		Description: "Get authors from the Ghost Content API.",
	}, handle(h, constants.ToolGetAuthors, content, h.list(c.GetAuthors)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetAuthorByID,
		Description: "Get a single author by ID.",
	}, handle(h, constants.ToolGetAuthorByID, content, func(ctx context.Context, in AuthorIDInput) (any, error) {
		return h.readByID(ctx, c.GetAuthorByID, in.AuthorID, "author_id", in.Include, in.Fields)
	}))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetAuthorBySlug,
		Description: "Get a single author by slug.",
	}, handle(h, constants.ToolGetAuthorBySlug, content, h.readBySlug(c.GetAuthorBySlug)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetSettings,
		Description: "Get public site settings from the Ghost Content API.",
	}, handle(h, constants.ToolGetSettings, content, func(ctx context.Context, _ EmptyInput) (any, error) {
		return c.GetSettings(ctx)
	}))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetSiteInfo,
		Description: "Get basic site information: title, description, URL, logo and locale.",
	}, handle(h, constants.ToolGetSiteInfo, content, h.siteInfo))
}

func (h *Handlers) list(fn listFunc) toolFunc[ListInput] {
	return func(ctx context.Context, in ListInput) (any, error) {
		opts, err := h.listOptions(in)
		if err != nil {
			return nil, err
		}
		return fn(ctx, opts)
	}
}

func (h *Handlers) listOptions(in ListInput) (client.ListOptions, error) {
	if err := h.validator.ValidatePagination(in.Limit, in.Page); err != nil {
		return client.ListOptions{}, err
	}
	if err := h.validator.ValidateFilter(in.Filter); err != nil {
		return client.ListOptions{}, err
	}
	return client.ListOptions{
		Limit:   deref(in.Limit),
		Page:    deref(in.Page),
		Filter:  in.Filter,
		Include: in.Include,
		Fields:  in.Fields,
		Order:   in.Order,
	}, nil
}

func (h *Handlers) readByID(ctx context.Context, fn readFunc, id, name, include, fields string) (any, error) {
	id, err := h.validator.ValidateID(id, name)
	if err != nil {
		return nil, err
	}
	return fn(ctx, id, client.ReadOptions{Include: include, Fields: fields})
}

func (h *Handlers) readBySlug(fn readFunc) toolFunc[SlugInput] {
	return func(ctx context.Context, in SlugInput) (any, error) {
		slug, err := h.validator.ValidateSlug(in.Slug)
		if err != nil {
			return nil, err
		}
		return fn(ctx, slug, client.ReadOptions{Include: in.Include, Fields: in.Fields})
	}
}

func (h *Handlers) searchPosts(ctx context.Context, in SearchInput) (any, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, apperrors.NewValidationError("Query parameter is required", "Provide text to search for", "")
	}
	if err := h.validator.ValidatePagination(in.Limit, nil); err != nil {
		return nil, err
	}
	return h.client.GetPosts(ctx, client.ListOptions{
		Limit:   deref(in.Limit),
		Filter:  validation.SearchFilter(query),
		Include: in.Include,
	})
}

func (h *Handlers) siteInfo(ctx context.Context, _ EmptyInput) (any, error) {
	result, err := h.client.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	settings, ok := result["settings"].(map[string]any)
	if !ok {
		return result, nil
	}

	info := make(map[string]any, len(siteInfoFields))
	for _, k := range siteInfoFields {
		info[k] = settings[k]
	}
	return map[string]any{"site_info": info}, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
