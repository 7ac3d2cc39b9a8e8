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

type CreatePostInput struct {
	Title           string `json:"title" jsonschema:"post title"`
	Content         string `json:"content,omitempty" jsonschema:"post body as HTML or Lexical JSON"`
	ContentFormat   string `json:"content_format,omitempty" jsonschema:"html or lexical (default lexical)"`
	Status          string `json:"status,omitempty" jsonschema:"draft, published or scheduled (default draft)"`
	Slug            string `json:"slug,omitempty" jsonschema:"post slug, generated by Ghost when empty"`
	Excerpt         string `json:"excerpt,omitempty" jsonschema:"custom excerpt"`
	Featured        bool   `json:"featured,omitempty" jsonschema:"whether the post is featured"`
	Tags            string `json:"tags,omitempty" jsonschema:"comma-separated tag names"`
	Authors         string `json:"authors,omitempty" jsonschema:"comma-separated author names"`
	PublishedAt     string `json:"published_at,omitempty" jsonschema:"publish date in ISO 8601, required for scheduled posts"`
	MetaTitle       string `json:"meta_title,omitempty" jsonschema:"SEO meta title (max 300 characters)"`
	MetaDescription string `json:"meta_description,omitempty" jsonschema:"SEO meta description (max 500 characters)"`
}

// UpdatePostInput uses pointers so that only supplied fields are sent.
type UpdatePostInput struct {
	PostID          string  `json:"post_id" jsonschema:"ID of the post to update"`
	Title           *string `json:"title,omitempty" jsonschema:"new title"`
	Content         *string `json:"content,omitempty" jsonschema:"new body as HTML or Lexical JSON"`
	ContentFormat   string  `json:"content_format,omitempty" jsonschema:"html or lexical (default lexical)"`
	Status          *string `json:"status,omitempty" jsonschema:"draft, published or scheduled"`
	Slug            *string `json:"slug,omitempty" jsonschema:"new slug"`
	Excerpt         *string `json:"excerpt,omitempty" jsonschema:"new custom excerpt"`
	Featured        *bool   `json:"featured,omitempty" jsonschema:"whether the post is featured"`
	PublishedAt     *string `json:"published_at,omitempty" jsonschema:"new publish date in ISO 8601"`
	MetaTitle       *string `json:"meta_title,omitempty" jsonschema:"new SEO meta title"`
	MetaDescription *string `json:"meta_description,omitempty" jsonschema:"new SEO meta description"`
	UpdatedAt       string  `json:"updated_at,omitempty" jsonschema:"updated_at of the version being edited; fetched from Ghost when empty"`
}

type DeletePostInput struct {
	PostID string `json:"post_id" jsonschema:"ID of the post to delete"`
}

type CreatePageInput struct {
	Title         string `json:"title" jsonschema:"page title"`
	Content       string `json:"content,omitempty" jsonschema:"page body as HTML or Lexical JSON"`
	ContentFormat string `json:"content_format,omitempty" jsonschema:"html or lexical (default lexical)"`
	Status        string `json:"status,omitempty" jsonschema:"draft, published or scheduled (default draft)"`
	Slug          string `json:"slug,omitempty" jsonschema:"page slug"`
}

type CreateTagInput struct {
	Name        string `json:"name" jsonschema:"tag name"`
	Description string `json:"description,omitempty" jsonschema:"tag description"`
}

// RegisterAdminTools adds the Admin API tools to s.
func (h *Handlers) RegisterAdminTools(s *mcp.Server) {
	admin := domain.SurfaceAdmin

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolGetAdminPosts,
		Description: "Get posts from the Ghost Admin API, including drafts and scheduled posts.",
	}, handle(h, constants.ToolGetAdminPosts, admin, h.list(h.client.GetAdminPosts)))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolCreatePost,
		Description: "Create a post. Content is Lexical JSON by default, or HTML with content_format=html.",
	}, handle(h, constants.ToolCreatePost, admin, h.createPost))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolUpdatePost,
		Description: "Update fields of an existing post. Only supplied fields change.",
	}, handle(h, constants.ToolUpdatePost, admin, h.updatePost))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolDeletePost,
		Description: "Delete a post by ID.",
	}, handle(h, constants.ToolDeletePost, admin, h.deletePost))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolCreatePage,
		Description: "Create a page. Content is Lexical JSON by default, or HTML with content_format=html.",
	}, handle(h, constants.ToolCreatePage, admin, h.createPage))

	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolCreateTag,
		Description: "Create a tag.",
	}, handle(h, constants.ToolCreateTag, admin, h.createTag))
}

func (h *Handlers) createPost(ctx context.Context, in CreatePostInput) (any, error) {
	post, err := h.newContentFields(in.Title, in.Status, in.Content, in.ContentFormat)
	if err != nil {
		return nil, err
	}

	publishedAt, err := h.validator.ValidatePublishedAt(in.PublishedAt)
	if err != nil {
		return nil, err
	}
	if err := h.validator.ValidateSchedule(post["status"].(string), publishedAt); err != nil {
		return nil, err
	}
	if publishedAt != "" {
		post["published_at"] = publishedAt
	}

	post["featured"] = in.Featured
	if err := h.setSlug(post, in.Slug); err != nil {
		return nil, err
	}
	if in.Excerpt != "" {
		post["custom_excerpt"] = in.Excerpt
	}
	if in.MetaTitle != "" {
		if err := h.setMeta(post, "meta_title", in.MetaTitle, h.validator.ValidateMetaTitle); err != nil {
			return nil, err
		}
	}
	if in.MetaDescription != "" {
		if err := h.setMeta(post, "meta_description", in.MetaDescription, h.validator.ValidateMetaDescription); err != nil {
			return nil, err
		}
	}
	if tags := namedRefs(in.Tags); len(tags) > 0 {
		post["tags"] = tags
	}
	if authors := namedRefs(in.Authors); len(authors) > 0 {
		post["authors"] = authors
	}

	return h.client.CreatePost(ctx, post)
}

func (h *Handlers) updatePost(ctx context.Context, in UpdatePostInput) (any, error) {
	id, err := h.validator.ValidateID(in.PostID, "post_id")
	if err != nil {
		return nil, err
	}

	post := client.Fields{}
	if in.Title != nil {
		title, err := h.validator.ValidateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		post["title"] = title
	}
	if in.Status != nil {
		status, err := h.validator.ValidateStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		post["status"] = status
	}
	if in.Content != nil {
		format, content, err := h.validator.ValidateContent(*in.Content, defaultFormat(in.ContentFormat))
		if err != nil {
			return nil, err
		}
		post[format] = content
	}
	if in.PublishedAt != nil {
		publishedAt, err := h.validator.ValidatePublishedAt(*in.PublishedAt)
		if err != nil {
			return nil, err
		}
		if publishedAt == "" {
			post["published_at"] = nil
		} else {
			post["published_at"] = publishedAt
		}
	}
	if in.Slug != nil {
		if err := h.setSlug(post, *in.Slug); err != nil {
			return nil, err
		}
	}
	if in.Excerpt != nil {
		post["custom_excerpt"] = *in.Excerpt
	}
	if in.Featured != nil {
		post["featured"] = *in.Featured
	}
	if in.MetaTitle != nil {
		if err := h.setMeta(post, "meta_title", *in.MetaTitle, h.validator.ValidateMetaTitle); err != nil {
			return nil, err
		}
	}
	if in.MetaDescription != nil {
		if err := h.setMeta(post, "meta_description", *in.MetaDescription, h.validator.ValidateMetaDescription); err != nil {
			return nil, err
		}
	}

	if len(post) == 0 {
		return nil, apperrors.NewValidationError(
			"At least one field must be provided for update",
			"Supply title, content, status, slug, excerpt, featured, published_at, meta_title or meta_description",
			"",
		)
	}

	updatedAt, err := h.currentUpdatedAt(ctx, id, in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post["updated_at"] = updatedAt

	return h.client.UpdatePost(ctx, id, post)
}

// currentUpdatedAt returns the collision-detection timestamp Ghost requires on updates.
func (h *Handlers) currentUpdatedAt(ctx context.Context, id, supplied string) (string, error) {
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		return supplied, nil
	}

	current, err := h.client.GetAdminPostByID(ctx, id, client.ReadOptions{Fields: "id,updated_at"})
	if err != nil {
		return "", err
	}
	if posts, ok := current["posts"].([]any); ok && len(posts) > 0 {
		if p, ok := posts[0].(map[string]any); ok {
			if updatedAt, ok := p["updated_at"].(string); ok && updatedAt != "" {
				return updatedAt, nil
			}
		}
	}
	return "", apperrors.NewGhostAPIError(
		"Post is missing updated_at",
		"",
		"Ghost returned no updated_at for post "+id,
		"",
	)
}

func (h *Handlers) deletePost(ctx context.Context, in DeletePostInput) (any, error) {
	id, err := h.validator.ValidateID(in.PostID, "post_id")
	if err != nil {
		return nil, err
	}

	result, err := h.client.DeletePost(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return map[string]any{"deleted": true, "post_id": id}, nil
	}
	return result, nil
}

func (h *Handlers) createPage(ctx context.Context, in CreatePageInput) (any, error) {
	page, err := h.newContentFields(in.Title, in.Status, in.Content, in.ContentFormat)
	if err != nil {
		return nil, err
	}
	if err := h.setSlug(page, in.Slug); err != nil {
		return nil, err
	}
	return h.client.CreatePage(ctx, page)
}

func (h *Handlers) createTag(ctx context.Context, in CreateTagInput) (any, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Tag name is required", "Provide a non-empty tag name", "")
	}
	return h.client.CreateTag(ctx, client.Fields{
		"name":        name,
		"description": in.Description,
	})
}

// newContentFields validates the fields shared by posts and pages.
func (h *Handlers) newContentFields(title, status, content, format string) (client.Fields, error) {
	title, err := h.validator.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(status) == "" {
		status = validation.StatusDraft
	}
	status, err = h.validator.ValidateStatus(status)
	if err != nil {
		return nil, err
	}

	fields := client.Fields{"title": title, "status": status}
	if content != "" {
		format, body, err := h.validator.ValidateContent(content, defaultFormat(format))
		if err != nil {
			return nil, err
		}
		fields[format] = body
	}
	return fields, nil
}

func (h *Handlers) setSlug(fields client.Fields, slug string) error {
	if slug == "" {
		return nil
	}
	slug, err := h.validator.ValidateSlug(slug)
	if err != nil {
		return err
	}
	fields["slug"] = slug
	return nil
}

func (h *Handlers) setMeta(fields client.Fields, key, value string, validate func(string) (string, error)) error {
	cleaned, err := validate(value)
	if err != nil {
		return err
	}
	fields[key] = cleaned
	return nil
}

func defaultFormat(format string) string {
	if strings.TrimSpace(format) == "" {
		return validation.FormatLexical
	}
	return format
}

// namedRefs turns "a, b,,c" into [{name: a}, {name: b}, {name: c}].
func namedRefs(csv string) []map[string]string {
	var refs []map[string]string
	for _, name := range strings.Split(csv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			refs = append(refs, map[string]string{"name": name})
		}
	}
	return refs
}
