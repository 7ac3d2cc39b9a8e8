package constants

const (
	ServiceName    = "ghost-mcp"
	ServiceVersion = "0.1.0"
	UserAgent      = "Ghost-MCP/" + ServiceVersion
)

const (
	ToolGetPosts        = "get_posts"
	ToolGetPostByID     = "get_post_by_id"
	ToolGetPostBySlug   = "get_post_by_slug"
	ToolSearchPosts     = "search_posts"
	ToolGetPages        = "get_pages"
	ToolGetPageByID     = "get_page_by_id"
	ToolGetPageBySlug   = "get_page_by_slug"
	ToolGetTags         = "get_tags"
	ToolGetTagByID      = "get_tag_by_id"
	ToolGetTagBySlug    = "get_tag_by_slug"
	ToolGetAuthors      = "get_authors"
	ToolGetAuthorByID   = "get_author_by_id"
	ToolGetAuthorBySlug = "get_author_by_slug"
	ToolGetSettings     = "get_settings"
	ToolGetSiteInfo     = "get_site_info"

	ToolGetAdminPosts = "get_admin_posts"
	ToolCreatePost    = "create_post"
	ToolUpdatePost    = "update_post"
	ToolDeletePost    = "delete_post"
	ToolCreatePage    = "create_page"
	ToolCreateTag     = "create_tag"

	ToolCheckConnection = "check_ghost_connection"
)

// ContentTools need a Content API key.
var ContentTools = []string{
	ToolGetPosts, ToolGetPostByID, ToolGetPostBySlug, ToolSearchPosts,
	ToolGetPages, ToolGetPageByID, ToolGetPageBySlug,
	ToolGetTags, ToolGetTagByID, ToolGetTagBySlug,
	ToolGetAuthors, ToolGetAuthorByID, ToolGetAuthorBySlug,
	ToolGetSettings, ToolGetSiteInfo,
}

// AdminTools need an Admin API key and a mode that allows writes.
var AdminTools = []string{
	ToolGetAdminPosts, ToolCreatePost, ToolUpdatePost, ToolDeletePost,
	ToolCreatePage, ToolCreateTag,
}
