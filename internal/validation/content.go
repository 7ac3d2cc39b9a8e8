package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	MaxTitleLen           = 255
	MaxMetaTitleLen       = 300
	MaxMetaDescriptionLen = 500

	maxReportedHTMLErrors = 3
)

const (
	FormatHTML    = "html"
	FormatLexical = "lexical"

	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

var (
	validStatuses = []string{StatusDraft, StatusPublished, StatusScheduled}

	lexicalRootProps = []string{"children", "direction", "format", "indent", "type", "version"}

	lexicalNodeTypes = map[string]bool{
		"paragraph": true, "heading": true, "text": true, "link": true, "list": true,
		"listitem": true, "code": true, "quote": true, "linebreak": true,
	}

	// node type -> property it must carry
	lexicalNodeRequires = map[string]struct{ prop, label, hint string }{
		"heading": {"tag", "Heading", "Heading nodes must specify tag (h1, h2, h3, h4, h5, h6)"},
		"link":    {"url", "Link", "Link nodes must have a URL property"},
		"list":    {"listType", "List", "List nodes must specify listType ('bullet' or 'number')"},
	}

	allowedHTMLTags = map[string]bool{
		"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"div": true, "span": true, "a": true, "strong": true, "em": true, "b": true, "i": true,
		"u": true, "code": true, "pre": true, "ul": true, "ol": true, "li": true,
		"blockquote": true, "br": true, "hr": true, "img": true,
		"table": true, "tr": true, "td": true, "th": true, "thead": true, "tbody": true,
	}

	voidHTMLTags = map[string]bool{"br": true, "hr": true, "img": true}
)

func (v *Validator) ValidateTitle(title string) (string, error) {
	if title == "" {
		return "", invalid("Title is required", "Provide a descriptive title for your content")
	}
	cleaned := strings.TrimSpace(title)
	if cleaned == "" {
		return "", invalid("Title cannot be empty or whitespace only", "Provide a meaningful title for your content")
	}
	if n := utf8.RuneCountInString(cleaned); n > MaxTitleLen {
		return "", invalid(
			fmt.Sprintf("Title too long: %d characters (max: %d)", n, MaxTitleLen),
			fmt.Sprintf("Shorten the title to %d characters or less", MaxTitleLen),
		)
	}
	return cleaned, nil
}

// ValidateStatus normalizes status to lower case.
func (v *Validator) ValidateStatus(status string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return "", invalid("Content status must be specified", "Valid values: "+strings.Join(validStatuses, ", "))
	}
	for _, s := range validStatuses {
		if normalized == s {
			return normalized, nil
		}
	}
	return "", invalid(
		fmt.Sprintf("Invalid content status: '%s'", status),
		"Valid values: "+strings.Join(validStatuses, ", "),
	)
}

// ValidatePublishedAt returns the trimmed value; blank input is treated as unset.
func (v *Validator) ValidatePublishedAt(publishedAt string) (string, error) {
	trimmed := strings.TrimSpace(publishedAt)
	if trimmed == "" {
		return "", nil
	}
	if err := v.validate.Var(trimmed, "iso_datetime"); err != nil {
		return "", invalid(
			fmt.Sprintf("Invalid datetime format: '%s'", trimmed),
			"Use ISO 8601 format: '2024-01-01T10:00:00.000Z'",
		)
	}
	return trimmed, nil
}

// ValidateSchedule requires a publish date for scheduled content.
func (v *Validator) ValidateSchedule(status, publishedAt string) error {
	if status == StatusScheduled && publishedAt == "" {
		return invalid(
			"Scheduled content requires published_at",
			"Provide published_at in ISO 8601 format: '2024-01-01T10:00:00.000Z'",
		)
	}
	return nil
}

func (v *Validator) ValidateContentFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case FormatHTML, FormatLexical:
		return normalized, nil
	case "":
		return "", invalid("Content format must be specified", "Valid values: 'html' or 'lexical' (recommended)")
	default:
		return "", invalid(
			fmt.Sprintf("Invalid content format: '%s'", format),
			"Valid values: 'html' or 'lexical' (recommended for rich content)",
		)
	}
}

// ValidateContent checks content against its format and returns the normalized format
// together with the content to send.
func (v *Validator) ValidateContent(content, format string) (string, string, error) {
	normalized, err := v.ValidateContentFormat(format)
	if err != nil {
		return "", "", err
	}
	if normalized == FormatHTML {
		cleaned, err := v.ValidateHTML(content)
		return normalized, cleaned, err
	}
	if err := v.ValidateLexical(content); err != nil {
		return "", "", err
	}
	return normalized, content, nil
}

func (v *Validator) ValidateMetaTitle(metaTitle string) (string, error) {
	return boundedText(metaTitle, "Meta title", MaxMetaTitleLen,
		"Keep meta titles under 300 characters for optimal SEO")
}

func (v *Validator) ValidateMetaDescription(metaDescription string) (string, error) {
	return boundedText(metaDescription, "Meta description", MaxMetaDescriptionLen,
		"Keep meta descriptions under 500 characters for optimal SEO")
}

func boundedText(value, label string, max int, hint string) (string, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "", invalid(label+" cannot be empty or whitespace only", "Provide a meaningful "+strings.ToLower(label)+" for SEO")
	}
	if n := utf8.RuneCountInString(cleaned); n > max {
		return "", invalid(fmt.Sprintf("%s too long: %d characters (max: %d)", label, n, max), hint)
	}
	return cleaned, nil
}

// ValidateLexical checks the structure of a Lexical JSON document.
func (v *Validator) ValidateLexical(content string) error {
	const example = `Expected format: '{"root": {"children": [...], ...}}'`

	if strings.TrimSpace(content) == "" {
		return invalid("Lexical content must be a non-empty JSON string", example)
	}

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return invalid(
			fmt.Sprintf("Invalid JSON in Lexical content: %v", err),
			"Ensure the content is valid JSON with proper escaping",
		)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return invalid("Lexical content must be a JSON object", example)
	}

	rawRoot, ok := obj["root"]
	if !ok {
		return invalid(
			"Lexical content must have a 'root' property",
			`Example: '{"root": {"children": [], "direction": "ltr", "format": "", "indent": 0, "type": "root", "version": 1}}'`,
		)
	}
	root, ok := rawRoot.(map[string]any)
	if !ok {
		return invalid("Lexical 'root' must be an object", "The root property should contain the document structure")
	}

	for _, prop := range lexicalRootProps {
		if _, ok := root[prop]; !ok {
			return invalid(
				fmt.Sprintf("Lexical root missing required property: '%s'", prop),
				"Root must have: "+strings.Join(lexicalRootProps, ", "),
			)
		}
	}
	if root["type"] != "root" {
		return invalid("Lexical root type must be 'root'", "Set root.type to 'root'")
	}

	children, ok := root["children"].([]any)
	if !ok {
		return invalid("Lexical root.children must be an array", "Children should be an array of content nodes")
	}
	return validateLexicalNodes(children, "root.children")
}

func validateLexicalNodes(nodes []any, path string) error {
	for i, raw := range nodes {
		nodePath := fmt.Sprintf("%s[%d]", path, i)

		node, ok := raw.(map[string]any)
		if !ok {
			return invalid(
				fmt.Sprintf("Lexical node at %s must be an object", nodePath),
				"Each node should be a JSON object with type, version, and other properties",
			)
		}

		nodeType, ok := node["type"]
		if !ok {
			return invalid(fmt.Sprintf("Lexical node at %s missing 'type' property", nodePath), validNodeTypesHint())
		}
		typeName, _ := nodeType.(string)
		if !lexicalNodeTypes[typeName] {
			return invalid(fmt.Sprintf("Invalid Lexical node type '%v' at %s", nodeType, nodePath), validNodeTypesHint())
		}

		if _, ok := node["version"]; !ok {
			return invalid(
				fmt.Sprintf("Lexical node at %s missing 'version' property", nodePath),
				"All nodes must have a version number (usually 1)",
			)
		}

		if req, ok := lexicalNodeRequires[typeName]; ok {
			if _, present := node[req.prop]; !present {
				return invalid(fmt.Sprintf("%s node at %s missing '%s' property", req.label, nodePath, req.prop), req.hint)
			}
		}

		if children, ok := node["children"].([]any); ok {
			if err := validateLexicalNodes(children, nodePath+".children"); err != nil {
				return err
			}
		}
	}
	return nil
}

func validNodeTypesHint() string {
	types := make([]string, 0, len(lexicalNodeTypes))
	for t := range lexicalNodeTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return "Valid types: " + strings.Join(types, ", ")
}

// ValidateHTML checks tags against the allowed set and their nesting. It returns the trimmed content.
func (v *Validator) ValidateHTML(content string) (string, error) {
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		return "", invalid("HTML content cannot be empty or whitespace only", "Provide meaningful HTML content")
	}

	problems := htmlProblems(cleaned)
	if len(problems) == 0 {
		return cleaned, nil
	}

	shown := problems
	suffix := ""
	if len(shown) > maxReportedHTMLErrors {
		shown = shown[:maxReportedHTMLErrors]
		suffix = "..."
	}
	return "", invalid(
		"HTML validation errors: "+strings.Join(shown, "; ")+suffix,
		"Fix HTML structure issues before submitting",
	)
}

func htmlProblems(content string) []string {
	var (
		stack    []string
		problems []string
	)

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				problems = append(problems, fmt.Sprintf("HTML parsing error: %v", err))
			}
			for _, tag := range stack {
				problems = append(problems, fmt.Sprintf("Unclosed tag: <%s>", tag))
			}
			return problems

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !allowedHTMLTags[tag] {
				problems = append(problems, fmt.Sprintf("Invalid HTML tag: <%s>", tag))
			}
			if tt == html.StartTagToken && !voidHTMLTags[tag] {
				stack = append(stack, tag)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case voidHTMLTags[tag]:
				problems = append(problems, fmt.Sprintf("Self-closing tag should not have closing tag: </%s>", tag))
			case len(stack) == 0:
				problems = append(problems, fmt.Sprintf("Unexpected closing tag: </%s>", tag))
			case stack[len(stack)-1] != tag:
				problems = append(problems, fmt.Sprintf("Mismatched tags: expected </%s>, got </%s>", stack[len(stack)-1], tag))
			default:
				stack = stack[:len(stack)-1]
			}
		}
	}
}
