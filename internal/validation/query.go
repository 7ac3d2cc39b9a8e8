package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgvalidator "github.com/spounge-ai/ghost-mcp/pkg/validator"
)

const (
	MinQueryLimit = 1
	MaxQueryLimit = 50
)

// Pagination holds the optional browse parameters. Nil means "let Ghost decide".
type Pagination struct {
	Limit *int `validate:"omitnil,min=1,max=50"`
	Page  *int `validate:"omitnil,min=1"`
}

func (v *Validator) ValidatePagination(limit, page *int) error {
	err := v.validate.Struct(Pagination{Limit: limit, Page: page})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Limit":
			return invalid(
				fmt.Sprintf("Limit must be between %d and %d", MinQueryLimit, MaxQueryLimit),
				fmt.Sprintf("Got limit=%d", *limit),
			)
		case "Page":
			return invalid("Page must be 1 or greater", fmt.Sprintf("Got page=%d", *page))
		}
	}
	return invalid(fmt.Sprintf("Invalid pagination parameters: %v", err), "")
}

// ValidateFilter applies the structural NQL check. An empty filter is valid.
func (v *Validator) ValidateFilter(filter string) error {
	if filter == "" {
		return nil
	}
	if err := v.validate.Var(filter, "nql_filter"); err != nil {
		return invalid("Invalid filter syntax", "Parentheses and square brackets must be balanced")
	}
	return nil
}

// ValidateID returns the trimmed id. name is used in the message, e.g. "post_id".
func (v *Validator) ValidateID(id, name string) (string, error) {
	if id == "" {
		return "", invalid(fmt.Sprintf("Invalid %s: must be a non-empty string", name), "")
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", invalid(fmt.Sprintf("Invalid %s: cannot be empty or whitespace", name), "")
	}
	return trimmed, nil
}

func (v *Validator) ValidateSlug(slug string) (string, error) {
	if slug == "" {
		return "", invalid("Invalid slug: must be a non-empty string", "")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return "", invalid("Invalid slug: cannot be empty or whitespace", "")
	}
	if !pkgvalidator.IsSlug(trimmed) {
		return "", invalid(
			"Invalid slug: must contain only alphanumeric characters, hyphens, and underscores",
			fmt.Sprintf("Got slug=%q", trimmed),
		)
	}
	return trimmed, nil
}

// SearchFilter builds the NQL filter matching query against title or plaintext.
func SearchFilter(query string) string {
	q := strings.ReplaceAll(strings.TrimSpace(query), "'", `\'`)
	return fmt.Sprintf("title:~'%s',plaintext:~'%s'", q, q)
}
