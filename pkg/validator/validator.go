package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	adminKeyRegex    = regexp.MustCompile(`^[0-9a-f]{24}:[0-9a-f]{64}$`)
	contentKeyRegex  = regexp.MustCompile(`^[0-9a-f]{26}$`)
	slugRegex        = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	publishedAtRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?$`)
)

// IsAdminAPIKey reports whether s looks like "<24 hex id>:<64 hex secret>".
func IsAdminAPIKey(s string) bool {
	return adminKeyRegex.MatchString(s)
}

// IsContentAPIKey reports whether s is 26 lowercase hex characters.
func IsContentAPIKey(s string) bool {
	return contentKeyRegex.MatchString(s)
}

func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// IsISODateTime accepts the subset of ISO 8601 Ghost takes for published_at.
func IsISODateTime(s string) bool {
	return publishedAtRegex.MatchString(s)
}

// IsBalancedFilter performs the cheap structural check on an NQL filter:
// parentheses and square brackets must be balanced in count.
func IsBalancedFilter(s string) bool {
	return strings.Count(s, "(") == strings.Count(s, ")") &&
		strings.Count(s, "[") == strings.Count(s, "]")
}

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}
}

// RegisterCustomValidators registers the Ghost-specific tags with the validator.
func RegisterCustomValidators(validate *validator.Validate) error {
	rules := map[string]validator.Func{
		"ghost_admin_key":   stringRule(IsAdminAPIKey),
		"ghost_content_key": stringRule(IsContentAPIKey),
		"ghost_slug":        stringRule(IsSlug),
		"iso_datetime":      stringRule(IsISODateTime),
		"nql_filter":        stringRule(IsBalancedFilter),
	}
	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}
