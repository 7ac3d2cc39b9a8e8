package errors

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
)

var httpStatusPattern = regexp.MustCompile(`HTTP (\d{3})`)

// Classifier decides whether a failed call is worth another attempt.
type Classifier struct {
	logger *slog.Logger
	// RetryUnclassified controls errors outside the taxonomy. Defaults to true
	// so novel failures keep being retried instead of dropped.
	RetryUnclassified bool
}

func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger, RetryUnclassified: true}
}

func (c *Classifier) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	e, ok := As(err)
	if !ok {
		return c.unclassified(err)
	}

	switch e.Category {
	case CategoryNetwork:
		return true
	case CategoryAuthentication, CategoryValidation:
		return false
	case CategoryGhostAPI:
		status, found := StatusFromContext(e.Context)
		if !found {
			return false
		}
		return status >= 500 || status == 429
	default:
		return c.unclassified(err)
	}
}

func (c *Classifier) unclassified(err error) bool {
	c.logger.LogAttrs(context.Background(), slog.LevelWarn, "unclassified error in retry decision",
		slog.String("error", err.Error()),
		slog.Bool("retry", c.RetryUnclassified),
	)
	return c.RetryUnclassified
}

// StatusFromContext extracts the HTTP status embedded as "HTTP <code>" in an error context.
func StatusFromContext(errContext string) (int, bool) {
	m := httpStatusPattern.FindStringSubmatch(errContext)
	if m == nil {
		return 0, false
	}
	status, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return status, true
}
