package errors

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Category is the closed set of failure kinds raised by the Ghost client and tools.
type Category string

const (
	CategoryNetwork        Category = "NETWORK"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryGhostAPI       Category = "GHOST_API"
	CategoryMCPProtocol    Category = "MCP_PROTOCOL"
	CategoryFileUpload     Category = "FILE_UPLOAD"
	CategoryValidation     Category = "VALIDATION"
)

const (
	CodeNetwork    = "NETWORK_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeFileUpload = "FILE_UPLOAD_ERROR"
	CodeMCP        = "MCP_ERROR"
)

var (
	ErrNetwork        = errors.New("network error")
	ErrAuthentication = errors.New("authentication failed")
	ErrGhostAPI       = errors.New("ghost api error")
	ErrMCPProtocol    = errors.New("mcp protocol error")
	ErrFileUpload     = errors.New("file upload error")
	ErrValidation     = errors.New("validation failed")
)

var sentinels = map[Category]error{
	CategoryNetwork:        ErrNetwork,
	CategoryAuthentication: ErrAuthentication,
	CategoryGhostAPI:       ErrGhostAPI,
	CategoryMCPProtocol:    ErrMCPProtocol,
	CategoryFileUpload:     ErrFileUpload,
	CategoryValidation:     ErrValidation,
}

// Error is the single concrete failure type. Every instance gets a fresh ID.
type Error struct {
	ID        string
	Category  Category
	Code      string
	Message   string
	Context   string
	RequestID string
	Cause     error
}

func New(category Category, code, message, context, requestID string) *Error {
	return &Error{
		ID:        uuid.NewString(),
		Category:  category,
		Code:      code,
		Message:   message,
		Context:   context,
		RequestID: requestID,
	}
}

func NewNetworkError(message, context, requestID string) *Error {
	return New(CategoryNetwork, CodeNetwork, message, context, requestID)
}

func NewAuthenticationError(message, context, requestID string) *Error {
	return New(CategoryAuthentication, CodeAuth, message, context, requestID)
}

// NewGhostAPIError carries the upstream error code when Ghost supplied one.
func NewGhostAPIError(message, code, context, requestID string) *Error {
	return New(CategoryGhostAPI, code, message, context, requestID)
}

func NewValidationError(message, context, requestID string) *Error {
	return New(CategoryValidation, CodeValidation, message, context, requestID)
}

func NewFileUploadError(message, context, requestID string) *Error {
	return New(CategoryFileUpload, CodeFileUpload, message, context, requestID)
}

func NewMCPProtocolError(message, context, requestID string) *Error {
	return New(CategoryMCPProtocol, CodeMCP, message, context, requestID)
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's category.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Category]
	return ok && s == target
}

// WithCause records the underlying error and returns e.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Fields renders the error for structured output.
func (e *Error) Fields() map[string]any {
	return map[string]any{
		"error_id":   e.ID,
		"category":   string(e.Category),
		"code":       e.Code,
		"message":    e.Message,
		"context":    e.Context,
		"request_id": e.RequestID,
	}
}

func (e *Error) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error_id", e.ID),
		slog.String("category", string(e.Category)),
		slog.String("code", e.Code),
		slog.String("message", e.Message),
		slog.String("context", e.Context),
		slog.String("request_id", e.RequestID),
	)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
