package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
)

const (
	maxResponseBytes = 32 << 20
)

// ghostError is one entry of Ghost's {"errors": [...]} body.
type ghostError struct {
	Message string `json:"message"`
	Context any    `json:"context"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type ghostErrorBody struct {
	Errors *[]ghostError `json:"errors"`
}

func handleResponse(resp *http.Response, requestID string) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("Failed to read response body: %v", err),
			fmt.Sprintf("HTTP %d", resp.StatusCode),
			requestID,
		).WithCause(err)
	}

	if resp.StatusCode < http.StatusBadRequest {
		return decodeSuccess(data, requestID)
	}
	return nil, decodeFailure(resp.StatusCode, data, requestID)
}

func decodeSuccess(data []byte, requestID string) (Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{}, nil
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperrors.NewGhostAPIError(
			fmt.Sprintf("Failed to parse response JSON: %v", err),
			"",
			"Invalid JSON response from Ghost API",
			requestID,
		).WithCause(err)
	}
	if result == nil {
		result = Result{}
	}
	return result, nil
}

func decodeFailure(status int, data []byte, requestID string) error {
	var body ghostErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Errors != nil {
		message := "Unknown Ghost API error"
		code := ""
		errContext := fmt.Sprintf("HTTP %d", status)

		if entries := *body.Errors; len(entries) > 0 {
			first := entries[0]
			if first.Message != "" {
				message = first.Message
			}
			code = stringify(first.Code)
			if code == "" {
				code = first.Type
			}
			if detail := stringify(first.Context); detail != "" {
				errContext += ": " + detail
			}
		}
		return apperrors.NewGhostAPIError(message, code, errContext, requestID)
	}

	text := strings.TrimSpace(string(data))
	return apperrors.NewGhostAPIError(
		fmt.Sprintf("HTTP %d: %s", status, text),
		"",
		fmt.Sprintf("HTTP %d non-JSON error response: %s", status, text),
		requestID,
	)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func (c *Client) transportError(ctx context.Context, err error, target, requestID string) error {
	inner := stripURL(err)

	var e *apperrors.Error
	switch {
	case isTimeout(err):
		e = apperrors.NewNetworkError(
			fmt.Sprintf("Request timeout: %v", inner),
			c.timeoutContext(ctx),
			requestID,
		)
	case isConnectFailure(inner):
		e = apperrors.NewNetworkError(
			fmt.Sprintf("Connection error: %v", inner),
			fmt.Sprintf("Failed to connect to %s", target),
			requestID,
		)
	default:
		e = apperrors.NewNetworkError(
			fmt.Sprintf("HTTP error: %v", inner),
			fmt.Sprintf("Request to %s failed", target),
			requestID,
		)
	}
	return e.WithCause(inner)
}

// timeoutContext names the deadline that fired: the caller's context or the client timeout.
func (c *Client) timeoutContext(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "Request deadline exceeded"
	}
	return fmt.Sprintf("Timeout after %s", c.timeout)
}

// stripURL drops the *url.Error wrapper, whose message repeats the full URL including the content key.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectFailure(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
