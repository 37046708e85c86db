// Package apierr defines the closed error taxonomy surfaced by the gateway.
// Every failure that reaches an HTTP response is one of these errors; raw
// transport and upstream failures are converted at the invocation boundary.
package apierr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeTimeout          = "TIMEOUT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeInternal         = "INTERNAL"
	CodeCOSNotConfigured = "COS_NOT_CONFIGURED"
	CodeCOSUploadFailed  = "COS_UPLOAD_FAILED"
)

// Error carries a stable machine-readable code, a short user-facing message,
// and the HTTP status to return to the caller.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// As extracts an *Error from an error chain when present.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func BadRequest(msg string) *Error {
	return &Error{Code: CodeBadRequest, Message: msg, Status: fiber.StatusBadRequest}
}

func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg, Status: fiber.StatusUnauthorized}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg, Status: fiber.StatusForbidden}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Status: fiber.StatusNotFound}
}

func Timeout() *Error {
	return &Error{Code: CodeTimeout, Message: "upstream service timed out, try again later", Status: fiber.StatusGatewayTimeout}
}

func RateLimited() *Error {
	return &Error{Code: CodeRateLimited, Message: "too many requests, try again later", Status: fiber.StatusTooManyRequests}
}

func Upstream() *Error {
	return &Error{Code: CodeUpstreamError, Message: "upstream service error, try again later", Status: fiber.StatusBadGateway}
}

func Internal() *Error {
	return &Error{Code: CodeUpstreamError, Message: "internal service error, try again later", Status: fiber.StatusInternalServerError}
}

func COSNotConfigured() *Error {
	return &Error{Code: CodeCOSNotConfigured, Message: "object storage not configured", Status: fiber.StatusServiceUnavailable}
}

func COSUploadFailed() *Error {
	return &Error{Code: CodeCOSUploadFailed, Message: "media upload failed", Status: fiber.StatusBadGateway}
}

// FromStatus maps an upstream HTTP status (>=400) onto the taxonomy. The
// mapping is total: any status not matched explicitly resolves to
// UPSTREAM_ERROR with a 502 surfaced to the caller.
func FromStatus(status int) *Error {
	switch status {
	case fiber.StatusBadRequest:
		return BadRequest("upstream rejected the request parameters")
	case fiber.StatusUnauthorized:
		return Unauthorized("upstream rejected the API key")
	case fiber.StatusForbidden:
		return Forbidden("upstream denied access")
	case fiber.StatusNotFound:
		return NotFound("upstream resource not found")
	case fiber.StatusRequestTimeout, fiber.StatusGatewayTimeout:
		return Timeout()
	case fiber.StatusTooManyRequests:
		return RateLimited()
	default:
		return Upstream()
	}
}
