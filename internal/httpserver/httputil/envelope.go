// Package httputil standardizes the JSON envelope returned by every
// endpoint: {"ok": bool, "data": any|null, "error": {code, message}|null}.
package httputil

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK writes a 200 success envelope.
func OK(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{OK: true, Data: data})
}

// Fail writes the error envelope for a taxonomy error.
func Fail(c *fiber.Ctx, err *apierr.Error) error {
	if err == nil {
		err = apierr.Internal()
	}
	return c.Status(err.Status).JSON(Envelope{
		OK:    false,
		Error: &ErrorBody{Code: err.Code, Message: err.Message},
	})
}

// FailErr resolves any error to a taxonomy error and writes it. Errors that
// are not already typed collapse to the generic internal failure so internal
// details never reach the client.
func FailErr(c *fiber.Ctx, err error) error {
	if apiErr, ok := apierr.As(err); ok {
		return Fail(c, apiErr)
	}
	return Fail(c, apierr.Internal())
}
