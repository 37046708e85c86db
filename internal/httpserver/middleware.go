package httpserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gridworkflow/gateway/backend/internal/app"
	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/httpserver/httputil"
	"github.com/gridworkflow/gateway/backend/internal/requestctx"
)

const traceHeader = "X-Request-ID"

// requestPipeline assigns the correlation id before any handler logic runs,
// converts panics into the generic error envelope, and emits exactly one
// completion log line per request regardless of outcome.
func requestPipeline(container *app.Container) fiber.Handler {
	logger := container.Logger
	obs := container.Observability

	return func(c *fiber.Ctx) (err error) {
		rc := requestctx.New(uuid.NewString())
		c.Locals(requestctx.FiberLocalsKey(), rc)
		c.SetUserContext(requestctx.WithContext(c.UserContext(), rc))

		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("unhandled error",
					"request_id", rc.RequestID,
					"step", rc.StepLabel(),
					"model", rc.ModelLabel(),
					"panic", recovered,
				)
				err = httputil.Fail(c, apierr.Internal())
			}

			c.Set(traceHeader, rc.RequestID)

			elapsed := rc.Elapsed()
			status := c.Response().StatusCode()
			if obs != nil {
				obs.RecordHTTPRequest(c.Method(), routePath(c), status, elapsed)
			}
			logger.Info("request completed",
				"request_id", rc.RequestID,
				"step", rc.StepLabel(),
				"model", rc.ModelLabel(),
				"status", status,
				"latency_ms", float64(elapsed.Microseconds())/1000.0,
			)
		}()

		if nextErr := c.Next(); nextErr != nil {
			return writeErrorEnvelope(c, nextErr)
		}
		return nil
	}
}

// writeErrorEnvelope converts any error escaping the handler chain into the
// uniform envelope. Fiber's own routing errors keep their status; everything
// untyped collapses to the generic internal failure.
func writeErrorEnvelope(c *fiber.Ctx, err error) error {
	if apiErr, ok := apierr.As(err); ok {
		return httputil.Fail(c, apiErr)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return httputil.Fail(c, apierr.NotFound("resource not found"))
		case fiber.StatusMethodNotAllowed:
			return httputil.Fail(c, &apierr.Error{
				Code:    apierr.CodeBadRequest,
				Message: "method not allowed",
				Status:  fiber.StatusMethodNotAllowed,
			})
		case fiber.StatusRequestEntityTooLarge:
			return httputil.Fail(c, &apierr.Error{
				Code:    apierr.CodeBadRequest,
				Message: "request body too large",
				Status:  fiber.StatusRequestEntityTooLarge,
			})
		}
	}
	return httputil.Fail(c, apierr.Internal())
}

func routePath(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}
