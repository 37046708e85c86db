package requestctx

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

const fiberLocalsKey = "requestctx"

// Key is the typed context key used for storing the RequestContext.
var Key contextKey = "gridworkflow-gateway/requestctx"

const unsetLabel = "-"

// Context tracks one inbound request for logging and tracing only: the
// correlation id assigned at ingress, the logical step in flight, the model
// label where applicable, and the start timestamp. It is discarded after the
// response is sent and never feeds business logic.
type Context struct {
	RequestID string
	Step      string
	Model     string
	Subject   string
	Start     time.Time
}

// New creates a request context started now with the given correlation id.
func New(requestID string) *Context {
	return &Context{RequestID: requestID, Start: time.Now()}
}

// SetStep records which logical operation is handling the request.
func (rc *Context) SetStep(step string) {
	if rc != nil {
		rc.Step = step
	}
}

// SetModel records the model label used by the current operation.
func (rc *Context) SetModel(model string) {
	if rc != nil {
		rc.Model = model
	}
}

// StepLabel returns the step label or a placeholder when no handler was reached.
func (rc *Context) StepLabel() string {
	if rc == nil || rc.Step == "" {
		return unsetLabel
	}
	return rc.Step
}

// ModelLabel returns the model label or a placeholder.
func (rc *Context) ModelLabel() string {
	if rc == nil || rc.Model == "" {
		return unsetLabel
	}
	return rc.Model
}

// Elapsed returns the time spent handling the request so far.
func (rc *Context) Elapsed() time.Duration {
	if rc == nil {
		return 0
	}
	return time.Since(rc.Start)
}

// WithContext embeds the request context into the parent context.
func WithContext(parent context.Context, rc *Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, Key, rc)
}

// FromContext retrieves the request context if present.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(Key).(*Context)
	return rc, ok
}

// FromFiber retrieves the request context stored in fiber locals.
func FromFiber(c *fiber.Ctx) *Context {
	rc, _ := c.Locals(fiberLocalsKey).(*Context)
	return rc
}

// FiberLocalsKey returns the key used in fiber.Locals for request context storage.
func FiberLocalsKey() string {
	return fiberLocalsKey
}
