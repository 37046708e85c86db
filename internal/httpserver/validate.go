package httpserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/requestctx"
)

// check is one validation rule. Rules run in declaration order and the first
// failing rule's message is the one the caller sees, so ordering is part of
// the endpoint contract: required fields before enum membership before
// cross-field constraints.
type check struct {
	ok  func() bool
	msg string
}

func runChecks(checks ...check) *apierr.Error {
	for _, ck := range checks {
		if !ck.ok() {
			return apierr.BadRequest(ck.msg)
		}
	}
	return nil
}

func required(value *string, msg string) check {
	return check{ok: func() bool {
		*value = strings.TrimSpace(*value)
		return *value != ""
	}, msg: msg}
}

func oneOf(value *string, allowed []string, msg string) check {
	return check{ok: func() bool {
		for _, a := range allowed {
			if *value == a {
				return true
			}
		}
		return false
	}, msg: msg}
}

func oneOfInt(value int, allowed []int, msg string) check {
	return check{ok: func() bool {
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}, msg: msg}
}

func when(condition func() bool, msg string) check {
	return check{ok: func() bool { return !condition() }, msg: msg}
}

// callerKey returns the request-scoped upstream credential override. It is
// read per call and never stored.
func callerKey(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get("x-user-gemini-key"))
}

// setOperation records the step and model labels on the request context so
// the completion log line carries them.
func setOperation(c *fiber.Ctx, step, model string) *requestctx.Context {
	rc := requestctx.FromFiber(c)
	rc.SetStep(step)
	rc.SetModel(model)
	return rc
}

func requestID(c *fiber.Ctx) string {
	if rc := requestctx.FromFiber(c); rc != nil {
		return rc.RequestID
	}
	return "unknown"
}
