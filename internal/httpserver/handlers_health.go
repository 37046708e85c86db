package httpserver

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/app"
	"github.com/gridworkflow/gateway/backend/internal/httpserver/httputil"
)

func registerHealthRoutes(fiberApp *fiber.App, container *app.Container) {
	env := container.Config.App.Env
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		setOperation(c, "health", "")
		return httputil.OK(c, fiber.Map{
			"status":    "ok",
			"env":       env,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
