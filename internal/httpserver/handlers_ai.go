package httpserver

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/app"
	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/gateway"
	"github.com/gridworkflow/gateway/backend/internal/httpserver/httputil"
)

type aiHandler struct {
	container *app.Container
}

func registerAIRoutes(fiberApp *fiber.App, container *app.Container) {
	h := &aiHandler{container: container}
	grp := fiberApp.Group("/api/v1/ai", container.Auth.RequireUser())
	grp.Post("/analyze", h.analyze)
	grp.Post("/generate-image", h.generateImage)
}

// analyzeRequest accepts both snake_case and camelCase field names; some
// clients send systemInstruction/responseFormat.
type analyzeRequest struct {
	gateway.AnalyzeRequest
	SystemInstructionAlias string `json:"systemInstruction"`
	ResponseFormatAlias    string `json:"responseFormat"`
}

type generateImageRequest struct {
	gateway.GenerateImageRequest
	ResponseFormatAlias string `json:"responseFormat"`
}

func (h *aiHandler) analyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}
	if req.SystemInstruction == "" {
		req.SystemInstruction = req.SystemInstructionAlias
	}
	if req.ResponseFormat == "" {
		req.ResponseFormat = req.ResponseFormatAlias
	}

	model := req.Model
	if model == "" {
		model = h.container.Gateway.DefaultTextModel()
	}
	setOperation(c, "ai.analyze", model)

	result, err := h.container.Gateway.Analyze(c.UserContext(), req.AnalyzeRequest, callerKey(c))
	if err != nil {
		return httputil.FailErr(c, err)
	}
	return httputil.OK(c, result)
}

func (h *aiHandler) generateImage(c *fiber.Ctx) error {
	var req generateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}
	if req.ResponseFormat == "" {
		req.ResponseFormat = req.ResponseFormatAlias
	}

	model := req.Model
	if model == "" {
		model = h.container.Gateway.DefaultImageModel()
	}
	setOperation(c, "ai.generate_image", model)

	result, err := h.container.Gateway.GenerateImage(c.UserContext(), req.GenerateImageRequest, callerKey(c))
	if err != nil {
		return httputil.FailErr(c, err)
	}
	return httputil.OK(c, result)
}
