package httpserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/app"
	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/gateway"
	"github.com/gridworkflow/gateway/backend/internal/httpserver/httputil"
	"github.com/gridworkflow/gateway/backend/internal/workflow"
)

var allowedImageSizes = []string{"1K", "2K", "4K"}

type workflowHandler struct {
	container *app.Container
}

// registerWorkflowRoutes mounts the storyboard pipeline: concept image,
// storyboard plan, grid generation, and the final video prompt.
func registerWorkflowRoutes(fiberApp *fiber.App, container *app.Container) {
	h := &workflowHandler{container: container}
	grp := fiberApp.Group("/api/v1", container.Auth.RequireUser())
	grp.Post("/concept", h.concept)
	grp.Post("/storyboard/plan", h.storyboardPlan)
	grp.Post("/storyboard/generate", h.storyboardGenerate)
	grp.Post("/video/prompt", h.videoPrompt)
}

type conceptRequest struct {
	Style       string            `json:"style"`
	Plot        string            `json:"plot"`
	Anchors     *workflow.Anchors `json:"anchors"`
	AspectRatio string            `json:"aspect_ratio"`
	ImageSize   string            `json:"image_size"`
}

type storyboardPlanRequest struct {
	Style           string            `json:"style"`
	Plot            string            `json:"plot"`
	Anchors         *workflow.Anchors `json:"anchors"`
	ConceptPrompt   string            `json:"concept_prompt"`
	ConceptImageURL string            `json:"concept_image_url"`
	OutputLanguage  string            `json:"output_language"`
}

type storyboardGenerateRequest struct {
	StoryboardPrompt     string `json:"storyboard_prompt"`
	ReferenceImageBase64 string `json:"reference_image_base64"`
	AspectRatio          string `json:"aspect_ratio"`
	ImageSize            string `json:"image_size"`
}

type videoPromptRequest struct {
	StoryboardPrompt string `json:"storyboard_prompt"`
	OriginalPlot     string `json:"original_plot"`
	Duration         int    `json:"duration"`
	FPS              int    `json:"fps"`
	OutputLanguage   string `json:"output_language"`
}

func defaultImageSize(value string) string {
	if strings.TrimSpace(value) == "" {
		return "1K"
	}
	return strings.TrimSpace(value)
}

func defaultOutputLanguage(value string) string {
	if strings.TrimSpace(value) == "" {
		return "zh-CN"
	}
	return strings.TrimSpace(value)
}

// requireText asserts that a text-generation result is a non-blank string.
// Anything else means the upstream answered with an unexpected shape.
func requireText(result any) (string, *apierr.Error) {
	text, ok := result.(string)
	if !ok {
		return "", apierr.Upstream()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apierr.Upstream()
	}
	return text, nil
}

func (h *workflowHandler) concept(c *fiber.Ctx) error {
	var req conceptRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}
	req.ImageSize = defaultImageSize(req.ImageSize)

	if apiErr := runChecks(
		required(&req.Style, "style is required"),
		required(&req.Plot, "plot is required"),
		required(&req.AspectRatio, "aspect_ratio is required"),
		oneOf(&req.AspectRatio, allowedAspectRatios, "aspect_ratio must be 16:9 or 9:16"),
		oneOf(&req.ImageSize, allowedImageSizes, "image_size must be 1K, 2K or 4K"),
	); apiErr != nil {
		return httputil.Fail(c, apiErr)
	}

	conceptPrompt := workflow.BuildConceptPrompt(req.Style, req.Plot, req.Anchors, req.AspectRatio)
	referenceImage := workflow.SelectReferenceImage(req.Anchors)

	setOperation(c, "workflow.concept", h.container.Gateway.DefaultImageModel())

	result, err := h.container.Gateway.GenerateImage(c.UserContext(), gateway.GenerateImageRequest{
		Prompt:         conceptPrompt,
		ImageSize:      req.ImageSize,
		AspectRatio:    req.AspectRatio,
		Image:          referenceImage,
		ResponseFormat: "url",
	}, callerKey(c))
	if err != nil {
		return httputil.FailErr(c, err)
	}

	imageURL := gateway.ExtractFirstImageURL(result)
	if imageURL == "" {
		return httputil.Fail(c, apierr.Upstream())
	}

	return httputil.OK(c, fiber.Map{
		"concept_prompt":    conceptPrompt,
		"concept_image_url": imageURL,
	})
}

func (h *workflowHandler) storyboardPlan(c *fiber.Ctx) error {
	var req storyboardPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}

	if apiErr := runChecks(
		required(&req.Style, "style is required"),
		required(&req.Plot, "plot is required"),
	); apiErr != nil {
		return httputil.Fail(c, apiErr)
	}

	outputLanguage := defaultOutputLanguage(req.OutputLanguage)
	system := workflow.BuildStoryboardPlanSystem(outputLanguage)
	prompt := workflow.BuildStoryboardPlanPrompt(
		req.Style,
		req.Plot,
		workflow.BuildAnchorContext(req.Anchors),
		strings.TrimSpace(req.ConceptPrompt),
		strings.TrimSpace(req.ConceptImageURL),
	)

	setOperation(c, "workflow.storyboard_plan", h.container.Gateway.DefaultTextModel())

	result, err := h.container.Gateway.Analyze(c.UserContext(), gateway.AnalyzeRequest{
		Prompt:            prompt,
		SystemInstruction: system,
	}, callerKey(c))
	if err != nil {
		return httputil.FailErr(c, err)
	}

	storyboardPrompt, apiErr := requireText(result)
	if apiErr != nil {
		return httputil.Fail(c, apiErr)
	}
	return httputil.OK(c, fiber.Map{"storyboard_prompt": storyboardPrompt})
}

func (h *workflowHandler) storyboardGenerate(c *fiber.Ctx) error {
	var req storyboardGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}
	req.ImageSize = defaultImageSize(req.ImageSize)

	if apiErr := runChecks(
		required(&req.StoryboardPrompt, "storyboard_prompt is required"),
		required(&req.AspectRatio, "aspect_ratio is required"),
		oneOf(&req.AspectRatio, allowedAspectRatios, "aspect_ratio must be 16:9 or 9:16"),
		oneOf(&req.ImageSize, allowedImageSizes, "image_size must be 1K, 2K or 4K"),
	); apiErr != nil {
		return httputil.Fail(c, apiErr)
	}

	setOperation(c, "workflow.storyboard_generate", h.container.Gateway.DefaultImageModel())

	result, err := h.container.Gateway.GenerateImage(c.UserContext(), gateway.GenerateImageRequest{
		Prompt:         req.StoryboardPrompt,
		ImageSize:      req.ImageSize,
		AspectRatio:    req.AspectRatio,
		Image:          strings.TrimSpace(req.ReferenceImageBase64),
		ResponseFormat: "url",
	}, callerKey(c))
	if err != nil {
		return httputil.FailErr(c, err)
	}

	imageURL := gateway.ExtractFirstImageURL(result)
	if imageURL == "" {
		return httputil.Fail(c, apierr.Upstream())
	}
	return httputil.OK(c, fiber.Map{"grid_image_url": imageURL})
}

func (h *workflowHandler) videoPrompt(c *fiber.Ctx) error {
	var req videoPromptRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}
	if req.Duration == 0 {
		req.Duration = 10
	}
	if req.FPS == 0 {
		req.FPS = 60
	}

	if apiErr := runChecks(
		required(&req.StoryboardPrompt, "storyboard_prompt is required"),
		required(&req.OriginalPlot, "original_plot is required"),
		oneOfInt(req.Duration, allowedDurations, "duration must be 10, 15 or 25"),
		check{ok: func() bool { return req.FPS > 0 }, msg: "fps must be greater than 0"},
	); apiErr != nil {
		return httputil.Fail(c, apiErr)
	}

	outputLanguage := defaultOutputLanguage(req.OutputLanguage)
	system := workflow.BuildVideoPromptSystem(req.Duration, req.FPS, outputLanguage)
	prompt := workflow.BuildVideoPromptPrompt(req.StoryboardPrompt, req.OriginalPlot)

	setOperation(c, "workflow.video_prompt", h.container.Gateway.DefaultTextModel())

	result, err := h.container.Gateway.Analyze(c.UserContext(), gateway.AnalyzeRequest{
		Prompt:            prompt,
		SystemInstruction: system,
	}, callerKey(c))
	if err != nil {
		return httputil.FailErr(c, err)
	}

	videoPrompt, apiErr := requireText(result)
	if apiErr != nil {
		return httputil.Fail(c, apiErr)
	}
	return httputil.OK(c, fiber.Map{"video_prompt": videoPrompt})
}
