package httpserver

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/app"
	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/httpserver/httputil"
	"github.com/gridworkflow/gateway/backend/internal/video"
)

var (
	allowedVideoModels  = []string{"sora-2", "sora-2-pro"}
	allowedDurations    = []int{10, 15, 25}
	allowedAspectRatios = []string{"16:9", "9:16"}
)

type videoHandler struct {
	container *app.Container
}

func registerVideoRoutes(fiberApp *fiber.App, container *app.Container) {
	h := &videoHandler{container: container}
	grp := fiberApp.Group("/api/v1/video")
	grp.Post("/generate", container.Auth.RequireUser(), h.generate)
	grp.Get("/status/:task_id", container.Auth.RequireUserOrAllowlisted(), h.status)
}

type videoGenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Images      []string `json:"images"`
	AspectRatio string   `json:"aspect_ratio"`
	HD          bool     `json:"hd"`
	Duration    int      `json:"duration"`
	Provider    string   `json:"provider"`
}

func (h *videoHandler) generate(c *fiber.Ctx) error {
	var req videoGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid JSON body"))
	}
	if req.Provider == "" {
		req.Provider = "t8star"
	}

	setOperation(c, "video.generate", req.Model)

	if apiErr := runChecks(
		required(&req.Prompt, "prompt is required"),
		required(&req.Model, "model is required"),
		required(&req.AspectRatio, "aspect_ratio is required"),
		check{ok: func() bool { return req.Duration > 0 }, msg: "duration is required"},
		oneOf(&req.Model, allowedVideoModels, "model must be sora-2 or sora-2-pro"),
		oneOfInt(req.Duration, allowedDurations, "duration must be 10, 15 or 25"),
		oneOf(&req.AspectRatio, allowedAspectRatios, "aspect_ratio must be 16:9 or 9:16"),
		when(func() bool { return req.Duration == 25 && req.Model != "sora-2-pro" }, "duration=25 requires model sora-2-pro"),
		when(func() bool { return req.HD && req.Model != "sora-2-pro" }, "hd requires model sora-2-pro"),
	); apiErr != nil {
		return httputil.Fail(c, apiErr)
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		img = strings.TrimSpace(img)
		if img == "" {
			return httputil.Fail(c, apierr.BadRequest("images entries must not be blank"))
		}
		images = append(images, img)
	}

	key := callerKey(c)
	if key == "" && h.container.Config.Upstream.APIKey == "" {
		return httputil.Fail(c, apierr.Unauthorized("upstream API key not configured"))
	}

	provider, ok := h.container.Providers.Resolve(req.Provider)
	if !ok {
		return httputil.Fail(c, apierr.BadRequest("provider is not supported"))
	}

	payload := map[string]any{
		"prompt":       req.Prompt,
		"model":        req.Model,
		"aspect_ratio": req.AspectRatio,
		"hd":           req.HD,
		"duration":     strconv.Itoa(req.Duration),
	}
	if len(images) > 0 {
		payload["images"] = images
	}

	h.container.Logger.Info("video generate request",
		"request_id", requestID(c),
		"model", req.Model,
		"duration", req.Duration,
		"aspect_ratio", req.AspectRatio,
	)

	result, err := provider.Generate(c.UserContext(), payload, key)
	if err != nil {
		return httputil.FailErr(c, err)
	}

	taskID, _ := result["task_id"].(string)
	if !video.IsValidTaskID(taskID) {
		h.container.Logger.Warn("video generate returned invalid task id",
			"request_id", requestID(c),
			"task_id", video.MaskTaskID(taskID),
		)
		return httputil.Fail(c, apierr.Upstream())
	}

	return httputil.OK(c, fiber.Map{"task_id": taskID})
}

func (h *videoHandler) status(c *fiber.Ctx) error {
	taskID := c.Params("task_id")
	providerName := strings.ToLower(strings.TrimSpace(c.Query("provider", "t8star")))

	setOperation(c, "video.status", "")

	if !video.IsValidTaskID(taskID) {
		return httputil.Fail(c, apierr.BadRequest("task_id format is invalid"))
	}

	key := callerKey(c)
	if key == "" && h.container.Config.Upstream.APIKey == "" {
		return httputil.Fail(c, apierr.Unauthorized("upstream API key not configured"))
	}

	provider, ok := h.container.Providers.Resolve(providerName)
	if !ok {
		return httputil.Fail(c, apierr.BadRequest("provider is not supported"))
	}

	h.container.Logger.Info("video status request",
		"request_id", requestID(c),
		"task_id", video.MaskTaskID(taskID),
	)

	result, err := provider.Status(c.UserContext(), taskID, key)
	if err != nil {
		return httputil.FailErr(c, err)
	}

	rawStatus, _ := result["status"].(string)
	status := video.NormalizeStatus(rawStatus)

	var errorMessage any
	if status == video.StatusFailed {
		rawReason, _ := result["fail_reason"].(string)
		if sanitized := video.SanitizeErrorMessage(rawReason); sanitized != "" {
			errorMessage = sanitized
		}
	}

	var videoURL any
	if url := video.ExtractVideoURL(result["data"]); url != "" {
		videoURL = url
	}

	pollMS := h.container.Config.Video.PollIntervalMS
	if pollMS < 3000 {
		pollMS = 3000
	}
	c.Set("X-Poll-Interval-Ms", strconv.Itoa(pollMS))
	retryAfter := int(math.Ceil(float64(pollMS) / 1000))
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return httputil.OK(c, fiber.Map{
		"task_id":       taskID,
		"provider":      providerName,
		"status":        status,
		"video_url":     videoURL,
		"error_message": errorMessage,
	})
}
