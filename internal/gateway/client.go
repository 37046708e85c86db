// Package gateway wraps the upstream AI gateway used for text analysis and
// image generation. Responses keep their upstream shape until normalized,
// because the gateway fronts more than one model family.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/config"
	"github.com/gridworkflow/gateway/backend/internal/upstream"
)

// AnalyzeRequest is a text analysis call proxied to chat completions.
type AnalyzeRequest struct {
	Prompt            string `json:"prompt"`
	Model             string `json:"model"`
	SystemInstruction string `json:"system_instruction"`
	ResponseFormat    string `json:"response_format"`
}

// GenerateImageRequest is an image generation call proxied to images/edits.
type GenerateImageRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	ImageSize      string `json:"image_size"`
	AspectRatio    string `json:"aspect_ratio"`
	Image          string `json:"image"`
	ResponseFormat string `json:"response_format"`
}

// Client calls the text/image AI gateway with per-operation timeouts.
type Client struct {
	cfg        config.UpstreamConfig
	textClient *upstream.Client
	imgClient  *upstream.Client
}

func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		cfg:        cfg,
		textClient: upstream.New(cfg.TextTimeout),
		imgClient:  upstream.New(cfg.ImageTimeout),
	}
}

// DefaultTextModel returns the model used when the caller names none.
func (c *Client) DefaultTextModel() string { return c.cfg.DefaultTextModel }

// DefaultImageModel returns the model used when the caller names none.
func (c *Client) DefaultImageModel() string { return c.cfg.DefaultImageModel }

// resolveKey prefers a non-blank caller-supplied key over the server default.
// The caller key is request-scoped and never stored.
func (c *Client) resolveKey(callerKey string) (string, error) {
	if key := strings.TrimSpace(callerKey); key != "" {
		return key, nil
	}
	if c.cfg.APIKey != "" {
		return c.cfg.APIKey, nil
	}
	return "", apierr.Unauthorized("upstream API key not configured")
}

// Analyze proxies a prompt to the chat completions endpoint and returns the
// extracted content, or the raw payload when the response is not
// chat-shaped.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest, callerKey string) (any, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, apierr.BadRequest("prompt is required")
	}
	key, err := c.resolveKey(callerKey)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.cfg.DefaultTextModel
	}

	messages := []map[string]any{}
	if req.SystemInstruction != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.SystemInstruction})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.Prompt})

	body := map[string]any{"model": model, "messages": messages}
	if strings.EqualFold(req.ResponseFormat, "json") {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	result, err := c.textClient.DoJSON(ctx, "POST", c.cfg.BaseURL+"/chat/completions",
		map[string]string{"Authorization": upstream.BearerHeader(key)}, body)
	if err != nil {
		return nil, err
	}
	return ExtractChatContent(result), nil
}

// GenerateImage proxies a prompt plus optional reference image to the
// images/edits endpoint and returns the upstream result list.
func (c *Client) GenerateImage(ctx context.Context, req GenerateImageRequest, callerKey string) (any, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, apierr.BadRequest("prompt is required")
	}
	key, err := c.resolveKey(callerKey)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.cfg.DefaultImageModel
	}
	responseFormat, err := validateImageResponseFormat(req.ResponseFormat)
	if err != nil {
		return nil, err
	}
	imageBytes, err := DecodeImageBase64(req.Image, c.cfg.MaxImageBase64Bytes)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"model":           model,
		"prompt":          req.Prompt,
		"response_format": responseFormat,
	}
	if req.AspectRatio != "" {
		fields["aspect_ratio"] = req.AspectRatio
	}
	if req.ImageSize != "" {
		fields["image_size"] = req.ImageSize
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, apierr.Internal()
		}
	}
	part, err := form.CreateFormFile("image", "reference.png")
	if err != nil {
		return nil, apierr.Internal()
	}
	if _, err := part.Write(imageBytes); err != nil {
		return nil, apierr.Internal()
	}
	if err := form.Close(); err != nil {
		return nil, apierr.Internal()
	}

	result, err := c.imgClient.DoMultipart(ctx, c.cfg.BaseURL+"/images/edits",
		map[string]string{"Authorization": upstream.BearerHeader(key)},
		form.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	if data, ok := result["data"]; ok {
		return data, nil
	}
	return result, nil
}

func validateImageResponseFormat(value string) (string, error) {
	if value == "" {
		return "url", nil
	}
	normalized := strings.ToLower(value)
	if normalized == "url" || normalized == "b64_json" {
		return normalized, nil
	}
	return "", apierr.BadRequest(fmt.Sprintf("response_format %q is not supported", value))
}
