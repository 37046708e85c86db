package httpserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gridworkflow/gateway/backend/internal/app"
	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/httpserver/httputil"
	"github.com/gridworkflow/gateway/backend/internal/storage/media"
)

type mediaHandler struct {
	container *app.Container
}

func registerMediaRoutes(fiberApp *fiber.App, container *app.Container) {
	h := &mediaHandler{container: container}
	fiberApp.Post("/media/upload", container.Auth.RequireUser(), h.upload)
}

func (h *mediaHandler) upload(c *fiber.Ctx) error {
	setOperation(c, "media.upload", "")

	mediaType := strings.TrimSpace(c.FormValue("media_type"))
	if mediaType != media.KindImage && mediaType != media.KindVideo {
		return httputil.Fail(c, apierr.BadRequest("media_type must be image or video"))
	}
	sourceURL := strings.TrimSpace(c.FormValue("source_url"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid upload"))
	}

	maxBytes := h.container.Config.Blob.ImageMaxBytes
	if mediaType == media.KindVideo {
		maxBytes = h.container.Config.Blob.VideoMaxBytes
	}
	if fileHeader.Size <= 0 || fileHeader.Size > maxBytes {
		return httputil.Fail(c, apierr.BadRequest("file size not allowed"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid upload"))
	}
	defer file.Close()

	head := make([]byte, media.SniffLen)
	n, _ := file.Read(head)
	head = head[:n]
	if _, err := file.Seek(0, 0); err != nil {
		return httputil.Fail(c, apierr.BadRequest("invalid upload"))
	}

	contentType, err := media.Validate(mediaType, fileHeader.Header.Get("Content-Type"), head)
	if err != nil {
		return httputil.FailErr(c, err)
	}

	if h.container.Blob == nil {
		if sourceURL != "" {
			h.container.Logger.Warn("object storage not configured, returning source url",
				"request_id", requestID(c))
			return httputil.OK(c, fiber.Map{"url": sourceURL, "fallback": true})
		}
		return httputil.Fail(c, apierr.COSNotConfigured())
	}

	key := media.BuildObjectKey(
		h.container.Config.Blob.MediaPrefix,
		mediaType,
		fileHeader.Filename,
		contentType,
	)

	ctx := c.UserContext()
	if err := h.container.Blob.Put(ctx, key, file, contentType); err != nil {
		if sourceURL != "" {
			h.container.Logger.Warn("media upload failed, returning source url",
				"request_id", requestID(c),
				"error", err,
			)
			return httputil.OK(c, fiber.Map{"url": sourceURL, "fallback": true})
		}
		h.container.Logger.Error("media upload failed",
			"request_id", requestID(c),
			"error", err,
		)
		return httputil.Fail(c, apierr.COSUploadFailed())
	}

	access, err := h.container.Blob.AccessURL(ctx, key)
	if err != nil {
		if sourceURL != "" {
			h.container.Logger.Warn("media upload failed, returning source url",
				"request_id", requestID(c),
				"error", err,
			)
			return httputil.OK(c, fiber.Map{"url": sourceURL, "fallback": true})
		}
		return httputil.Fail(c, apierr.COSUploadFailed())
	}

	payload := fiber.Map{"url": access.URL, "signed": access.Signed}
	if access.ExpiresIn > 0 {
		payload["expires_in"] = access.ExpiresIn
	}
	return httputil.OK(c, payload)
}
