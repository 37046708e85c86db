// Package video holds the task-handle and status normalization rules shared
// by the video generation and status endpoints.
package video

import (
	"regexp"
	"strings"
)

// Upstream task ids are opaque but must fit a strict shape before they are
// trusted, echoed to clients, or used in a status lookup URL.
var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9:_-]{7,127}$`)

var statusMap = map[string]string{
	"NOT_START":   StatusQueued,
	"IN_PROGRESS": StatusRunning,
	"SUCCESS":     StatusSucceeded,
	"FAILURE":     StatusFailed,
}

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const maxErrorMessageLen = 200

// IsValidTaskID reports whether a task id matches the trusted format.
func IsValidTaskID(taskID string) bool {
	return taskIDPattern.MatchString(taskID)
}

// MaskTaskID redacts a task id for log output. Short ids keep a 3-char
// prefix; longer ids keep a 6-char prefix and 4-char suffix.
func MaskTaskID(taskID string) string {
	if taskID == "" {
		return ""
	}
	if len(taskID) <= 10 {
		return taskID[:min(3, len(taskID))] + "***"
	}
	return taskID[:6] + "***" + taskID[len(taskID)-4:]
}

// NormalizeStatus maps the upstream status enumeration onto the API's stable
// set. A blank status means the job has not been acknowledged yet (queued);
// any unknown non-empty value is treated as still running.
func NormalizeStatus(status string) string {
	if strings.TrimSpace(status) == "" {
		return StatusQueued
	}
	if normalized, ok := statusMap[strings.ToUpper(status)]; ok {
		return normalized
	}
	return StatusRunning
}

// SanitizeErrorMessage collapses whitespace and truncates the upstream
// failure reason so verbose diagnostics never reach the caller.
func SanitizeErrorMessage(message string) string {
	sanitized := strings.Join(strings.Fields(message), " ")
	if len(sanitized) > maxErrorMessageLen {
		sanitized = sanitized[:maxErrorMessageLen]
	}
	return sanitized
}

// ExtractVideoURL pulls the playable URL out of the upstream status payload.
func ExtractVideoURL(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"output", "video_url"} {
		if value, ok := m[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
