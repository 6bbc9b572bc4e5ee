package pagination

import (
	"log/slog"
	"time"
)

// LogRequest logs a scroll request with structured fields.
func LogRequest(logger *slog.Logger, requestID, sessionID string, params Params) {
	logger.Info("scroll request",
		"request_id", requestID,
		"session_id", sessionID,
		"cursor", params.Cursor,
		"limit", params.Limit)
}

// LogResponse logs a scroll response with duration and status.
func LogResponse(logger *slog.Logger, requestID string, params Params, returnedCount int, duration time.Duration, statusCode int) {
	logger.Info("scroll response",
		"request_id", requestID,
		"limit", params.Limit,
		"returned_count", returnedCount,
		"duration_ms", duration.Milliseconds(),
		"status", statusCode)
}

// LogError logs a scroll pagination error with structured fields.
func LogError(logger *slog.Logger, requestID string, params Params, err error, errorType string) {
	logger.Error("scroll error",
		"request_id", requestID,
		"cursor", params.Cursor,
		"limit", params.Limit,
		"error", err.Error(),
		"error_type", errorType)
}
