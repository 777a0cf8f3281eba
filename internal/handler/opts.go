package handler

import (
	"log/slog"

	"github.com/isometry/dap-router/internal/auth"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithAPIKey sets the secret callers must present in the X-Api-Key header.
func WithAPIKey(key string) Option {
	return func(h *Handler) {
		h.apiKey = auth.NewAPIKey(key)
	}
}

// WithDebug enables logging of request headers, request bodies and response bodies.
func WithDebug(enabled bool) Option {
	return func(h *Handler) {
		h.debug = enabled
	}
}
