// Package handler authenticates routing requests and produces the routing decision.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/isometry/dap-router/internal/auth"
	"github.com/isometry/dap-router/internal/helpers"
	"github.com/isometry/dap-router/internal/models"
)

// UnauthorizedMessage is the body message of every rejected request.
const UnauthorizedMessage = "ERROR: Unauthorized"

// Option is a function that applies an option to a Handler.
type Option func(*Handler)

// Handler validates the caller's API key and answers with the routing decision.
// It holds no mutable state and is safe for concurrent use.
type Handler struct {
	logger *slog.Logger
	apiKey *auth.APIKey
	debug  bool

	decision     []byte
	unauthorized []byte
}

// NewHandler creates a Handler configured with the given options.
func NewHandler(options ...Option) (*Handler, error) {
	_inst := &Handler{
		logger: helpers.NewNoopLogger(),
		apiKey: auth.NewAPIKey(""),
	}
	for _, opt := range options {
		opt(_inst)
	}

	var err error
	if _inst.decision, err = json.Marshal(models.Decision{DapRoute: true}); err != nil {
		return nil, err
	}
	if _inst.unauthorized, err = json.Marshal(models.Message{Message: UnauthorizedMessage}); err != nil {
		return nil, err
	}

	if _inst.apiKey.IsEmpty() {
		_inst.logger.Warn("no API key configured: only requests with an empty x-api-key header will be accepted")
	}
	return _inst, nil
}

// Process handles a single request. Only POST requests carrying the configured API key are routed;
// everything else receives the same 401 response. The returned error describes why a request was
// rejected and must not be exposed to the caller.
func (h *Handler) Process(req models.Request) (models.Response, error) {
	if req.Method != http.MethodPost {
		h.logger.Warn("rejecting request", slog.String("reason", "method not allowed"), slog.String("method", req.Method))
		return h.Unauthorized(), &UnauthorizedError{Reason: "method not allowed: " + req.Method}
	}

	if h.debug {
		h.logger.Info("request headers", slog.Any("headers", req.Headers))
	}

	if err := h.apiKey.Validate(req.Headers); err != nil {
		h.logger.Warn("rejecting request", slog.String("reason", err.Error()))
		return h.Unauthorized(), &UnauthorizedError{Reason: "invalid api key", Err: err}
	}

	if h.debug {
		h.logger.Info("request body", slog.String("body", req.Body))
	}

	resp := h.respond(http.StatusOK, h.decision)
	if h.debug {
		h.logger.Info("response body", slog.String("body", resp.Body))
	}
	return resp, nil
}

// Unauthorized returns the response sent for every rejected request.
func (h *Handler) Unauthorized() models.Response {
	return h.respond(http.StatusUnauthorized, h.unauthorized)
}

func (h *Handler) respond(statusCode int, body []byte) models.Response {
	return models.Response{
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
		StatusCode: statusCode,
	}
}
