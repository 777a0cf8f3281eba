// Package runtime adapts the routing handler to the hosting frameworks: net/http servers,
// the Cloud Functions framework and AWS Lambda.
package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/dap-router/internal/handler"
	"github.com/isometry/dap-router/internal/helpers"
	"github.com/isometry/dap-router/internal/models"
	"github.com/pkg/errors"
)

// Supported Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

// PayloadTypes lists the supported Lambda payload types.
var PayloadTypes = []string{PayloadAPIGatewayV1, PayloadAPIGatewayV2, PayloadLambdaURL}

// Option is a function that applies an option to a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger instance for the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithLambdaPayloadType sets the event format expected by the Lambda handler.
func WithLambdaPayloadType(payloadType string) Option {
	return func(r *Runtime) {
		r.payloadType = payloadType
	}
}

// Runtime exposes a Handler to the supported hosting frameworks.
type Runtime struct {
	*handler.Handler
	logger      *slog.Logger
	payloadType string
}

// NewRuntime creates a new runtime instance
func NewRuntime(handler *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: handler, payloadType: PayloadAPIGatewayV2}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("method", req.Method), slog.Any("path", req.URL.Path))

	body, err := io.ReadAll(req.Body)
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(r.Handler.Unauthorized(), resp)
		return
	}

	response, err := r.Handler.Process(models.Request{
		Method:  req.Method,
		Body:    string(body),
		Headers: helpers.NormaliseHeaders(req.Header),
	})
	r.logger.Info("handled request", slog.Int("status", response.StatusCode), slog.Any("error", err))
	helpers.RespondHTTP(response, resp)
}

// Lambda is the AWS Lambda handler for the runtime. The event format is selected by the configured payload type.
// Rejected requests are answered with a 401 response; an error is only returned for events the runtime cannot decode.
func (r *Runtime) Lambda(_ context.Context, payload json.RawMessage) (any, error) {
	r.logger.Debug("received Lambda event", slog.String("payloadType", r.payloadType))

	switch r.payloadType {
	case PayloadAPIGatewayV1:
		var event events.APIGatewayProxyRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "failed to decode API Gateway v1 event")
		}
		response := r.process(event.HTTPMethod, event.Headers, event.Body, event.IsBase64Encoded)
		return events.APIGatewayProxyResponse{
			StatusCode: response.StatusCode,
			Headers:    response.Headers,
			Body:       response.Body,
		}, nil
	case PayloadAPIGatewayV2:
		var event events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "failed to decode API Gateway v2 event")
		}
		response := r.process(event.RequestContext.HTTP.Method, event.Headers, event.Body, event.IsBase64Encoded)
		return events.APIGatewayV2HTTPResponse{
			StatusCode: response.StatusCode,
			Headers:    response.Headers,
			Body:       response.Body,
		}, nil
	case PayloadLambdaURL:
		var event events.LambdaFunctionURLRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "failed to decode Lambda function URL event")
		}
		response := r.process(event.RequestContext.HTTP.Method, event.Headers, event.Body, event.IsBase64Encoded)
		return events.LambdaFunctionURLResponse{
			StatusCode: response.StatusCode,
			Headers:    response.Headers,
			Body:       response.Body,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", r.payloadType)
	}
}

func (r *Runtime) process(method string, headers map[string]string, body string, base64Encoded bool) models.Response {
	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			r.logger.Warn("failed to decode base64 request body", slog.Any("error", err))
			return r.Handler.Unauthorized()
		}
		body = string(decoded)
	}

	response, err := r.Handler.Process(models.Request{
		Method:  method,
		Body:    body,
		Headers: helpers.NormaliseHeaders(headers),
	})
	r.logger.Info("handled event", slog.Int("status", response.StatusCode), slog.Any("error", err))
	return response
}
