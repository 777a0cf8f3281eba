package runtime_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/dap-router/internal/handler"
	"github.com/isometry/dap-router/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey       = "secret123"
	unauthorizedBody = `{"message": "ERROR: Unauthorized"}`
	decisionBody     = `{"dap_route": true}`
)

type testCase struct {
	Name           string
	Method         string
	Headers        map[string]string
	Body           string
	ExpectedStatus int
	ExpectedBody   string
}

var testCases = []testCase{
	{
		Name:           "valid_key",
		Method:         http.MethodPost,
		Headers:        map[string]string{"x-api-key": testAPIKey, "Content-Type": "application/json"},
		Body:           `{"session": "abc"}`,
		ExpectedStatus: http.StatusOK,
		ExpectedBody:   decisionBody,
	},
	{
		Name:           "valid_key_upper_case_header",
		Method:         http.MethodPost,
		Headers:        map[string]string{"X-API-KEY": testAPIKey},
		ExpectedStatus: http.StatusOK,
		ExpectedBody:   decisionBody,
	},
	{
		Name:           "valid_key_mixed_case_header",
		Method:         http.MethodPost,
		Headers:        map[string]string{"x-Api-Key": testAPIKey},
		ExpectedStatus: http.StatusOK,
		ExpectedBody:   decisionBody,
	},
	{
		Name:           "wrong_key",
		Method:         http.MethodPost,
		Headers:        map[string]string{"x-api-key": "wrong"},
		ExpectedStatus: http.StatusUnauthorized,
		ExpectedBody:   unauthorizedBody,
	},
	{
		Name:           "missing_key",
		Method:         http.MethodPost,
		Headers:        map[string]string{},
		ExpectedStatus: http.StatusUnauthorized,
		ExpectedBody:   unauthorizedBody,
	},
	{
		Name:           "get_with_valid_key",
		Method:         http.MethodGet,
		Headers:        map[string]string{"x-api-key": testAPIKey},
		ExpectedStatus: http.StatusUnauthorized,
		ExpectedBody:   unauthorizedBody,
	},
	{
		Name:           "delete_with_valid_key",
		Method:         http.MethodDelete,
		Headers:        map[string]string{"x-api-key": testAPIKey},
		ExpectedStatus: http.StatusUnauthorized,
		ExpectedBody:   unauthorizedBody,
	},
}

func newRuntime(t *testing.T, opts ...runtime.Option) *runtime.Runtime {
	t.Helper()
	hdl, err := handler.NewHandler(handler.WithAPIKey(testAPIKey))
	require.NoError(t, err)
	return runtime.NewRuntime(hdl, opts...)
}

func TestRuntime_ServeHTTP(t *testing.T) {
	rtm := newRuntime(t)

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			req := httptest.NewRequest(tc.Method, "/", strings.NewReader(tc.Body))
			for k, v := range tc.Headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()

			rtm.ServeHTTP(rr, req)

			assert.Equal(t, tc.ExpectedStatus, rr.Code)
			assert.JSONEq(t, tc.ExpectedBody, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestRuntime_ServeHTTPIsIdempotent(t *testing.T) {
	rtm := newRuntime(t)

	var bodies []string
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("X-Api-Key", testAPIKey)
		rr := httptest.NewRecorder()
		rtm.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		bodies = append(bodies, rr.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestRuntime_ServeHTTPBodyReadFailure(t *testing.T) {
	rtm := newRuntime(t)

	req := httptest.NewRequest(http.MethodPost, "/", failingReader{})
	req.Header.Set("X-Api-Key", testAPIKey)
	rr := httptest.NewRecorder()

	rtm.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, unauthorizedBody, rr.Body.String())
}

func TestRuntime_Lambda(t *testing.T) {
	payloads := map[string]func(tc testCase) any{
		runtime.PayloadAPIGatewayV1: func(tc testCase) any {
			return events.APIGatewayProxyRequest{
				HTTPMethod: tc.Method,
				Headers:    tc.Headers,
				Body:       tc.Body,
			}
		},
		runtime.PayloadAPIGatewayV2: func(tc testCase) any {
			return events.APIGatewayV2HTTPRequest{
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: tc.Method},
				},
				Headers: tc.Headers,
				Body:    tc.Body,
			}
		},
		runtime.PayloadLambdaURL: func(tc testCase) any {
			return events.LambdaFunctionURLRequest{
				RequestContext: events.LambdaFunctionURLRequestContext{
					HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{Method: tc.Method},
				},
				Headers: tc.Headers,
				Body:    tc.Body,
			}
		},
	}

	for payloadType, build := range payloads {
		rtm := newRuntime(t, runtime.WithLambdaPayloadType(payloadType))
		for _, tc := range testCases {
			t.Run(payloadType+"/"+tc.Name, func(t *testing.T) {
				payload, err := json.Marshal(build(tc))
				require.NoError(t, err)

				out, err := rtm.Lambda(context.Background(), payload)
				require.NoError(t, err)

				status, body := lambdaResponse(t, out)
				assert.Equal(t, tc.ExpectedStatus, status)
				assert.JSONEq(t, tc.ExpectedBody, body)
			})
		}
	}
}

func TestRuntime_LambdaBase64Body(t *testing.T) {
	rtm := newRuntime(t, runtime.WithLambdaPayloadType(runtime.PayloadAPIGatewayV2))

	testCases := []struct {
		Name           string
		Body           string
		ExpectedStatus int
	}{
		{Name: "valid_base64", Body: base64.StdEncoding.EncodeToString([]byte(`{"a": 1}`)), ExpectedStatus: http.StatusOK},
		{Name: "invalid_base64", Body: "%%%", ExpectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			payload, err := json.Marshal(events.APIGatewayV2HTTPRequest{
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodPost},
				},
				Headers:         map[string]string{"x-api-key": testAPIKey},
				Body:            tc.Body,
				IsBase64Encoded: true,
			})
			require.NoError(t, err)

			out, err := rtm.Lambda(context.Background(), payload)
			require.NoError(t, err)
			status, _ := lambdaResponse(t, out)
			assert.Equal(t, tc.ExpectedStatus, status)
		})
	}
}

func TestRuntime_LambdaCollidingHeaderNames(t *testing.T) {
	rtm := newRuntime(t, runtime.WithLambdaPayloadType(runtime.PayloadAPIGatewayV1))

	payload, err := json.Marshal(events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Headers: map[string]string{
			"X-Api-Key": "wrong",
			"x-api-key": testAPIKey,
		},
	})
	require.NoError(t, err)

	statuses := map[int]int{}
	for range 200 {
		out, err := rtm.Lambda(context.Background(), payload)
		require.NoError(t, err)
		status, _ := lambdaResponse(t, out)
		statuses[status]++
	}
	assert.Equal(t, map[int]int{http.StatusUnauthorized: 200}, statuses)
}

func TestRuntime_LambdaErrors(t *testing.T) {
	t.Run("unsupported_payload_type", func(t *testing.T) {
		rtm := newRuntime(t, runtime.WithLambdaPayloadType("sqs"))
		_, err := rtm.Lambda(context.Background(), json.RawMessage(`{}`))
		assert.ErrorContains(t, err, "unsupported lambda payload type")
	})

	for _, payloadType := range runtime.PayloadTypes {
		t.Run("malformed_event_"+payloadType, func(t *testing.T) {
			rtm := newRuntime(t, runtime.WithLambdaPayloadType(payloadType))
			_, err := rtm.Lambda(context.Background(), json.RawMessage(`[`))
			assert.Error(t, err)
		})
	}
}

func lambdaResponse(t *testing.T, out any) (int, string) {
	t.Helper()
	switch r := out.(type) {
	case events.APIGatewayProxyResponse:
		return r.StatusCode, r.Body
	case events.APIGatewayV2HTTPResponse:
		return r.StatusCode, r.Body
	case events.LambdaFunctionURLResponse:
		return r.StatusCode, r.Body
	default:
		t.Fatalf("unexpected lambda response type %T", out)
		return 0, ""
	}
}
