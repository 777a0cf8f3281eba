// Package daprouter exposes the routing handler as the doRequest Cloud Functions entry point.
//
// The API key is read from API_KEY and payload logging is enabled by DEBUG, both once at cold start.
package daprouter

import (
	"io"
	"net/http"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/isometry/dap-router/internal/config"
	"github.com/isometry/dap-router/internal/handler"
	"github.com/isometry/dap-router/internal/helpers"
	"github.com/isometry/dap-router/internal/runtime"
	"github.com/pkg/errors"
)

// EntryPoint is the name the function is registered under.
const EntryPoint = "doRequest"

func init() {
	c, err := config.Environment()
	if err != nil {
		panic(err)
	}
	fn, err := newEntryPoint(c, os.Stdout)
	if err != nil {
		panic(err)
	}
	functions.HTTP(EntryPoint, fn)
}

func newEntryPoint(c *config.Config, w io.Writer) (http.HandlerFunc, error) {
	logger := helpers.NewLogger(w, c.LogVerbosity(), c.Logging.CallerTrace).With("mode", config.ModeFunctions)

	hdl, err := handler.NewHandler(
		handler.WithAPIKey(c.APIKey.Value),
		handler.WithDebug(c.Debug),
		handler.WithLogger(logger.With("component", "handler")))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create routing handler")
	}

	rtm := runtime.NewRuntime(hdl, runtime.WithLogger(logger.With("component", "runtime")))
	return rtm.ServeHTTP, nil
}
