package cmd

import (
	"time"

	"github.com/isometry/dap-router/internal/config"
	"github.com/isometry/dap-router/internal/helpers"
)

func envMapString(c *config.Config) map[*string]boundEnvVar[string] {
	return map[*string]boundEnvVar[string]{
		&c.Mode: {
			Name:        "mode",
			Description: "The application runtime mode. Possible values are 'service', 'functions' and 'lambda'",
			Short:       helpers.Ptr("m"),
		},
		&c.APIKey.Value: {
			Name:        "api-key",
			Description: "The secret callers must present in the X-Api-Key header",
			Hidden:      true,
		},
		&c.APIKey.Source: {
			Name:        "api-key-source",
			Description: "Where the API key is read from. Supported values are 'env' and 'ssm'",
			Short:       helpers.Ptr("A"),
		},
		&c.APIKey.SSMParameter: {
			Name:        "api-key-ssm-parameter",
			Description: "The SSM parameter holding the API key when the source is 'ssm'",
		},
		&c.Service.Addr: {
			Name:        "service-host-addr",
			Description: "The address to serve the service on (default all interfaces in dual-stack mode)",
			Short:       helpers.Ptr("H"),
		},
		&c.Service.Port: {
			Name:        "service-host-port",
			Description: "The port to serve the service on",
			Short:       helpers.Ptr("p"),
		},
		&c.Service.Path: {
			Name:        "service-host-path",
			Description: "The path to serve the service on",
			Short:       helpers.Ptr("P"),
		},
		&c.Functions.Target: {
			Name:        "functions-target",
			Description: "The Cloud Functions entry point name",
			Env:         helpers.Ptr("FUNCTION_TARGET"),
		},
		&c.Functions.Port: {
			Name:        "functions-port",
			Description: "The port the Cloud Functions framework listens on",
			Env:         helpers.Ptr("PORT"),
		},
		&c.Lambda.PayloadType: {
			Name:        "lambda-payload-type",
			Description: "The payload type to expect when running in Lambda mode. Supported values are 'api-gateway-v1', 'api-gateway-v2' and 'lambda-url'",
		},
	}
}

func envMapBool(c *config.Config) map[*bool]boundEnvVar[bool] {
	return map[*bool]boundEnvVar[bool]{
		&c.Debug: {
			Name:        "debug",
			Description: "Log request headers, request bodies and response bodies",
			Short:       helpers.Ptr("d"),
		},
		&c.Logging.CallerTrace: {
			Name:        "verbosity-caller-trace",
			Description: "Enable caller trace in logs",
			Short:       helpers.Ptr("V"),
		},
	}
}

func envMapCount(c *config.Config) map[*int]boundEnvVar[int] {
	return map[*int]boundEnvVar[int]{
		&c.Logging.Verbosity: {
			Name:        "verbosity",
			Description: "Increase logger verbosity (default WarnLevel)",
			Short:       helpers.Ptr("v"),
		},
	}
}

func envMapDuration(c *config.Config) map[*time.Duration]boundEnvVar[time.Duration] {
	return map[*time.Duration]boundEnvVar[time.Duration]{
		&c.Service.Timeout: {
			Name:        "service-io-timeout",
			Description: "The timeout for I/O operations",
			Short:       helpers.Ptr("t"),
		},
	}
}
