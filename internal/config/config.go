// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/cast"
	"github.com/isometry/dap-router/internal/runtime"
	"github.com/isometry/dap-router/internal/secrets"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

// Runtime modes.
const (
	ModeService   = "service"
	ModeFunctions = "functions"
	ModeLambda    = "lambda"
)

// Modes lists the supported runtime modes.
var Modes = []string{ModeService, ModeFunctions, ModeLambda}

// Config holds the process-wide configuration. It is built once at startup and not modified afterwards.
type Config struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Debug enables logging of request headers, request bodies and response bodies.
	Debug bool `yaml:"debug,omitempty"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
	// APIKey is a struct that contains the configuration of the shared secret.
	APIKey struct {
		// Source selects where the key is read from: 'env' or 'ssm'.
		Source string `yaml:"source,omitempty" default:"env"`
		// Value is the key itself when Source is 'env'.
		Value string `yaml:"value,omitempty"`
		// SSMParameter is the SSM parameter holding the key when Source is 'ssm'.
		SSMParameter string `yaml:"ssmParameter,omitempty"`
	} `yaml:"apiKey,omitempty"`
	// Service is a struct that contains the configuration for the service mode.
	Service struct {
		Path    string        `yaml:"path,omitempty" default:"/"`
		Addr    string        `yaml:"addr,omitempty"`
		Port    string        `yaml:"port,omitempty" default:"8080"`
		Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
	} `yaml:"service,omitempty"`
	// Functions is a struct that contains the configuration for the Cloud Functions mode.
	Functions struct {
		Target string `yaml:"target,omitempty" default:"doRequest"`
		Addr   string `yaml:"addr,omitempty"`
		Port   string `yaml:"port,omitempty" default:"8080"`
	} `yaml:"functions,omitempty"`
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda struct {
		PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
	} `yaml:"lambda,omitempty"`
}

// New returns a configuration read from the file at path (if any) with defaults applied to unset fields.
func New(path string) (*Config, error) {
	c := &Config{}
	if err := errors.Join(
		c.LoadFromFile(path),
		c.SetDefaults(),
	); err != nil {
		return nil, err
	}
	return c, nil
}

// Environment returns the default configuration overridden by the API_KEY and DEBUG environment variables.
// It is used by entry points that are configured by their hosting platform rather than by flags.
func Environment() (*Config, error) {
	c, err := New("")
	if err != nil {
		return nil, err
	}
	v := viper.New()
	_ = v.BindEnv("api_key", "API_KEY")
	_ = v.BindEnv("debug", "DEBUG")
	c.APIKey.Value = v.GetString("api_key")
	c.Debug = Truthy(v.GetString("debug"))
	return c, nil
}

// Truthy reports whether an environment value enables a switch: any value counts as true unless it is
// empty or parses as a false boolean ("0", "f", "false", ...).
func Truthy(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	b, err := cast.ToBoolE(value)
	return err != nil || b
}

// LogVerbosity returns the configured verbosity, raised to at least 1 in debug mode so that the
// info-level payload records are emitted.
func (c *Config) LogVerbosity() int {
	if c.Debug && c.Logging.Verbosity < 1 {
		return 1
	}
	return c.Logging.Verbosity
}

// SetDefaults sets the default values for the configuration.
func (c *Config) SetDefaults() error {
	return defaults.Set(c)
}

// LoadFromFile loads the configuration from a file. A missing file is ignored.
func (c *Config) LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	if err = yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	return nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(Modes, c.Mode) {
		errs = append(errs, fmt.Errorf("invalid mode: %s", c.Mode))
	}
	switch c.APIKey.Source {
	case secrets.SourceEnv:
	case secrets.SourceSSM:
		if c.APIKey.SSMParameter == "" {
			errs = append(errs, errors.New("api key source ssm requires an SSM parameter name"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid api key source: %s", c.APIKey.Source))
	}
	if c.Mode == ModeLambda && !slices.Contains(runtime.PayloadTypes, c.Lambda.PayloadType) {
		errs = append(errs, fmt.Errorf("unsupported lambda payload type: %s", c.Lambda.PayloadType))
	}
	if c.Service.Timeout < 0 {
		errs = append(errs, fmt.Errorf("invalid service timeout: %s", c.Service.Timeout))
	}
	return errors.Join(errs...)
}
