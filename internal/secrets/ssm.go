// Package secrets resolves the API key from its configured source: the process environment or AWS SSM Parameter Store.
package secrets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/dap-router/internal/helpers"
	"github.com/pkg/errors"
)

// ParameterGetter is the subset of the SSM client used to read parameters.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSM reads secrets from AWS SSM Parameter Store.
type SSM struct {
	ctx    context.Context
	logger *slog.Logger

	config *aws.Config
	client ParameterGetter
}

// Option defines a function type used to configure an instance of the SSM struct.
type Option func(*SSM)

// WithLogger sets a custom slog.Logger instance for the SSM struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SSM) {
		s.logger = logger
	}
}

// WithContext sets a custom context to be used by the SSM instance for request operations.
func WithContext(ctx context.Context) Option {
	return func(s *SSM) {
		s.ctx = ctx
	}
}

// WithClient replaces the SSM client, skipping AWS configuration loading.
func WithClient(client ParameterGetter) Option {
	return func(s *SSM) {
		s.client = client
	}
}

// NewSSM initializes an SSM reader. Unless a client is supplied, the default AWS configuration chain is loaded.
func NewSSM(opts ...Option) (*SSM, error) {
	_inst := &SSM{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "ssm")
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.client != nil {
		return _inst, nil
	}

	_inst.logger.Debug("loading default AWS configuration...")
	cfg, err := config.LoadDefaultConfig(_inst.ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	cfg.Logger = newAWSLogger(_inst.logger)
	_inst.config = &cfg
	_inst.client = ssm.NewFromConfig(cfg)
	return _inst, nil
}

// GetSecret retrieves a SecureString (or plain String) parameter value, decrypting it when needed.
func (s *SSM) GetSecret(name string) (string, error) {
	s.logger.With("name", name).Debug("fetching SSM secret...")
	out, err := s.client.GetParameter(s.ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to load SSM parameter %s", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("SSM parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
