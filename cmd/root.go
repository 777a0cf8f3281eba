// Package cmd provides the entrypoint for the dap-router cli.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/isometry/dap-router/internal/config"
	"github.com/isometry/dap-router/internal/handler"
	"github.com/isometry/dap-router/internal/helpers"
	"github.com/isometry/dap-router/internal/runtime"
	"github.com/isometry/dap-router/internal/secrets"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFilePath string
	cfg            *config.Config
	logger         *slog.Logger
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for the dap-router.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dap-router",
		Short:        "Authenticates DAP routing requests and answers with the routing decision",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd != cmd.Root() {
				cfg.Mode = cmd.Name()
			}
			cfg.Mode = strings.TrimSpace(cfg.Mode)
			logger = newLogger(cfg).With("mode", cfg.Mode)
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch cfg.Mode {
			case config.ModeService:
				return runService(cmd)
			case config.ModeFunctions:
				return runFunctions(cmd)
			case config.ModeLambda:
				return runLambda(cmd)
			default:
				return fmt.Errorf("invalid mode: %s", cfg.Mode)
			}
		},
	}

	// Root command flags
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "config.yaml", "path to the configuration file")

	// Configuration loading & defaults
	var err error
	if cfg, err = config.New(configPath(os.Args[1:])); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdService(),
		cmdFunctions(),
		cmdLambda(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString(cfg))
	bindEnvMap(cmd, envMapBool(cfg))
	bindEnvMap(cmd, envMapCount(cfg))
	bindEnvMap(cmd, envMapDuration(cfg))
}

// configPath extracts the configuration file path from args ahead of full flag parsing, so that file values
// can act as flag defaults.
func configPath(args []string) string {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	path := fs.StringP("config", "c", "config.yaml", "")
	_ = fs.Parse(args)
	return *path
}

func newLogger(c *config.Config) *slog.Logger {
	return helpers.NewLogger(os.Stdout, c.LogVerbosity(), c.Logging.CallerTrace)
}

// setup resolves the API key and builds the runtime shared by every mode.
func setup(ctx context.Context) (*runtime.Runtime, error) {
	var getter secrets.Getter
	if cfg.APIKey.Source == secrets.SourceSSM {
		logger.Debug("creating SSM client...")
		ssm, err := secrets.NewSSM(
			secrets.WithContext(ctx),
			secrets.WithLogger(logger.With("component", "secrets")))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create SSM client")
		}
		getter = ssm
	}
	apiKey, err := secrets.ResolveAPIKey(cfg.APIKey.Source, cfg.APIKey.Value, cfg.APIKey.SSMParameter, getter)
	if err != nil {
		return nil, err
	}

	logger.Debug("creating routing handler...")
	hdl, err := handler.NewHandler(
		handler.WithAPIKey(apiKey),
		handler.WithDebug(cfg.Debug),
		handler.WithLogger(logger.With("component", "handler")))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create routing handler")
	}

	logger.Debug("creating runtime...")
	return runtime.NewRuntime(hdl,
		runtime.WithLambdaPayloadType(cfg.Lambda.PayloadType),
		runtime.WithLogger(logger.With("component", "runtime"))), nil
}
