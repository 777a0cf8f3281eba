package cmd

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/isometry/dap-router/internal/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdFunctions() *cobra.Command {
	return &cobra.Command{
		Use:     "functions",
		Aliases: []string{"gcf", "cloud-functions"},
		Short:   "Serve the routing handler through the Cloud Functions framework",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFunctions(cmd)
		},
	}
}

func runFunctions(cmd *cobra.Command) error {
	rtm, err := setup(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to setup functions framework")
	}
	logger.Info("serving...", "target", cfg.Functions.Target, "port", cfg.Functions.Port)
	return serveFunction(rtm, cfg.Functions.Target, cfg.Functions.Addr, cfg.Functions.Port)
}

// serveFunction registers rtm as target and blocks serving it through the Functions Framework.
// A target may only be registered once per process.
func serveFunction(rtm *runtime.Runtime, target, addr, port string) error {
	functions.HTTP(target, rtm.ServeHTTP)
	// the framework serves only FUNCTION_TARGET at "/"
	if err := os.Setenv("FUNCTION_TARGET", target); err != nil {
		return errors.Wrap(err, "failed to select function target")
	}

	if err := funcframework.StartHostPort(addr, port); err != nil {
		return errors.Wrap(err, "functions framework stopped")
	}
	return nil
}
