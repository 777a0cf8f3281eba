package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run the routing handler as an AWS Lambda function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLambda(cmd)
		},
	}
}

func runLambda(cmd *cobra.Command) error {
	rtm, err := setup(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to setup lambda")
	}

	logger.Info("lambda starting...", "payloadType", cfg.Lambda.PayloadType)
	lambda.StartWithOptions(rtm.Lambda,
		lambda.WithContext(cmd.Context()))
	return nil
}
