package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/pipelinedash/pipelinedash/collector/internal/processor"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as the Lambda target of the execution state-change rule",
	Long: `Starts the Lambda runtime loop. Each invocation receives one event bus
envelope. A filtered event completes successfully; a malformed event or a
failed AWS call fails the invocation so the platform can redeliver it.`,
	Args: cobra.NoArgs,
	RunE: runLambda,
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := build(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	lambda.Start(lambdaHandler(c.processor))
	return nil
}

// lambdaHandler adapts a processor to the Lambda handler signature.
func lambdaHandler(p *processor.Processor) func(context.Context, json.RawMessage) (processor.Outcome, error) {
	return func(ctx context.Context, raw json.RawMessage) (processor.Outcome, error) {
		return p.Handle(ctx, raw)
	}
}
