package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Discover pipelines and publish the dashboard once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return a.refresh(cmd.Context())
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the dashboard body to stdout without publishing it",
	Long: `Discovers pipelines (or takes them from --pipeline) and prints the
dashboard body as indented JSON. Nothing is written to CloudWatch.`,
	Example: `  dashboard render --region eu-west-1
  dashboard render --region eu-west-1 --pipeline team-api --pipeline team-web`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringSlice("pipeline", nil, "pipeline to lay out, repeatable; skips discovery")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if pipelines, _ := cmd.Flags().GetStringSlice("pipeline"); len(pipelines) > 0 {
		a.lister = staticPipelines(pipelines)
	}

	d, err := a.render(cmd.Context())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("dashboard: write body: %w", err)
	}
	return nil
}

// staticPipelines lays out a fixed list instead of discovering one.
type staticPipelines []string

func (s staticPipelines) Pipelines(context.Context) ([]string, error) { return s, nil }
