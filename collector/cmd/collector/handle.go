package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var handleCmd = &cobra.Command{
	Use:   "handle",
	Short: "Process a single event from a file or stdin",
	Long: `Reads one event bus envelope, runs it through the collector and prints the
outcome as JSON. With --dry-run the derived points are written to stdout in
Prometheus text format instead of being published; the execution history is
still read from CodePipeline.`,
	Example: `  collector handle --event event.json --pipeline-pattern 'team-*'
  aws events ... | collector handle --event - --dry-run`,
	Args: cobra.NoArgs,
	RunE: runHandle,
}

func init() {
	rootCmd.AddCommand(handleCmd)
	handleCmd.Flags().String("event", "", "event file, or - for stdin (required)")
	handleCmd.Flags().Bool("dry-run", false, "print points instead of publishing them")
	handleCmd.MarkFlagRequired("event") //nolint:errcheck
}

func runHandle(cmd *cobra.Command, _ []string) error {
	eventPath, _ := cmd.Flags().GetString("event")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	raw, err := readEvent(cmd.InOrStdin(), eventPath)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dryRun {
		cfg.Collector.Sink = "stdout"
	}

	c, err := build(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out, err := c.processor.Handle(cmd.Context(), raw)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.ErrOrStderr())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readEvent(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read event from stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	return raw, nil
}
