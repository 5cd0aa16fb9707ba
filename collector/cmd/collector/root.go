package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipelinedash/pipelinedash/collector/internal/config"
	"github.com/pipelinedash/pipelinedash/collector/internal/gate"
	"github.com/pipelinedash/pipelinedash/collector/internal/history"
	"github.com/pipelinedash/pipelinedash/collector/internal/processor"
	"github.com/pipelinedash/pipelinedash/collector/internal/sink"
	"github.com/pipelinedash/pipelinedash/pkg/cloud"
)

// logLevel is shared by the default logger so a config reload can change it.
var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Derive delivery metrics from pipeline execution events",
	Long: `collector receives pipeline execution state-change events, reconciles each
one against the pipeline's recent execution history and publishes success and
failure counts, cycle time, lead time, MTBF, MTTR and feedback time.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "path to YAML config file (optional)")
	rootCmd.PersistentFlags().String("pipeline-pattern", "", "glob of pipeline names to process (overrides PIPELINE_PATTERN)")
	rootCmd.PersistentFlags().String("region", "", "AWS region (overrides AWS_REGION)")
	rootCmd.PersistentFlags().String("log-level", "", "debug|info|warn|error")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))                     //nolint:errcheck
	viper.BindPFlag("pipeline_pattern", rootCmd.PersistentFlags().Lookup("pipeline-pattern")) //nolint:errcheck
	viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))                     //nolint:errcheck
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))               //nolint:errcheck
}

func initConfig() {
	viper.SetEnvPrefix("PIPELINEDASH")
	viper.AutomaticEnv()

	// The Lambda deployment sets these without a prefix.
	viper.BindEnv("pipeline_pattern", "PIPELINE_PATTERN", "PIPELINEDASH_PIPELINE_PATTERN") //nolint:errcheck
	viper.BindEnv("region", "AWS_REGION", "PIPELINEDASH_REGION")                           //nolint:errcheck
}

// setupLogging installs a JSON slog handler as the process default.
func setupLogging(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

// overrides layers environment and flag values over the config file.
func overrides() config.Override {
	return func(c *config.Config) {
		if v := viper.GetString("pipeline_pattern"); v != "" {
			c.Collector.PipelinePattern = v
		}
		if v := viper.GetString("region"); v != "" {
			c.AWS.Region = v
		}
		if v := viper.GetString("log_level"); v != "" {
			c.Log.Level = v
		}
		if v := viper.GetInt("port"); v > 0 {
			c.Collector.HTTP.Port = v
		}
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"), overrides())
	if err != nil {
		return nil, err
	}
	logLevel.Set(cfg.Log.SlogLevel())
	return cfg, nil
}

// components is everything an invocation needs.
type components struct {
	gate      *gate.Gate
	processor *processor.Processor
}

// build wires the processor from cfg. out receives exposition text when the
// configured sink is stdout; extra sinks are published to after the primary.
func build(ctx context.Context, cfg *config.Config, out io.Writer, extra ...sink.Sink) (*components, error) {
	g, err := gate.New(cfg.Collector.PipelinePattern)
	if err != nil {
		return nil, err
	}

	awsCfg, err := cloud.LoadConfig(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}
	fetcher := history.NewCodePipeline(awsCfg, cfg.Collector.HistoryPageSize)

	var primary sink.Sink
	switch cfg.Collector.Sink {
	case "stdout":
		primary = sink.NewExposition(out)
	default:
		primary = sink.NewCloudWatch(awsCfg, cfg.Collector.Namespace)
	}
	sinks := append(sink.Tee{primary}, extra...)

	p, err := processor.New(g, fetcher, sinks)
	if err != nil {
		return nil, err
	}

	slog.Info("collector: ready",
		"pipeline_pattern", cfg.Collector.PipelinePattern,
		"region", awsCfg.Region,
		"sink", cfg.Collector.Sink,
		"namespace", cfg.Collector.Namespace,
		"history_page_size", cfg.Collector.HistoryPageSize,
	)
	return &components{gate: g, processor: p}, nil
}
