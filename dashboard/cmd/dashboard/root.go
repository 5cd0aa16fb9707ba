package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipelinedash/pipelinedash/dashboard/internal/builder"
	"github.com/pipelinedash/pipelinedash/dashboard/internal/config"
	"github.com/pipelinedash/pipelinedash/dashboard/internal/discovery"
	"github.com/pipelinedash/pipelinedash/dashboard/internal/publisher"
	"github.com/pipelinedash/pipelinedash/pkg/cloud"
)

var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Publish a CloudWatch dashboard of pipeline delivery metrics",
	Long: `dashboard discovers every pipeline that published delivery metrics in the
last three hours and overwrites a single dashboard with one single-value
widget per pipeline plus a legend explaining each number.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "path to YAML config file (optional)")
	rootCmd.PersistentFlags().String("region", "", "AWS region (overrides AWS_REGION)")
	rootCmd.PersistentFlags().String("name", "", "dashboard name (default Pipelines-<region>)")
	rootCmd.PersistentFlags().String("log-level", "", "debug|info|warn|error")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))       //nolint:errcheck
	viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))       //nolint:errcheck
	viper.BindPFlag("name", rootCmd.PersistentFlags().Lookup("name"))           //nolint:errcheck
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")) //nolint:errcheck
}

func initConfig() {
	viper.SetEnvPrefix("PIPELINEDASH")
	viper.AutomaticEnv()
	viper.BindEnv("region", "AWS_REGION", "PIPELINEDASH_REGION") //nolint:errcheck
}

func setupLogging(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

func overrides() config.Override {
	return func(c *config.Config) {
		if v := viper.GetString("region"); v != "" {
			c.AWS.Region = v
		}
		if v := viper.GetString("name"); v != "" {
			c.Dashboard.Name = v
		}
		if v := viper.GetString("log_level"); v != "" {
			c.Log.Level = v
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

// pipelineLister is satisfied by *discovery.Discoverer.
type pipelineLister interface {
	Pipelines(ctx context.Context) ([]string, error)
}

// dashboardWriter is satisfied by *publisher.Publisher.
type dashboardWriter interface {
	Publish(ctx context.Context, name string, d builder.Dashboard) ([]publisher.ValidationMessage, error)
}

// app runs one discover, build, publish cycle.
type app struct {
	lister pipelineLister
	writer dashboardWriter
	layout builder.Layout
	name   string
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	awsCfg, err := cloud.LoadConfig(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}
	if awsCfg.Region == "" {
		return nil, fmt.Errorf("dashboard: no AWS region configured; set --region or AWS_REGION")
	}

	a := &app{
		lister: discovery.New(awsCfg, cfg.Dashboard.Namespace, cfg.Dashboard.RecentlyActive),
		writer: publisher.New(awsCfg),
		layout: builder.Layout{
			Namespace: cfg.Dashboard.Namespace,
			Region:    awsCfg.Region,
			Period:    cfg.Dashboard.PeriodSeconds(),
		},
		name: cfg.Dashboard.EffectiveName(awsCfg.Region),
	}
	slog.Info("dashboard: ready",
		"dashboard", a.name,
		"region", awsCfg.Region,
		"namespace", cfg.Dashboard.Namespace,
		"period_seconds", a.layout.Period,
	)
	return a, nil
}

func (a *app) render(ctx context.Context) (builder.Dashboard, error) {
	pipelines, err := a.lister.Pipelines(ctx)
	if err != nil {
		return builder.Dashboard{}, fmt.Errorf("dashboard: discover pipelines: %w", err)
	}
	if len(pipelines) == 0 {
		slog.Warn("dashboard: no recently active pipelines; publishing legend only")
	}
	return a.layout.Build(pipelines), nil
}

func (a *app) refresh(ctx context.Context) error {
	d, err := a.render(ctx)
	if err != nil {
		return err
	}
	if _, err := a.writer.Publish(ctx, a.name, d); err != nil {
		return fmt.Errorf("dashboard: publish %s: %w", a.name, err)
	}
	return nil
}
