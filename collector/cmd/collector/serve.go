package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipelinedash/pipelinedash/collector/internal/api"
	"github.com/pipelinedash/pipelinedash/collector/internal/auth"
	"github.com/pipelinedash/pipelinedash/collector/internal/config"
	"github.com/pipelinedash/pipelinedash/collector/internal/sink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept events over HTTP and expose the latest points at /metrics",
	Long: `Runs an HTTP receiver for self-hosted event delivery:

  POST /api/v1/events   same envelope the Lambda receives
  GET  /api/v1/health
  GET  /metrics         latest published points, Prometheus text format

When --config is set the file is watched; a changed pipeline pattern or log
level takes effect without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "listen port (overrides collector.http.port)")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port")) //nolint:errcheck
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkAuth(cfg.Collector.HTTP.Auth); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Published points are kept for /metrics with background TTL eviction.
	st := sink.NewStore(cfg.Collector.Store.TTL)
	go st.Run(ctx)

	c, err := build(ctx, cfg, cmd.OutOrStdout(), st)
	if err != nil {
		return err
	}

	if path := viper.GetString("config"); path != "" {
		go func() {
			if err := config.Watch(ctx, path, cfg, func(r config.Reload) {
				if err := c.gate.SetPattern(r.Config.Collector.PipelinePattern); err != nil {
					slog.Error("collector: keeping previous pipeline pattern", "err", err)
				}
				logLevel.Set(r.Config.Log.SlogLevel())
				slog.Info("collector: config hot-reloaded",
					"keys", r.Applied,
					"pipeline_pattern", c.gate.Pattern(),
					"log_level", r.Config.Log.Level,
				)
			}, overrides()); err != nil {
				slog.Error("collector: config watcher stopped", "err", err)
			}
		}()
	}

	authCfg := cfg.Collector.HTTP.Auth
	handler := auth.APIKey(authCfg.Mode, authCfg.EffectiveHeader(), authCfg.Key())(api.New(c.processor, st))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Collector.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("collector: HTTP receiver listening", "port", cfg.Collector.HTTP.Port, "auth_mode", authCfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("collector: shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

// checkAuth refuses to start a receiver whose API key cannot be resolved.
func checkAuth(a config.AuthConfig) error {
	if a.Mode != auth.ModeAPIKey || a.Key() != "" {
		return nil
	}
	if a.KeyEnv == "" {
		return fmt.Errorf("collector.http.auth: mode apikey requires key_env")
	}
	return fmt.Errorf("collector.http.auth: mode apikey but %s is empty", a.KeyEnv)
}
