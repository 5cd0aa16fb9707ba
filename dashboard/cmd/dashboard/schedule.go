package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipelinedash/pipelinedash/dashboard/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Publish the dashboard on a cron schedule until interrupted",
	Long: `Publishes once at startup, then again on every tick of --schedule
(dashboard.schedule, default @hourly). A failed run is logged and retried on
the next tick.`,
	Example: `  dashboard schedule --schedule '*/30 * * * *'`,
	Args:    cobra.NoArgs,
	RunE:    runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().String("schedule", "", "cron spec (overrides dashboard.schedule)")
	viper.BindPFlag("schedule", scheduleCmd.Flags().Lookup("schedule")) //nolint:errcheck
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec := cfg.Dashboard.Schedule
	if s := viper.GetString("schedule"); s != "" {
		spec = s
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	return schedule.Run(ctx, spec, a.refresh, schedule.Immediately())
}
