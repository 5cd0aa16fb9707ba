// Command dashboard renders and publishes the per-pipeline delivery metrics
// dashboard.
//
//	dashboard lambda     run as a scheduled Lambda function
//	dashboard publish    discover pipelines and publish the dashboard once
//	dashboard render     print the dashboard body without publishing
//	dashboard schedule   publish on a cron schedule until interrupted
package main

import (
	"os"
)

func main() {
	setupLogging(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
