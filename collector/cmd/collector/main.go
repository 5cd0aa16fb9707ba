// Command collector turns pipeline execution events into delivery metrics.
//
//	collector lambda                  run as the event bus Lambda target
//	collector handle --event ev.json  process one event from a file or stdin
//	collector serve                   accept events over HTTP, expose /metrics
package main

import (
	"os"
)

func main() {
	// Logs go to stderr so that handle --dry-run can write exposition text to stdout.
	setupLogging(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
