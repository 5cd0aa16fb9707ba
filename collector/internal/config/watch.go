package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Reload is the difference between the running config and a re-read file.
type Reload struct {
	Config *Config
	// Applied lists changed keys that take effect without a restart.
	Applied []string
	// Ignored lists changed keys that only take effect after a restart.
	Ignored []string
}

// Diff compares running against updated. Only collector.pipeline_pattern and
// log.level are hot-reloadable; every other changed key lands in Ignored.
func Diff(running, updated *Config) Reload {
	r := Reload{Config: updated}
	hot := func(key string, a, b any) {
		if a != b {
			r.Applied = append(r.Applied, key)
		}
	}
	cold := func(key string, a, b any) {
		if a != b {
			r.Ignored = append(r.Ignored, key)
		}
	}

	o, n := running.Collector, updated.Collector
	hot("collector.pipeline_pattern", o.PipelinePattern, n.PipelinePattern)
	hot("log.level", running.Log.Level, updated.Log.Level)

	cold("collector.namespace", o.Namespace, n.Namespace)
	cold("collector.history_page_size", o.HistoryPageSize, n.HistoryPageSize)
	cold("collector.sink", o.Sink, n.Sink)
	cold("collector.http.port", o.HTTP.Port, n.HTTP.Port)
	cold("collector.http.auth", o.HTTP.Auth, n.HTTP.Auth)
	cold("collector.store.ttl", o.Store.TTL, n.Store.TTL)
	cold("aws.region", running.AWS.Region, updated.AWS.Region)
	return r
}

// Watch re-reads path whenever it changes and calls onChange when a
// hot-reloadable key differs from the running config. overrides are
// re-applied on every reload so flags and environment keep precedence over
// the file. Changes to other keys are logged and otherwise ignored. A file
// that fails to load leaves the running config in place. Watch blocks until
// ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename keep being observed.
func Watch(ctx context.Context, path string, running *Config, onChange func(Reload), overrides ...Override) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}
	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			updated, err := Load(path, overrides...)
			if err != nil {
				slog.Error("config: reload failed, keeping running config", "path", path, "err", err)
				continue
			}

			r := Diff(running, updated)
			if len(r.Ignored) > 0 {
				slog.Warn("config: changes need a restart", "path", path, "keys", r.Ignored)
			}
			if len(r.Applied) == 0 {
				slog.Debug("config: no hot-reloadable change", "path", path)
				continue
			}
			next := *running
			next.Collector.PipelinePattern = updated.Collector.PipelinePattern
			next.Log.Level = updated.Log.Level
			running = &next
			onChange(r)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
