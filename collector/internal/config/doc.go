// Package config loads and watches the collector configuration file.
//
// Top-level types:
//   - Config{Collector, AWS, Log}: full config tree parsed from YAML
//   - CollectorConfig: pipeline_pattern, namespace, history_page_size,
//     sink (cloudwatch|stdout), http, store
//   - HTTPConfig / AuthConfig: event receiver port and API key auth;
//     Key() resolves the expected key from the environment variable named
//     by key_env
//   - StoreConfig: TTL of the in-memory point store behind /metrics
//
// Load(path, overrides...) starts from defaults (namespace "Pipeline", 100
// history entries, cloudwatch sink, port 8080, 1h store TTL), merges the YAML
// file when path is non-empty, applies the overrides (environment and flags),
// then validates required fields and enums. The pipeline pattern is required
// and must be a well-formed glob.
//
// Watch(ctx, path, running, onChange, overrides...) uses fsnotify on the
// file's directory to detect changes, including rename-based saves. Diff
// splits each change into keys applied live (pipeline pattern, log level)
// and keys that wait for a restart; onChange only fires for the former.
package config
