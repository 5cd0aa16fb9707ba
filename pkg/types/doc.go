// Package types defines shared Go types used by both the collector and the
// dashboard binaries: the inbound execution event, the execution history
// summaries returned by the pipeline service, and the metric points written
// to the metric store.
//
// Status vocabularies are closed enumerations. The event vocabulary
// (SUCCEEDED, FAILED, ...) and the history vocabulary (Succeeded, Failed, ...)
// differ lexically but denote the same two terminal outcomes; EventState.Outcome
// maps one onto the other.
//
// Series is the fixed, ordered list of metric series charted on the dashboard.
package types
