// Package processor runs one event through the collector:
// decode, gate, fetch history, reconcile, derive, publish.
//
// An invocation is synchronous and keeps no state between calls. The only
// blocking work is the history fetch and the publish; derivation completes in
// memory before anything is written. Nothing is retried here, and delivering
// the same event twice publishes the same points twice.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pipelinedash/pipelinedash/collector/internal/derive"
	"github.com/pipelinedash/pipelinedash/collector/internal/event"
	"github.com/pipelinedash/pipelinedash/collector/internal/gate"
	"github.com/pipelinedash/pipelinedash/collector/internal/history"
	"github.com/pipelinedash/pipelinedash/collector/internal/reconcile"
	"github.com/pipelinedash/pipelinedash/collector/internal/sink"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Outcome summarises a successful invocation.
type Outcome struct {
	// Filtered is true when the gate rejected the event. No history was
	// fetched and nothing was published.
	Filtered bool                `json:"filtered"`
	Reason   gate.Reason         `json:"reason,omitempty"`
	Points   []types.MetricPoint `json:"points"`
	// Anomalies are duration metrics withheld because they came out negative.
	Anomalies []derive.Anomaly `json:"anomalies,omitempty"`
}

// Status is a one-word summary for logs and API responses.
func (o Outcome) Status() string {
	if o.Filtered {
		return "filtered"
	}
	return "published"
}

// Processor wires the pipeline stages together. It is safe for concurrent use.
type Processor struct {
	decoder *event.Decoder
	gate    *gate.Gate
	fetcher history.Fetcher
	sink    sink.Sink
}

// New returns a Processor. All dependencies are required.
func New(g *gate.Gate, f history.Fetcher, s sink.Sink) (*Processor, error) {
	dec, err := event.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}
	return &Processor{decoder: dec, gate: g, fetcher: f, sink: s}, nil
}

// Handle decodes a raw event payload and processes it. A payload that cannot
// be decoded returns an error matching event.ErrMalformed.
func (p *Processor) Handle(ctx context.Context, raw []byte) (Outcome, error) {
	ev, err := p.decoder.Decode(raw)
	if err != nil {
		slog.Warn("processor: rejected malformed event", "err", err)
		return Outcome{}, err
	}
	return p.HandleEvent(ctx, ev)
}

// HandleEvent processes an already-decoded event. Errors from the history
// fetch and the publish are returned as cloud.UpstreamError.
func (p *Processor) HandleEvent(ctx context.Context, ev types.ExecutionEvent) (Outcome, error) {
	log := slog.With(
		"invocation_id", uuid.NewString(),
		"pipeline", ev.PipelineName,
		"execution_id", ev.ExecutionID,
		"state", ev.State,
	)

	if d := p.gate.Admit(ev); !d.Admitted {
		log.Info("processor: event filtered", "reason", d.Reason)
		return Outcome{Filtered: true, Reason: d.Reason}, nil
	}

	all, err := p.fetcher.List(ctx, ev.PipelineName)
	if err != nil {
		log.Error("processor: history fetch failed", "err", err)
		return Outcome{}, fmt.Errorf("processor: fetch history: %w", err)
	}
	terminal := history.Terminal(all)
	log.Debug("processor: history fetched", "entries", len(all), "terminal", len(terminal))

	refs := reconcile.Reconcile(terminal, ev.ExecutionID)
	if refs.Current == nil {
		log.Warn("processor: execution not found in history; counting from event state")
	} else {
		log.Debug("processor: reconciled",
			"current_status", refs.Current.Status,
			"prior_state", executionID(refs.PriorState),
			"prior_success", executionID(refs.PriorSuccess),
			"prior_success_plus_one", executionID(refs.PriorSuccessPlusOne),
			"final_state", refs.IsFinalState,
		)
	}

	d := derive.Derive(ev, refs)
	for _, a := range d.Anomalies {
		log.Warn("processor: negative duration withheld", "metric", a.Metric, "seconds", a.Seconds)
	}

	if err := p.sink.Publish(ctx, d.Points); err != nil {
		log.Error("processor: publish failed", "points", len(d.Points), "err", err)
		return Outcome{}, fmt.Errorf("processor: publish: %w", err)
	}
	log.Info("processor: metrics published", "points", len(d.Points))

	return Outcome{Points: d.Points, Anomalies: d.Anomalies}, nil
}

func executionID(e *types.ExecutionSummary) string {
	if e == nil {
		return ""
	}
	return e.ID
}
