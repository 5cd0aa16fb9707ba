// Package sink publishes derived metric points.
//
// CloudWatch is the production sink. Exposition writes Prometheus text format
// for dry runs, Store keeps the latest value per metric and pipeline for the
// HTTP /metrics endpoint, and Tee fans a publish out to several sinks.
//
// Every sink skips zero-valued points, writes each point with the event
// timestamp it carries, and treats an empty slice as a no-op.
package sink

import (
	"context"
	"fmt"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Sink persists metric points.
type Sink interface {
	Publish(ctx context.Context, points []types.MetricPoint) error
}

// Tee publishes to each sink in order and stops at the first error.
type Tee []Sink

func (t Tee) Publish(ctx context.Context, points []types.MetricPoint) error {
	for i, s := range t {
		if err := s.Publish(ctx, points); err != nil {
			return fmt.Errorf("sink: tee[%d]: %w", i, err)
		}
	}
	return nil
}

// nonZero returns the points worth publishing.
func nonZero(points []types.MetricPoint) []types.MetricPoint {
	out := make([]types.MetricPoint, 0, len(points))
	for _, p := range points {
		if p.Value != 0 {
			out = append(out, p)
		}
	}
	return out
}
