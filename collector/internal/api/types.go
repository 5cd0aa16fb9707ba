package api

import (
	"github.com/pipelinedash/pipelinedash/collector/internal/derive"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// EventResponse is the payload for POST /api/v1/events.
type EventResponse struct {
	// Outcome is "published" or "filtered".
	Outcome   string              `json:"outcome"`
	Reason    string              `json:"reason,omitempty"`
	Points    []types.MetricPoint `json:"points"`
	Anomalies []derive.Anomaly    `json:"anomalies,omitempty"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	SeriesCount int    `json:"series_count"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
