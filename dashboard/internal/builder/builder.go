// Package builder renders the per-pipeline CloudWatch dashboard body.
//
// The layout is fixed: one single-value metric widget per pipeline stacked
// down the left edge, followed by one text widget per charted series
// explaining what the number means.
package builder

import (
	"encoding/json"
	"fmt"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Grid geometry, in dashboard grid units.
const (
	MetricWidth  = 21
	MetricHeight = 3
	LegendWidth  = 4
	LegendHeight = 2
)

// Widget types and views used by the layout.
const (
	WidgetMetric = "metric"
	WidgetText   = "text"
	ViewSingle   = "singleValue"

	// sameAsAbove repeats the value in the same column of the previous row.
	sameAsAbove = "."
)

// Dashboard is the JSON document accepted by PutDashboard.
type Dashboard struct {
	Widgets []Widget `json:"widgets"`
}

// Widget is one positioned tile. Properties is *MetricProperties or
// *TextProperties depending on Type.
type Widget struct {
	Type       string `json:"type"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Properties any    `json:"properties"`
}

// MetricProperties configures a metric widget. Each Metrics row is
// [namespace, metric, dimension name, dimension value, RenderOptions].
type MetricProperties struct {
	View    string  `json:"view"`
	Metrics [][]any `json:"metrics"`
	Region  string  `json:"region"`
	Title   string  `json:"title"`
	Period  int     `json:"period"`
}

// RenderOptions is the trailing object of a metric row.
type RenderOptions struct {
	Label string          `json:"label"`
	Stat  types.Statistic `json:"stat"`
	Color string          `json:"color"`
}

// TextProperties configures a text widget.
type TextProperties struct {
	Markdown string `json:"markdown"`
}

// Layout holds the values shared by every widget on the dashboard.
type Layout struct {
	Namespace string
	Region    string
	// Period is the aggregation window in seconds.
	Period int
}

// Build lays out pipelines in the given order using the default namespace.
func Build(pipelines []string, region string, period int) Dashboard {
	return Layout{Namespace: types.Namespace, Region: region, Period: period}.Build(pipelines)
}

// Build lays out one metric widget per pipeline, then the legend row.
func (l Layout) Build(pipelines []string) Dashboard {
	widgets := make([]Widget, 0, len(pipelines)+len(types.DashboardSeries))

	y := 0
	for _, p := range pipelines {
		widgets = append(widgets, l.metricWidget(y, p))
		y += MetricHeight
	}

	x := 0
	for _, s := range types.DashboardSeries {
		widgets = append(widgets, legendWidget(x, y, s))
		x += LegendWidth
	}

	return Dashboard{Widgets: widgets}
}

func (l Layout) metricWidget(y int, pipeline string) Widget {
	rows := make([][]any, 0, len(types.DashboardSeries))
	for i, s := range types.DashboardSeries {
		opts := RenderOptions{Label: s.Label, Stat: s.Stat, Color: s.Color}
		if i == 0 {
			rows = append(rows, []any{l.Namespace, string(s.Metric), types.Dimension, pipeline, opts})
			continue
		}
		rows = append(rows, []any{sameAsAbove, string(s.Metric), sameAsAbove, sameAsAbove, opts})
	}

	return Widget{
		Type:   WidgetMetric,
		X:      0,
		Y:      y,
		Width:  MetricWidth,
		Height: MetricHeight,
		Properties: &MetricProperties{
			View:    ViewSingle,
			Metrics: rows,
			Region:  l.Region,
			Title:   pipeline,
			Period:  l.Period,
		},
	}
}

func legendWidget(x, y int, s types.Series) Widget {
	return Widget{
		Type:       WidgetText,
		X:          x,
		Y:          y,
		Width:      LegendWidth,
		Height:     LegendHeight,
		Properties: &TextProperties{Markdown: fmt.Sprintf("### %s\n%s", s.Label, s.Description)},
	}
}

// Body encodes d as the DashboardBody string.
func (d Dashboard) Body() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("builder: encode dashboard: %w", err)
	}
	return string(b), nil
}
