package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

func parseText(t *testing.T, text string) map[string]*dto.MetricFamily {
	t.Helper()
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse exposition: %v\n%s", err, text)
	}
	return mfs
}

func TestFamilyName(t *testing.T) {
	tests := []struct {
		in   types.MetricName
		want string
	}{
		{types.SuccessCount, "pipeline_success_count"},
		{types.FailureCount, "pipeline_failure_count"},
		{types.RedTime, "pipeline_red_time_seconds"},
		{types.YellowTime, "pipeline_yellow_time_seconds"},
		{types.SuccessCycleTime, "pipeline_success_cycle_time_seconds"},
		{types.DeliveryLeadTime, "pipeline_delivery_lead_time_seconds"},
	}
	for _, tc := range tests {
		if got := FamilyName(tc.in); got != tc.want {
			t.Errorf("FamilyName(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteText(t *testing.T) {
	pts := append(points(), types.NewPoint(types.SuccessCount, 1, "other", eventTime))

	var buf bytes.Buffer
	if err := WriteText(&buf, pts); err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}
	mfs := parseText(t, buf.String())

	if len(mfs) != 3 {
		t.Fatalf("families = %d, want 3", len(mfs))
	}
	red := mfs["pipeline_red_time_seconds"]
	if red == nil || red.GetType() != dto.MetricType_GAUGE {
		t.Fatalf("red time family = %v", red)
	}
	m := red.GetMetric()[0]
	if m.GetGauge().GetValue() != 86400 {
		t.Errorf("value = %v", m.GetGauge().GetValue())
	}
	if m.GetTimestampMs() != eventTime.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", m.GetTimestampMs(), eventTime.UnixMilli())
	}
	if l := m.GetLabel(); len(l) != 1 || l[0].GetName() != LabelPipeline || l[0].GetValue() != "foobar" {
		t.Errorf("labels = %v", l)
	}
	if n := len(mfs["pipeline_success_count"].GetMetric()); n != 2 {
		t.Errorf("success count series = %d, want 2", n)
	}
}

func TestWriteText_SkipsZero(t *testing.T) {
	var buf bytes.Buffer
	pts := []types.MetricPoint{types.NewPoint(types.RedTime, 0, "foobar", eventTime)}
	if err := WriteText(&buf, pts); err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

func TestExposition_Publish(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExposition(&buf).Publish(context.Background(), points()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if !strings.Contains(buf.String(), `pipeline_success_lead_time_seconds{pipeline_name="foobar"} 260`) {
		t.Errorf("output missing lead time sample:\n%s", buf.String())
	}
}

// --- Tee ---

type recordSink struct {
	got [][]types.MetricPoint
	err error
}

func (r *recordSink) Publish(_ context.Context, pts []types.MetricPoint) error {
	r.got = append(r.got, pts)
	return r.err
}

func TestTee(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	if err := (Tee{a, b}).Publish(context.Background(), points()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("publishes = %d/%d, want 1/1", len(a.got), len(b.got))
	}
}

func TestTee_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recordSink{err: boom}, &recordSink{}
	err := (Tee{a, b}).Publish(context.Background(), points())
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if len(b.got) != 0 {
		t.Error("second sink called after first failed")
	}
}
