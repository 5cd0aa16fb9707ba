package builder

import (
	"encoding/json"
	"reflect"
	"testing"
)

const period30d = 60 * 60 * 24 * 30

// --- geometry ---

func TestBuild_Geometry(t *testing.T) {
	d := Build([]string{"alpha", "beta", "gamma"}, "us-east-1", period30d)

	if len(d.Widgets) != 3+7 {
		t.Fatalf("widgets = %d, want 10", len(d.Widgets))
	}
	for i, w := range d.Widgets[:3] {
		if w.Type != "metric" || w.X != 0 || w.Y != 3*i || w.Width != 21 || w.Height != 3 {
			t.Errorf("metric[%d] = %s at (%d,%d) %dx%d", i, w.Type, w.X, w.Y, w.Width, w.Height)
		}
	}
	for j, w := range d.Widgets[3:] {
		if w.Type != "text" || w.X != 4*j || w.Y != 9 || w.Width != 4 || w.Height != 2 {
			t.Errorf("legend[%d] = %s at (%d,%d) %dx%d", j, w.Type, w.X, w.Y, w.Width, w.Height)
		}
	}
}

func TestBuild_NoPipelinesLegendOnly(t *testing.T) {
	d := Build(nil, "us-east-1", period30d)
	if len(d.Widgets) != 7 {
		t.Fatalf("widgets = %d, want 7", len(d.Widgets))
	}
	for _, w := range d.Widgets {
		if w.Type != "text" || w.Y != 0 {
			t.Errorf("widget %+v, want text at y=0", w)
		}
	}
}

func TestBuild_PreservesPipelineOrder(t *testing.T) {
	d := Build([]string{"zeta", "alpha"}, "us-east-1", period30d)
	for i, want := range []string{"zeta", "alpha"} {
		p := d.Widgets[i].Properties.(*MetricProperties)
		if p.Title != want {
			t.Errorf("widget %d title = %q, want %q", i, p.Title, want)
		}
	}
}

func TestLayout_Namespace(t *testing.T) {
	d := Layout{Namespace: "Custom", Region: "eu-west-1", Period: 60}.Build([]string{"foo"})
	row := d.Widgets[0].Properties.(*MetricProperties).Metrics[0]
	if row[0] != "Custom" {
		t.Errorf("namespace column = %v, want Custom", row[0])
	}
}

// --- wire format ---

func TestBody_MetricWidget(t *testing.T) {
	body, err := Build([]string{"foo"}, "us-east-1", 60).Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	var got struct {
		Widgets []json.RawMessage `json:"widgets"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := `{
	  "type": "metric", "x": 0, "y": 0, "width": 21, "height": 3,
	  "properties": {
	    "view": "singleValue",
	    "metrics": [
	      ["Pipeline", "SuccessCount", "PipelineName", "foo", {"label": "Success Count", "stat": "Sum", "color": "#000000"}],
	      [".", "FailureCount", ".", ".", {"label": "Failed Count", "stat": "Sum", "color": "#808080"}],
	      [".", "SuccessCycleTime", ".", ".", {"label": "Cycle Time", "stat": "Average", "color": "#212ebd"}],
	      [".", "DeliveryLeadTime", ".", ".", {"label": "Lead Time", "stat": "Average", "color": "#d6721b"}],
	      [".", "YellowTime", ".", ".", {"label": "MTBF", "stat": "Average", "color": "#ffcc33"}],
	      [".", "RedTime", ".", ".", {"label": "MTTR", "stat": "Average", "color": "#d62728"}],
	      [".", "FailureLeadTime", ".", ".", {"label": "Feedback Time", "stat": "Average", "color": "#a02899"}]
	    ],
	    "region": "us-east-1",
	    "title": "foo",
	    "period": 60
	  }
	}`
	assertJSONEqual(t, got.Widgets[0], want)
}

func TestBody_LegendWidgets(t *testing.T) {
	body, err := Build([]string{"foo"}, "us-east-1", 60).Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	var got struct {
		Widgets []json.RawMessage `json:"widgets"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	assertJSONEqual(t, got.Widgets[1], `{"type": "text", "x": 0, "y": 3, "width": 4, "height": 2,
	  "properties": {"markdown": "### Success Count\ntotal number of successful pipeline executions"}}`)
	assertJSONEqual(t, got.Widgets[4], `{"type": "text", "x": 12, "y": 3, "width": 4, "height": 2,
	  "properties": {"markdown": "### Lead Time\nmean lead time from commit to production, including rework"}}`)
	assertJSONEqual(t, got.Widgets[7], `{"type": "text", "x": 24, "y": 3, "width": 4, "height": 2,
	  "properties": {"markdown": "### Feedback Time\nmean lead time for failed pipeline executions"}}`)
}

func assertJSONEqual(t *testing.T, got []byte, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("unmarshal got: %v", err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("JSON mismatch\n got: %s\nwant: %s", got, want)
	}
}
