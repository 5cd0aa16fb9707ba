package sink

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// LabelPipeline is the label carrying the pipeline name in text exposition.
const LabelPipeline = "pipeline_name"

// FamilyName maps a metric name onto a Prometheus family name, e.g.
// RedTime -> pipeline_red_time_seconds, SuccessCount -> pipeline_success_count.
func FamilyName(name types.MetricName) string {
	var b strings.Builder
	b.WriteString("pipeline")
	for _, r := range string(name) {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	if name.Unit() == types.UnitSeconds {
		b.WriteString("_seconds")
	}
	return b.String()
}

// Families groups points into gauge families, one per metric name, sorted by
// family name. Samples carry the point timestamp in milliseconds.
func Families(points []types.MetricPoint) []*dto.MetricFamily {
	byName := make(map[string]*dto.MetricFamily)
	for _, p := range nonZero(points) {
		fam := FamilyName(p.Name)
		mf, ok := byName[fam]
		if !ok {
			mf = &dto.MetricFamily{
				Name: proto.String(fam),
				Help: proto.String(fmt.Sprintf("%s per pipeline (%s).", p.Name, p.Unit)),
				Type: dto.MetricType_GAUGE.Enum(),
			}
			byName[fam] = mf
		}
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{{
				Name:  proto.String(LabelPipeline),
				Value: proto.String(p.PipelineName),
			}},
			Gauge:       &dto.Gauge{Value: proto.Float64(float64(p.Value))},
			TimestampMs: proto.Int64(p.Timestamp.UnixMilli()),
		})
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*dto.MetricFamily, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}

// WriteText writes points to w in the Prometheus text format.
func WriteText(w io.Writer, points []types.MetricPoint) error {
	for _, mf := range Families(points) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("sink: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Exposition is a Sink that writes each publish to an io.Writer in text
// format. It backs dry runs, where nothing is sent to CloudWatch.
type Exposition struct {
	mu sync.Mutex
	w  io.Writer
}

// NewExposition returns an Exposition writing to w.
func NewExposition(w io.Writer) *Exposition {
	return &Exposition{w: w}
}

func (e *Exposition) Publish(_ context.Context, points []types.MetricPoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return WriteText(e.w, points)
}
