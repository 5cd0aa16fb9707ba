// Package discovery finds the pipelines that have published metrics recently.
package discovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/pipelinedash/pipelinedash/pkg/cloud"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Discoverer lists pipeline names from metric dimensions.
type Discoverer struct {
	client         cloudwatch.ListMetricsAPIClient
	namespace      string
	recentlyActive string
}

// New builds a Discoverer from an AWS config.
func New(cfg aws.Config, namespace, recentlyActive string) *Discoverer {
	return NewWithClient(cloudwatch.NewFromConfig(cfg), namespace, recentlyActive)
}

// NewWithClient builds a Discoverer around an existing client. An empty
// namespace means types.Namespace; an empty recentlyActive lists every metric.
func NewWithClient(client cloudwatch.ListMetricsAPIClient, namespace, recentlyActive string) *Discoverer {
	if namespace == "" {
		namespace = types.Namespace
	}
	return &Discoverer{client: client, namespace: namespace, recentlyActive: recentlyActive}
}

// Pipelines walks every ListMetrics page and returns the distinct values of
// the PipelineName dimension in lexical order.
func (d *Discoverer) Pipelines(ctx context.Context) ([]string, error) {
	in := &cloudwatch.ListMetricsInput{Namespace: aws.String(d.namespace)}
	if d.recentlyActive != "" {
		in.RecentlyActive = cwtypes.RecentlyActive(d.recentlyActive)
	}

	seen := make(map[string]struct{})
	pages := 0
	p := cloudwatch.NewListMetricsPaginator(d.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, cloud.Upstream("cloudwatch", "ListMetrics", err)
		}
		pages++
		for _, m := range page.Metrics {
			for _, dim := range m.Dimensions {
				if aws.ToString(dim.Name) == types.Dimension {
					seen[aws.ToString(dim.Value)] = struct{}{}
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	slog.Debug("discovery: pipelines found", "namespace", d.namespace, "pages", pages, "pipelines", names)
	return names, nil
}
