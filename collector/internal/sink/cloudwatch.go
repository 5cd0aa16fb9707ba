package sink

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/pipelinedash/pipelinedash/pkg/cloud"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// CloudWatchAPI is the subset of the CloudWatch client used by CloudWatch.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch writes one PutMetricData call per point. Points are not batched:
// if a call fails, the points before it stay published and the rest are not
// attempted.
type CloudWatch struct {
	client    CloudWatchAPI
	namespace string
}

// NewCloudWatch builds a sink from an AWS config. An empty namespace means
// types.Namespace.
func NewCloudWatch(cfg aws.Config, namespace string) *CloudWatch {
	return NewCloudWatchWithClient(cloudwatch.NewFromConfig(cfg), namespace)
}

// NewCloudWatchWithClient builds a sink around an existing client.
func NewCloudWatchWithClient(client CloudWatchAPI, namespace string) *CloudWatch {
	if namespace == "" {
		namespace = types.Namespace
	}
	return &CloudWatch{client: client, namespace: namespace}
}

func (c *CloudWatch) Publish(ctx context.Context, points []types.MetricPoint) error {
	for _, p := range points {
		if p.Value == 0 {
			slog.Debug("sink: skipping zero-valued point", "metric", p.Name, "pipeline", p.PipelineName)
			continue
		}
		_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: []cwtypes.MetricDatum{datum(p)},
		})
		if err != nil {
			return cloud.Upstream("cloudwatch", "PutMetricData", err)
		}
		slog.Debug("sink: published point",
			"metric", p.Name,
			"pipeline", p.PipelineName,
			"value", p.Value,
			"unit", p.Unit,
		)
	}
	return nil
}

func datum(p types.MetricPoint) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(string(p.Name)),
		Dimensions: []cwtypes.Dimension{{
			Name:  aws.String(types.Dimension),
			Value: aws.String(p.PipelineName),
		}},
		Timestamp: aws.Time(p.Timestamp),
		Unit:      cwtypes.StandardUnit(p.Unit),
		Value:     aws.Float64(float64(p.Value)),
	}
}
