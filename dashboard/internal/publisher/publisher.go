// Package publisher creates or replaces the dashboard.
package publisher

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/pipelinedash/pipelinedash/dashboard/internal/builder"
	"github.com/pipelinedash/pipelinedash/pkg/cloud"
)

// API is the subset of the CloudWatch client used here.
type API interface {
	PutDashboard(ctx context.Context, params *cloudwatch.PutDashboardInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutDashboardOutput, error)
}

// ValidationMessage is a non-fatal problem the service found in the body.
type ValidationMessage struct {
	DataPath string
	Message  string
}

// Publisher writes dashboards.
type Publisher struct {
	client API
}

// New builds a Publisher from an AWS config.
func New(cfg aws.Config) *Publisher {
	return NewWithClient(cloudwatch.NewFromConfig(cfg))
}

// NewWithClient builds a Publisher around an existing client.
func NewWithClient(client API) *Publisher {
	return &Publisher{client: client}
}

// Publish overwrites the dashboard called name with d. Validation messages
// do not fail the call; each is logged at WARN and returned.
func (p *Publisher) Publish(ctx context.Context, name string, d builder.Dashboard) ([]ValidationMessage, error) {
	body, err := d.Body()
	if err != nil {
		return nil, err
	}

	out, err := p.client.PutDashboard(ctx, &cloudwatch.PutDashboardInput{
		DashboardName: aws.String(name),
		DashboardBody: aws.String(body),
	})
	if err != nil {
		return nil, cloud.Upstream("cloudwatch", "PutDashboard", err)
	}

	var msgs []ValidationMessage
	for _, m := range out.DashboardValidationMessages {
		vm := ValidationMessage{DataPath: aws.ToString(m.DataPath), Message: aws.ToString(m.Message)}
		slog.Warn("publisher: dashboard validation message",
			"dashboard", name,
			"data_path", vm.DataPath,
			"message", vm.Message,
		)
		msgs = append(msgs, vm)
	}

	slog.Info("publisher: dashboard published", "dashboard", name, "widgets", len(d.Widgets), "bytes", len(body))
	return msgs, nil
}
