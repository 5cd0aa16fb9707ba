package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"

	"github.com/pipelinedash/pipelinedash/pkg/cloud"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

var eventTime = time.Date(2021, 4, 26, 15, 11, 59, 0, time.UTC)

type fakeCloudWatch struct {
	calls  []*cloudwatch.PutMetricDataInput
	failAt int // 1-based call index to fail at; 0 never fails
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.calls = append(f.calls, in)
	if f.failAt == len(f.calls) {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string                 { return e.code }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.code }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultServer }

func points() []types.MetricPoint {
	return []types.MetricPoint{
		types.NewPoint(types.SuccessCount, 1, "foobar", eventTime),
		types.NewPoint(types.RedTime, 86400, "foobar", eventTime),
		types.NewPoint(types.SuccessLeadTime, 260, "foobar", eventTime),
	}
}

func TestCloudWatch_OneCallPerPoint(t *testing.T) {
	api := &fakeCloudWatch{}
	if err := NewCloudWatchWithClient(api, "").Publish(context.Background(), points()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(api.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(api.calls))
	}

	in := api.calls[1]
	if aws.ToString(in.Namespace) != "Pipeline" {
		t.Errorf("Namespace = %q", aws.ToString(in.Namespace))
	}
	if len(in.MetricData) != 1 {
		t.Fatalf("MetricData len = %d, want 1", len(in.MetricData))
	}
	d := in.MetricData[0]
	if aws.ToString(d.MetricName) != "RedTime" {
		t.Errorf("MetricName = %q", aws.ToString(d.MetricName))
	}
	if d.Unit != cwtypes.StandardUnitSeconds {
		t.Errorf("Unit = %q", d.Unit)
	}
	if aws.ToFloat64(d.Value) != 86400 {
		t.Errorf("Value = %v", aws.ToFloat64(d.Value))
	}
	if !aws.ToTime(d.Timestamp).Equal(eventTime) {
		t.Errorf("Timestamp = %v, want event time %v", aws.ToTime(d.Timestamp), eventTime)
	}
	if len(d.Dimensions) != 1 || aws.ToString(d.Dimensions[0].Name) != "PipelineName" || aws.ToString(d.Dimensions[0].Value) != "foobar" {
		t.Errorf("Dimensions = %+v", d.Dimensions)
	}
	if api.calls[0].MetricData[0].Unit != cwtypes.StandardUnitCount {
		t.Errorf("SuccessCount unit = %q", api.calls[0].MetricData[0].Unit)
	}
}

func TestCloudWatch_CustomNamespace(t *testing.T) {
	api := &fakeCloudWatch{}
	if err := NewCloudWatchWithClient(api, "Delivery").Publish(context.Background(), points()[:1]); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if aws.ToString(api.calls[0].Namespace) != "Delivery" {
		t.Errorf("Namespace = %q", aws.ToString(api.calls[0].Namespace))
	}
}

func TestCloudWatch_EmptyIsNoOp(t *testing.T) {
	api := &fakeCloudWatch{}
	if err := NewCloudWatchWithClient(api, "").Publish(context.Background(), nil); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(api.calls))
	}
}

func TestCloudWatch_SkipsZero(t *testing.T) {
	api := &fakeCloudWatch{}
	pts := []types.MetricPoint{
		types.NewPoint(types.YellowTime, 0, "foobar", eventTime),
		types.NewPoint(types.FailureCount, 1, "foobar", eventTime),
	}
	if err := NewCloudWatchWithClient(api, "").Publish(context.Background(), pts); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(api.calls))
	}
	if got := aws.ToString(api.calls[0].MetricData[0].MetricName); got != "FailureCount" {
		t.Errorf("published %q, want FailureCount", got)
	}
}

func TestCloudWatch_FailureAbortsRemaining(t *testing.T) {
	api := &fakeCloudWatch{failAt: 2, err: fakeAPIError{code: "InternalServiceFault"}}
	err := NewCloudWatchWithClient(api, "").Publish(context.Background(), points())

	var ue *cloud.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *cloud.UpstreamError", err)
	}
	if ue.Service != "cloudwatch" || ue.Operation != "PutMetricData" || ue.Code != "InternalServiceFault" {
		t.Errorf("UpstreamError = %+v", ue)
	}
	// The first point stays published; the third is never attempted.
	if len(api.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(api.calls))
	}
}
