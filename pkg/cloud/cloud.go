// Package cloud loads AWS configuration and classifies failed AWS calls into
// the UpstreamError taxonomy shared by the collector and dashboard binaries.
//
// Upstream failures are never retried here. They are wrapped with the service
// and operation name, tagged with the API error code when the SDK returned a
// smithy.APIError, and handed back to the caller unchanged otherwise.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
)

// LoadConfig resolves credentials and region the standard SDK way. An empty
// region falls back to the environment and shared config files.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if strings.TrimSpace(region) != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("cloud: load aws config: %w", err)
	}
	return cfg, nil
}

// UpstreamError reports a failed call to an external service.
type UpstreamError struct {
	Service   string
	Operation string
	// Code is the service error code, empty for transport failures.
	Code string
	// Fault is "client", "server" or "unknown".
	Fault string
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Service, e.Operation, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError. A nil err returns nil.
func Upstream(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	ue := &UpstreamError{Service: service, Operation: operation, Fault: "unknown", Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ue.Code = apiErr.ErrorCode()
		switch apiErr.ErrorFault() {
		case smithy.FaultClient:
			ue.Fault = "client"
		case smithy.FaultServer:
			ue.Fault = "server"
		}
	}
	return ue
}

// IsUpstream reports whether err (or anything it wraps) is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
