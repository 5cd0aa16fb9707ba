// Package history fetches a pipeline's recent execution history.
//
// CodePipeline returns executions newest-first; that order is preserved all
// the way through to the reconciler. Only the first page is read: the
// reconciler never needs to look further back than the page size allows.
package history

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"

	"github.com/pipelinedash/pipelinedash/pkg/cloud"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// DefaultPageSize is the ListPipelineExecutions maximum.
const DefaultPageSize int32 = 100

// Fetcher returns a pipeline's execution history, newest first.
type Fetcher interface {
	List(ctx context.Context, pipeline string) ([]types.ExecutionSummary, error)
}

// API is the subset of the CodePipeline client used here.
type API interface {
	ListPipelineExecutions(ctx context.Context, params *codepipeline.ListPipelineExecutionsInput, optFns ...func(*codepipeline.Options)) (*codepipeline.ListPipelineExecutionsOutput, error)
}

// CodePipeline is a Fetcher backed by the CodePipeline API.
type CodePipeline struct {
	client   API
	pageSize int32
}

// NewCodePipeline builds a Fetcher from an AWS config.
func NewCodePipeline(cfg aws.Config, pageSize int32) *CodePipeline {
	return NewCodePipelineWithClient(codepipeline.NewFromConfig(cfg), pageSize)
}

// NewCodePipelineWithClient builds a Fetcher around an existing client.
// A pageSize outside 1..100 falls back to DefaultPageSize.
func NewCodePipelineWithClient(client API, pageSize int32) *CodePipeline {
	if pageSize < 1 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	return &CodePipeline{client: client, pageSize: pageSize}
}

// List implements Fetcher. An entry whose status is outside the known
// vocabulary fails the whole call with types.ErrUnknownStatus.
func (c *CodePipeline) List(ctx context.Context, pipeline string) ([]types.ExecutionSummary, error) {
	out, err := c.client.ListPipelineExecutions(ctx, &codepipeline.ListPipelineExecutionsInput{
		PipelineName: aws.String(pipeline),
		MaxResults:   aws.Int32(c.pageSize),
	})
	if err != nil {
		return nil, cloud.Upstream("codepipeline", "ListPipelineExecutions", err)
	}

	summaries := make([]types.ExecutionSummary, 0, len(out.PipelineExecutionSummaries))
	for _, s := range out.PipelineExecutionSummaries {
		status, err := types.ParseStatus(string(s.Status))
		if err != nil {
			return nil, fmt.Errorf("history: execution %s: %w", aws.ToString(s.PipelineExecutionId), err)
		}
		summaries = append(summaries, types.ExecutionSummary{
			ID:             aws.ToString(s.PipelineExecutionId),
			Status:         status,
			StartTime:      aws.ToTime(s.StartTime),
			LastUpdateTime: aws.ToTime(s.LastUpdateTime),
		})
	}
	return summaries, nil
}

// Terminal keeps only Succeeded and Failed entries, preserving order.
// The input is not modified.
func Terminal(history []types.ExecutionSummary) []types.ExecutionSummary {
	out := make([]types.ExecutionSummary, 0, len(history))
	for _, s := range history {
		if s.Status.Terminal() {
			out = append(out, s)
		}
	}
	return out
}
