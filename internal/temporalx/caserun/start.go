package caserun

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// Start launches a case run on the given task queue and returns the
// workflow handle without waiting for the run to finish.
func Start(ctx context.Context, c client.Client, taskQueue string, in Input) (workflowID, runID string, err error) {
	if c == nil {
		return "", "", fmt.Errorf("caserun: temporal client not configured")
	}
	if taskQueue == "" {
		taskQueue = "caselens"
	}

	opts := client.StartWorkflowOptions{
		ID:        "case_run_" + uuid.NewString(),
		TaskQueue: taskQueue,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, WorkflowName, in)
	if err != nil {
		return "", "", fmt.Errorf("caserun: start workflow: %w", err)
	}
	return run.GetID(), run.GetRunID(), nil
}
