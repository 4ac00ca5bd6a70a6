package caserun

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow runs one case end to end: a single ingest activity, then one
// analyze activity per persisted section. Sections run sequentially so
// a long case does not saturate the LLM quota all at once.
func Workflow(ctx workflow.Context, in Input) (Result, error) {
	res := Result{Status: "error", ExperimentID: in.ExperimentID}

	ingestCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	var ingest IngestOutput
	if err := workflow.ExecuteActivity(ingestCtx, ActivityIngest, in).Get(ctx, &ingest); err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.ExperimentID = ingest.ExperimentID
	res.SectionIDs = ingest.SectionIDs
	if !ingest.Success {
		res.Error = ingest.Error
		return res, fmt.Errorf("ingestion failed: %s", ingest.Error)
	}

	// Sections analyze under the experiment the ingestion resolved,
	// which may differ from the one requested.
	in.ExperimentID = ingest.ExperimentID

	analyzeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    2 * time.Minute,
			MaximumAttempts:    3,
		},
	})
	for _, sectionID := range ingest.SectionIDs {
		var out AnalyzeOutput
		if err := workflow.ExecuteActivity(analyzeCtx, ActivityAnalyzeSection, in, sectionID).Get(ctx, &out); err != nil {
			res.Error = err.Error()
			return res, err
		}
		res.AnalysisJobIDs = append(res.AnalysisJobIDs, out.AnalysisJobID)
	}

	res.Status = "success"
	return res, nil
}
