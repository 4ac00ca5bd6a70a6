package caserun

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

type Activities struct {
	Log       *logger.Logger
	Ingestion services.IngestionService
	Analysis  services.AnalysisService
}

// Ingest runs the document pipeline for the trigger. Pipeline failures
// come back inside the output envelope rather than as activity errors:
// a bad URN will not get better on retry.
func (a *Activities) Ingest(ctx context.Context, in Input) (IngestOutput, error) {
	if a == nil || a.Ingestion == nil {
		return IngestOutput{}, fmt.Errorf("caserun: ingest activity not configured")
	}
	ctx = withCorrelation(ctx, in.CorrelationID)

	stop := a.startHeartbeat(ctx)
	defer stop()

	res := a.Ingestion.Ingest(ctx, services.TriggerType(in.TriggerType), in.Value, in.ExperimentID)
	return IngestOutput{
		Success:      res.Success,
		ExperimentID: res.ExperimentID,
		SectionIDs:   res.SectionIDs,
		Error:        res.Error,
	}, nil
}

// AnalyzeSection runs the task suite against one section. Errors are
// surfaced to Temporal so its retry policy covers transient LLM faults.
func (a *Activities) AnalyzeSection(ctx context.Context, in Input, sectionID int64) (AnalyzeOutput, error) {
	if a == nil || a.Analysis == nil {
		return AnalyzeOutput{}, fmt.Errorf("caserun: analyze activity not configured")
	}
	ctx = withCorrelation(ctx, in.CorrelationID)

	stop := a.startHeartbeat(ctx)
	defer stop()

	job, err := a.Analysis.AnalyzeSection(ctx, sectionID, in.TaskIDs, in.ExperimentID)
	if err != nil {
		return AnalyzeOutput{}, err
	}
	return AnalyzeOutput{SectionID: sectionID, AnalysisJobID: job.ID}, nil
}

func withCorrelation(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return ctxutil.WithCorrelationID(ctx, id)
}

// startHeartbeat keeps long activities visible to the server. Document
// parses and critic runs routinely outrun the heartbeat timeout.
func (a *Activities) startHeartbeat(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}
