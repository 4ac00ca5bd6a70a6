package caserun

import (
	"context"
	"errors"
	"testing"

	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/ctxutil"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

type fakeIngestion struct {
	result         *services.IngestionResult
	gotTrigger     services.TriggerType
	gotCorrelation string
}

func (f *fakeIngestion) Ingest(ctx context.Context, trigger services.TriggerType, value, experimentID string) *services.IngestionResult {
	f.gotTrigger = trigger
	f.gotCorrelation = ctxutil.CorrelationID(ctx)
	return f.result
}

type fakeAnalysis struct {
	job           *types.AnalysisJob
	err           error
	gotSectionID  int64
	gotExperiment string
}

func (f *fakeAnalysis) AnalyzeSection(_ context.Context, sectionID int64, _ []string, experimentID string) (*types.AnalysisJob, error) {
	f.gotSectionID = sectionID
	f.gotExperiment = experimentID
	return f.job, f.err
}

func (f *fakeAnalysis) Analyze(_ context.Context, _ string, _ string, _ int64, _ []string) (*types.AnalysisJob, error) {
	return f.job, f.err
}

func TestIngestActivityKeepsFailureInEnvelope(t *testing.T) {
	ing := &fakeIngestion{result: &services.IngestionResult{
		Success: false,
		Error:   "case not found in CMS",
	}}
	acts := &Activities{Log: logger.NewNop(), Ingestion: ing, Analysis: &fakeAnalysis{}}

	out, err := acts.Ingest(context.Background(), Input{
		TriggerType:   "urn",
		Value:         "CASE-404",
		CorrelationID: "corr-1",
	})
	if err != nil {
		t.Fatalf("activity error: %v", err)
	}
	if out.Success {
		t.Fatal("expected failure envelope")
	}
	if out.Error != "case not found in CMS" {
		t.Fatalf("error: got=%q", out.Error)
	}
	if ing.gotTrigger != services.TriggerURN {
		t.Fatalf("trigger: got=%q", ing.gotTrigger)
	}
	if ing.gotCorrelation != "corr-1" {
		t.Fatalf("correlation id not propagated: got=%q", ing.gotCorrelation)
	}
}

func TestAnalyzeSectionActivity(t *testing.T) {
	an := &fakeAnalysis{job: &types.AnalysisJob{ID: 77, SectionID: 5, ExperimentID: "exp-2"}}
	acts := &Activities{Log: logger.NewNop(), Ingestion: &fakeIngestion{}, Analysis: an}

	out, err := acts.AnalyzeSection(context.Background(), Input{ExperimentID: "exp-2"}, 5)
	if err != nil {
		t.Fatalf("activity error: %v", err)
	}
	if out.AnalysisJobID != 77 || out.SectionID != 5 {
		t.Fatalf("output: got=%+v", out)
	}
	if an.gotSectionID != 5 || an.gotExperiment != "exp-2" {
		t.Fatalf("passthrough: section=%d experiment=%q", an.gotSectionID, an.gotExperiment)
	}
}

func TestAnalyzeSectionActivitySurfacesError(t *testing.T) {
	an := &fakeAnalysis{err: errors.New("critic call timed out")}
	acts := &Activities{Log: logger.NewNop(), Ingestion: &fakeIngestion{}, Analysis: an}

	if _, err := acts.AnalyzeSection(context.Background(), Input{}, 9); err == nil {
		t.Fatal("expected error for Temporal to retry")
	}
}
