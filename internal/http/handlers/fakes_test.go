package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/services"
)

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeHealthService struct {
	report   map[string]any
	gotRoute string
}

func (f *fakeHealthService) Check(_ context.Context, route string) map[string]any {
	f.gotRoute = route
	return f.report
}

type fakeIngestionService struct {
	result        *services.IngestionResult
	gotTrigger    services.TriggerType
	gotValue      string
	gotExperiment string
}

func (f *fakeIngestionService) Ingest(_ context.Context, trigger services.TriggerType, value, experimentID string) *services.IngestionResult {
	f.gotTrigger = trigger
	f.gotValue = value
	f.gotExperiment = experimentID
	return f.result
}

type fakeAnalysisService struct {
	job           *types.AnalysisJob
	err           error
	gotSectionID  int64
	gotTaskIDs    []string
	gotExperiment string
}

func (f *fakeAnalysisService) AnalyzeSection(_ context.Context, sectionID int64, taskIDs []string, experimentID string) (*types.AnalysisJob, error) {
	f.gotSectionID = sectionID
	f.gotTaskIDs = taskIDs
	f.gotExperiment = experimentID
	return f.job, f.err
}

func (f *fakeAnalysisService) Analyze(_ context.Context, _ string, _ string, _ int64, _ []string) (*types.AnalysisJob, error) {
	return f.job, f.err
}

type fakeWorkflowService struct {
	result     *services.WorkflowResult
	gotTrigger services.TriggerType
	gotValue   string
	gotTaskIDs []string
}

func (f *fakeWorkflowService) Run(_ context.Context, trigger services.TriggerType, value string, _ string, taskIDs []string) *services.WorkflowResult {
	f.gotTrigger = trigger
	f.gotValue = value
	f.gotTaskIDs = taskIDs
	return f.result
}

type fakeSetupService struct {
	report *services.SetupReport
	err    error
	gotReq services.SetupRequest
}

func (f *fakeSetupService) Setup(_ context.Context, req services.SetupRequest) (*services.SetupReport, error) {
	f.gotReq = req
	return f.report, f.err
}

func (f *fakeSetupService) SeedPrompts(_ context.Context) (int, error) {
	return 0, nil
}

type fakeCaseAdminService struct {
	report    *services.CaseTreeReport
	err       error
	gotCaseID int64
}

func (f *fakeCaseAdminService) DeleteCaseTree(_ context.Context, caseID int64) (*services.CaseTreeReport, error) {
	f.gotCaseID = caseID
	return f.report, f.err
}
