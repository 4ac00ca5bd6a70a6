package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gorm.io/datatypes"

	"github.com/caselens/caselens-backend/internal/clients/cms"
	"github.com/caselens/caselens-backend/internal/clients/gcp"
	analysistypes "github.com/caselens/caselens-backend/internal/domain/analysis"
	audittypes "github.com/caselens/caselens-backend/internal/domain/audit"
	casetypes "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
)

// fakeLLM routes prompts through test-provided handlers and records every
// prompt it saw. Handlers run without the lock so they may call t helpers.
type fakeLLM struct {
	mu        sync.Mutex
	textFn    func(prompt string) (string, error)
	jsonFn    func(prompt, schemaName string) (map[string]any, error)
	textCalls int
	jsonCalls int
	prompts   []string
}

func (f *fakeLLM) GenerateText(_ context.Context, _ string, user string) (string, error) {
	f.mu.Lock()
	f.textCalls++
	f.prompts = append(f.prompts, user)
	fn := f.textFn
	f.mu.Unlock()
	if fn == nil {
		return "", errors.New("fakeLLM: no text handler")
	}
	return fn(user)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ string, user string, schemaName string, _ map[string]any) (map[string]any, error) {
	f.mu.Lock()
	f.jsonCalls++
	f.prompts = append(f.prompts, user)
	fn := f.jsonFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("fakeLLM: no json handler")
	}
	return fn(user, schemaName)
}

func (f *fakeLLM) promptCount(match func(string) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if match(p) {
			n++
		}
	}
	return n
}

type fakePromptRepo struct {
	mu        sync.Mutex
	templates map[string]*analysistypes.PromptTemplate
	nextID    int64
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{templates: map[string]*analysistypes.PromptTemplate{}}
}

func promptKey(agent, theme, pattern string) string {
	return agent + "|" + theme + "|" + pattern
}

func newDBC() dbctx.Context { return dbctx.New(context.Background()) }

func (f *fakePromptRepo) seed(agent, theme, pattern, template string) *analysistypes.PromptTemplate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	row := &analysistypes.PromptTemplate{
		ID:       f.nextID,
		Template: template,
		Agent:    agent,
		Theme:    theme,
		Pattern:  pattern,
		Version:  "1",
	}
	f.templates[promptKey(agent, theme, pattern)] = row
	return row
}

func (f *fakePromptRepo) Create(_ dbctx.Context, row *analysistypes.PromptTemplate) (*analysistypes.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	row.ID = f.nextID
	f.templates[promptKey(row.Agent, row.Theme, row.Pattern)] = row
	return row, nil
}

func (f *fakePromptRepo) GetByID(_ dbctx.Context, id int64) (*analysistypes.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.templates {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, fmt.Errorf("prompt template %d not found", id)
}

func (f *fakePromptRepo) GetLatestBy(_ dbctx.Context, agent, theme, pattern string) (*analysistypes.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.templates[promptKey(agent, theme, pattern)]
	if !ok {
		return nil, fmt.Errorf("prompt template not found for %s", promptKey(agent, theme, pattern))
	}
	return row, nil
}

func (f *fakePromptRepo) UpsertByKey(_ dbctx.Context, row *analysistypes.PromptTemplate) (*analysistypes.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := promptKey(row.Agent, row.Theme, row.Pattern)
	if existing, ok := f.templates[key]; ok {
		row.ID = existing.ID
	} else {
		f.nextID++
		row.ID = f.nextID
	}
	f.templates[key] = row
	return row, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	rows   []*audittypes.Event
	nextID int64
	err    error
}

func (f *fakeEventRepo) Log(_ dbctx.Context, row *audittypes.Event) (*audittypes.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	row.ID = f.nextID
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeEventRepo) GetByCorrelationID(_ dbctx.Context, correlationID string) ([]*audittypes.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*audittypes.Event
	for _, row := range f.rows {
		if row.CorrelationID == correlationID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row.Action)
	}
	return out
}

// fakeBucket maps each category to "test-<category>" and stores objects under
// "bucket/key", which is also what DownloadBytesFromBucket resolves.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads []string
	upErr   error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (f *fakeBucket) BucketName(category gcp.BucketCategory) (string, error) {
	return "test-" + string(category), nil
}

func (f *fakeBucket) UploadFile(ctx context.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	return f.UploadBytes(ctx, category, key, data)
}

func (f *fakeBucket) UploadBytes(_ context.Context, category gcp.BucketCategory, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upErr != nil {
		return f.upErr
	}
	name, _ := f.BucketName(category)
	f.objects[name+"/"+key] = data
	f.uploads = append(f.uploads, name+"/"+key)
	return nil
}

func (f *fakeBucket) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	data, err := f.DownloadBytes(ctx, category, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBucket) DownloadBytes(ctx context.Context, category gcp.BucketCategory, key string) ([]byte, error) {
	name, _ := f.BucketName(category)
	return f.DownloadBytesFromBucket(ctx, name, key)
}

func (f *fakeBucket) DownloadBytesFromBucket(_ context.Context, bucketName string, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucketName+"/"+key]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s not found", bucketName, key)
	}
	return data, nil
}

func (f *fakeBucket) ListKeys(_ context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, _ := f.BucketName(category)
	var out []string
	for key := range f.objects {
		if strings.HasPrefix(key, name+"/"+prefix) {
			out = append(out, strings.TrimPrefix(key, name+"/"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeBucket) DeletePrefix(_ context.Context, category gcp.BucketCategory, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, _ := f.BucketName(category)
	for key := range f.objects {
		if strings.HasPrefix(key, name+"/"+prefix) {
			delete(f.objects, key)
		}
	}
	return nil
}

type fakeSectionRepo struct {
	mu     sync.Mutex
	rows   map[int64]*analysistypes.Section
	nextID int64
}

func newFakeSectionRepo() *fakeSectionRepo {
	return &fakeSectionRepo{rows: map[int64]*analysistypes.Section{}}
}

func (f *fakeSectionRepo) Create(_ dbctx.Context, row *analysistypes.Section) (*analysistypes.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	row.ID = f.nextID
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeSectionRepo) GetByID(_ dbctx.Context, id int64) (*analysistypes.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("section %d not found", id)
	}
	return row, nil
}

func (f *fakeSectionRepo) GetByExperimentID(_ dbctx.Context, experimentID string) ([]*analysistypes.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*analysistypes.Section
	for _, row := range f.rows {
		if row.ExperimentID == experimentID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSectionRepo) GetByVersionIDs(_ dbctx.Context, versionIDs []int64) ([]*analysistypes.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*analysistypes.Section
	for _, row := range f.rows {
		for _, id := range versionIDs {
			if row.VersionID == id {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSectionRepo) UpdateContentPointers(_ dbctx.Context, id int64, container, blobName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("section %d not found", id)
	}
	row.ContentBlobContainer = container
	row.ContentBlobName = blobName
	return nil
}

func (f *fakeSectionRepo) DeleteByVersionIDs(_ dbctx.Context, versionIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		for _, vid := range versionIDs {
			if row.VersionID == vid {
				delete(f.rows, id)
			}
		}
	}
	return nil
}

type fakeExperimentRepo struct {
	mu   sync.Mutex
	rows map[string]*analysistypes.Experiment
}

func newFakeExperimentRepo() *fakeExperimentRepo {
	return &fakeExperimentRepo{rows: map[string]*analysistypes.Experiment{}}
}

func (f *fakeExperimentRepo) GetOrCreate(_ dbctx.Context, id string) (*analysistypes.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		return row, nil
	}
	row := &analysistypes.Experiment{ID: id}
	f.rows[id] = row
	return row, nil
}

func (f *fakeExperimentRepo) GetByID(_ dbctx.Context, id string) (*analysistypes.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("experiment %s not found", id)
	}
	return row, nil
}

type fakeJobRepo struct {
	mu     sync.Mutex
	rows   []*analysistypes.AnalysisJob
	nextID int64
	err    error
}

func (f *fakeJobRepo) Create(_ dbctx.Context, row *analysistypes.AnalysisJob) (*analysistypes.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	row.ID = f.nextID
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeJobRepo) GetByID(_ dbctx.Context, id int64) (*analysistypes.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, fmt.Errorf("analysis job %d not found", id)
}

func (f *fakeJobRepo) GetBySectionIDs(_ dbctx.Context, sectionIDs []int64) ([]*analysistypes.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*analysistypes.AnalysisJob
	for _, row := range f.rows {
		for _, id := range sectionIDs {
			if row.SectionID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeJobRepo) DeleteBySectionIDs(_ dbctx.Context, sectionIDs []int64) error {
	return nil
}

type fakeResultRepo struct {
	mu   sync.Mutex
	rows []*analysistypes.AnalysisResult
	err  error
}

func (f *fakeResultRepo) Create(_ dbctx.Context, rows []*analysistypes.AnalysisResult) ([]*analysistypes.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeResultRepo) GetByJobID(_ dbctx.Context, jobID int64) ([]*analysistypes.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*analysistypes.AnalysisResult
	for _, row := range f.rows {
		if row.AnalysisJobID == jobID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeResultRepo) DeleteByJobIDs(_ dbctx.Context, jobIDs []int64) error {
	return nil
}

func (f *fakeResultRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeCMS serves canned case data. Download keys are "caseID/docID/versionID".
type fakeCMS struct {
	mu          sync.Mutex
	authErr     error
	authCalls   int
	caseIDs     map[string]int64
	summaries   map[int64]*cms.CaseSummary
	defendants  map[int64][]cms.Defendant
	documents   map[int64][]cms.DocumentInfo
	data        map[string][]byte
	downloadErr error
	downloads   []string
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{
		caseIDs:    map[string]int64{},
		summaries:  map[int64]*cms.CaseSummary{},
		defendants: map[int64][]cms.Defendant{},
		documents:  map[int64][]cms.DocumentInfo{},
		data:       map[string][]byte{},
	}
}

func (f *fakeCMS) Authenticate(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	return f.authErr
}

func (f *fakeCMS) GetCaseIDFromURN(_ context.Context, urn string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.caseIDs[urn]
	if !ok {
		return 0, fmt.Errorf("no case found for urn %s", urn)
	}
	return id, nil
}

func (f *fakeCMS) GetCaseSummary(_ context.Context, caseID int64) (*cms.CaseSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary, ok := f.summaries[caseID]
	if !ok {
		return nil, fmt.Errorf("no summary for case %d", caseID)
	}
	return summary, nil
}

func (f *fakeCMS) GetCaseDefendants(_ context.Context, caseID int64, _ bool, _ bool) ([]cms.Defendant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defendants[caseID], nil
}

func (f *fakeCMS) ListCaseDocuments(_ context.Context, caseID int64) ([]cms.DocumentInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.documents[caseID], nil
}

func (f *fakeCMS) DownloadData(_ context.Context, caseID int64, documentID int64, versionID int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d/%d/%d", caseID, documentID, versionID)
	f.downloads = append(f.downloads, key)
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.data[key]
	if !ok {
		return nil, fmt.Errorf("no data for %s", key)
	}
	return data, nil
}

// fakeDocParse echoes the input bytes back as parsed content unless a
// handler is set.
type fakeDocParse struct {
	mu      sync.Mutex
	parseFn func(data []byte, mimeType string) (*gcp.ParseResult, error)
	pingErr error
	calls   int
}

func (f *fakeDocParse) Parse(_ context.Context, data []byte, mimeType string) (*gcp.ParseResult, error) {
	f.mu.Lock()
	f.calls++
	fn := f.parseFn
	f.mu.Unlock()
	if fn != nil {
		return fn(data, mimeType)
	}
	return &gcp.ParseResult{
		Provider:  "test",
		Processor: "layout",
		MimeType:  mimeType,
		Content:   string(data),
		Pages:     []gcp.PageText{{Number: 1, Text: string(data)}},
	}, nil
}

func (f *fakeDocParse) Ping(context.Context) (string, error) {
	if f.pingErr != nil {
		return "", f.pingErr
	}
	return "ENABLED", nil
}

func (f *fakeDocParse) Close() error { return nil }

func (f *fakeDocParse) parseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExtraction struct {
	mu       sync.Mutex
	sections []string
	err      error
	seen     []string
}

func (f *fakeExtraction) ExtractSections(_ context.Context, text string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.sections, nil
}

// fakeRedaction marks content instead of calling a model.
type fakeRedaction struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeRedaction) Redact(_ context.Context, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "[redacted] " + content, nil
}

// Casefile repo fakes mirror the real upsert contract: a zero id allocates,
// a set id overwrites.

type fakeCaseRepo struct {
	mu     sync.Mutex
	rows   map[int64]*casetypes.Case
	nextID int64
	err    error
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{rows: map[int64]*casetypes.Case{}}
}

func (f *fakeCaseRepo) Upsert(_ dbctx.Context, row *casetypes.Case) (*casetypes.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if row.ID == 0 {
		f.nextID++
		row.ID = f.nextID
	} else if row.ID > f.nextID {
		f.nextID = row.ID
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeCaseRepo) GetByID(_ dbctx.Context, id int64) (*casetypes.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("case %d not found", id)
	}
	return row, nil
}

func (f *fakeCaseRepo) GetByURN(_ dbctx.Context, urn string) (*casetypes.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.URN == urn {
			return row, nil
		}
	}
	return nil, fmt.Errorf("case with urn %s not found", urn)
}

func (f *fakeCaseRepo) DeleteByIDs(_ dbctx.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.rows, id)
	}
	return nil
}

type fakeDefendantRepo struct {
	mu     sync.Mutex
	rows   map[int64]*casetypes.Defendant
	nextID int64
}

func newFakeDefendantRepo() *fakeDefendantRepo {
	return &fakeDefendantRepo{rows: map[int64]*casetypes.Defendant{}}
}

func (f *fakeDefendantRepo) Upsert(_ dbctx.Context, row *casetypes.Defendant) (*casetypes.Defendant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == 0 {
		f.nextID++
		row.ID = f.nextID
	} else if row.ID > f.nextID {
		f.nextID = row.ID
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeDefendantRepo) GetByCaseID(_ dbctx.Context, caseID int64) ([]*casetypes.Defendant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*casetypes.Defendant
	for _, row := range f.rows {
		if row.CaseID == caseID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDefendantRepo) DeleteByCaseIDs(_ dbctx.Context, caseIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		for _, cid := range caseIDs {
			if row.CaseID == cid {
				delete(f.rows, id)
			}
		}
	}
	return nil
}

type fakeChargeRepo struct {
	mu     sync.Mutex
	rows   map[int64]*casetypes.Charge
	nextID int64
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{rows: map[int64]*casetypes.Charge{}}
}

func (f *fakeChargeRepo) Upsert(_ dbctx.Context, row *casetypes.Charge) (*casetypes.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == 0 {
		f.nextID++
		row.ID = f.nextID
	} else if row.ID > f.nextID {
		f.nextID = row.ID
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeChargeRepo) GetByDefendantIDs(_ dbctx.Context, defendantIDs []int64) ([]*casetypes.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*casetypes.Charge
	for _, row := range f.rows {
		for _, id := range defendantIDs {
			if row.DefendantID == id {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeChargeRepo) DeleteByDefendantIDs(_ dbctx.Context, defendantIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		for _, did := range defendantIDs {
			if row.DefendantID == did {
				delete(f.rows, id)
			}
		}
	}
	return nil
}

type fakeOffenceRepo struct {
	mu     sync.Mutex
	rows   map[int64]*casetypes.Offence
	nextID int64
}

func newFakeOffenceRepo() *fakeOffenceRepo {
	return &fakeOffenceRepo{rows: map[int64]*casetypes.Offence{}}
}

func (f *fakeOffenceRepo) Upsert(_ dbctx.Context, row *casetypes.Offence) (*casetypes.Offence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == 0 {
		f.nextID++
		row.ID = f.nextID
	} else if row.ID > f.nextID {
		f.nextID = row.ID
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeOffenceRepo) GetByDefendantIDs(_ dbctx.Context, defendantIDs []int64) ([]*casetypes.Offence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*casetypes.Offence
	for _, row := range f.rows {
		for _, id := range defendantIDs {
			if row.DefendantID == id {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOffenceRepo) DeleteByDefendantIDs(_ dbctx.Context, defendantIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		for _, did := range defendantIDs {
			if row.DefendantID == did {
				delete(f.rows, id)
			}
		}
	}
	return nil
}

type fakeDocumentRepo struct {
	mu     sync.Mutex
	rows   map[int64]*casetypes.Document
	nextID int64
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{rows: map[int64]*casetypes.Document{}}
}

func (f *fakeDocumentRepo) Upsert(_ dbctx.Context, row *casetypes.Document) (*casetypes.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == 0 {
		f.nextID++
		row.ID = f.nextID
	} else if row.ID > f.nextID {
		f.nextID = row.ID
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeDocumentRepo) GetByID(_ dbctx.Context, id int64) (*casetypes.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("document %d not found", id)
	}
	return row, nil
}

func (f *fakeDocumentRepo) GetByCaseIDs(_ dbctx.Context, caseIDs []int64) ([]*casetypes.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*casetypes.Document
	for _, row := range f.rows {
		for _, id := range caseIDs {
			if row.CaseID == id {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDocumentRepo) DeleteByCaseIDs(_ dbctx.Context, caseIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		for _, cid := range caseIDs {
			if row.CaseID == cid {
				delete(f.rows, id)
			}
		}
	}
	return nil
}

type fakeVersionRepo struct {
	mu     sync.Mutex
	rows   map[int64]*casetypes.Version
	nextID int64
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{rows: map[int64]*casetypes.Version{}}
}

func (f *fakeVersionRepo) Upsert(_ dbctx.Context, row *casetypes.Version) (*casetypes.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == 0 {
		f.nextID++
		row.ID = f.nextID
	} else if row.ID > f.nextID {
		f.nextID = row.ID
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeVersionRepo) GetByID(_ dbctx.Context, id int64) (*casetypes.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("version %d not found", id)
	}
	return row, nil
}

func (f *fakeVersionRepo) GetByDocumentIDs(_ dbctx.Context, documentIDs []int64) ([]*casetypes.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*casetypes.Version
	for _, row := range f.rows {
		for _, id := range documentIDs {
			if row.DocumentID == id {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVersionRepo) UpdateParsedPointers(_ dbctx.Context, id int64, container, blobName string, meta datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("version %d not found", id)
	}
	row.ParsedBlobContainer = container
	row.ParsedBlobName = blobName
	row.ParseMeta = meta
	return nil
}

func (f *fakeVersionRepo) DeleteByDocumentIDs(_ dbctx.Context, documentIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		for _, did := range documentIDs {
			if row.DocumentID == did {
				delete(f.rows, id)
			}
		}
	}
	return nil
}
