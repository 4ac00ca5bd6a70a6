package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/caselens/caselens-backend/internal/clients/gcp"
	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/data/repos"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/observability"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// AnalysisTask binds a registry id to the worker that runs it.
type AnalysisTask struct {
	TaskID      string
	NewWorker   WorkerFactory
	SaveResults bool
	Config      WorkerConfig
}

// DefaultTasks returns the built-in registry: one critic-graph task per bias
// pattern, keyed "{theme}-{pattern}".
func DefaultTasks() []AnalysisTask {
	ids := []string{
		"theme1-appropriateness",
		"theme1-emotional",
		"theme1-judgemental",
		"theme1-not_fact",
		"theme1-relevant",
		"theme1-tropes_context",
		"theme1-tropes_grounded",
		"theme2-adultification",
		"theme2-judgemental",
		"theme2-probative",
		"theme2-risk",
		"theme2-tropes",
		"theme2-victim",
	}
	tasks := make([]AnalysisTask, 0, len(ids))
	for _, id := range ids {
		theme, pattern, _ := strings.Cut(id, "-")
		tasks = append(tasks, AnalysisTask{
			TaskID:      id,
			NewWorker:   NewCriticGraphWorker,
			SaveResults: true,
			Config:      WorkerConfig{"theme_id": theme, "pattern_id": pattern},
		})
	}
	return tasks
}

// AnalysisService runs registry tasks over section text. One call creates one
// AnalysisJob; a task failure aborts the remaining tasks but the job row and
// any results already saved stay put.
type AnalysisService interface {
	AnalyzeSection(ctx context.Context, sectionID int64, taskIDs []string, experimentID string) (*types.AnalysisJob, error)
	Analyze(ctx context.Context, text, experimentID string, sectionID int64, taskIDs []string) (*types.AnalysisJob, error)
}

type analysisService struct {
	log         *logger.Logger
	llm         openai.Client
	bucket      gcp.BucketService
	prompts     repos.PromptTemplateRepo
	sections    repos.SectionRepo
	experiments repos.ExperimentRepo
	jobs        repos.AnalysisJobRepo
	results     repos.AnalysisResultRepo
	audit       AuditService

	taskOrder  []string
	tasks      map[string]AnalysisTask
	concurrent bool
}

func NewAnalysisService(
	baseLog *logger.Logger,
	llm openai.Client,
	bucket gcp.BucketService,
	prompts repos.PromptTemplateRepo,
	sections repos.SectionRepo,
	experiments repos.ExperimentRepo,
	jobs repos.AnalysisJobRepo,
	results repos.AnalysisResultRepo,
	audit AuditService,
	tasks []AnalysisTask,
	concurrent bool,
) AnalysisService {
	if len(tasks) == 0 {
		tasks = DefaultTasks()
	}
	svc := &analysisService{
		log:         baseLog.With("service", "AnalysisService"),
		llm:         llm,
		bucket:      bucket,
		prompts:     prompts,
		sections:    sections,
		experiments: experiments,
		jobs:        jobs,
		results:     results,
		audit:       audit,
		tasks:       make(map[string]AnalysisTask, len(tasks)),
		concurrent:  concurrent,
	}
	for _, task := range tasks {
		if _, ok := svc.tasks[task.TaskID]; !ok {
			svc.taskOrder = append(svc.taskOrder, task.TaskID)
		}
		svc.tasks[task.TaskID] = task
	}
	svc.log.Info("task registry loaded", "tasks", len(svc.tasks), "concurrent", concurrent)
	return svc
}

func (s *analysisService) AnalyzeSection(ctx context.Context, sectionID int64, taskIDs []string, experimentID string) (*types.AnalysisJob, error) {
	dbc := dbctx.New(ctx)
	section, err := s.sections.GetByID(dbc, sectionID)
	if err != nil {
		return nil, fmt.Errorf("section %d not found: %w", sectionID, err)
	}
	if experimentID == "" {
		experimentID = section.ExperimentID
	}
	if _, err := s.experiments.GetOrCreate(dbc, experimentID); err != nil {
		return nil, err
	}

	data, err := s.bucket.DownloadBytesFromBucket(ctx, section.ContentBlobContainer, section.ContentBlobName)
	if err != nil {
		return nil, fmt.Errorf("load section %d content: %w", sectionID, err)
	}
	return s.Analyze(ctx, string(data), experimentID, sectionID, taskIDs)
}

func (s *analysisService) Analyze(ctx context.Context, text, experimentID string, sectionID int64, taskIDs []string) (*types.AnalysisJob, error) {
	ctx, span := observability.Tracer().Start(ctx, "analysis.Analyze",
		trace.WithAttributes(
			attribute.Int64("analysis.section_id", sectionID),
			attribute.String("analysis.experiment_id", experimentID),
		))
	defer span.End()

	tasks := s.resolveTasks(taskIDs)
	resolved := make([]string, 0, len(tasks))
	for _, task := range tasks {
		resolved = append(resolved, task.TaskID)
	}

	job, err := s.jobs.Create(dbctx.New(ctx), &types.AnalysisJob{
		ExperimentID: experimentID,
		SectionID:    sectionID,
		TaskIDs:      strings.Join(resolved, ","),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("analysis job created", "analysis_job_id", job.ID, "section_id", sectionID, "tasks", len(tasks))
	s.logEvent(ctx, "ANALYSIS_JOB_BEGIN", "ANALYSIS_JOB", strconv.FormatInt(job.ID, 10))

	if s.concurrent {
		err = s.runTasksConcurrently(ctx, text, experimentID, sectionID, job.ID, tasks)
	} else {
		err = s.runTasksSequentially(ctx, text, experimentID, sectionID, job.ID, tasks)
	}
	if err != nil {
		s.log.Error("analysis job failed", "analysis_job_id", job.ID, "section_id", sectionID, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return job, nil
}

func (s *analysisService) resolveTasks(taskIDs []string) []AnalysisTask {
	if len(taskIDs) == 0 {
		out := make([]AnalysisTask, 0, len(s.taskOrder))
		for _, id := range s.taskOrder {
			out = append(out, s.tasks[id])
		}
		return out
	}
	out := make([]AnalysisTask, 0, len(taskIDs))
	for _, id := range taskIDs {
		task, ok := s.tasks[id]
		if !ok {
			s.log.Warn("unknown task id ignored", "task_id", id)
			continue
		}
		out = append(out, task)
	}
	return out
}

func (s *analysisService) runTasksSequentially(ctx context.Context, text, experimentID string, sectionID, jobID int64, tasks []AnalysisTask) error {
	for _, task := range tasks {
		if err := s.runTask(ctx, text, experimentID, sectionID, jobID, task); err != nil {
			return fmt.Errorf("task %s: %w", task.TaskID, err)
		}
	}
	return nil
}

func (s *analysisService) runTasksConcurrently(ctx context.Context, text, experimentID string, sectionID, jobID int64, tasks []AnalysisTask) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			if err := s.runTask(gctx, text, experimentID, sectionID, jobID, task); err != nil {
				return fmt.Errorf("task %s: %w", task.TaskID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// runTask builds a fresh worker, runs it, and persists its rows when the
// task says so. Workers stay persistence-free.
func (s *analysisService) runTask(ctx context.Context, text, experimentID string, sectionID, jobID int64, task AnalysisTask) error {
	s.logEvent(ctx, "ANALYSIS_TASK_BEGIN", "ANALYSIS_TASK", task.TaskID)

	worker, err := task.NewWorker(ctx, WorkerDeps{Log: s.log, LLM: s.llm, Prompts: s.prompts}, task.Config)
	if err != nil {
		return err
	}
	s.log.Info("running task", "task_id", task.TaskID, "analysis_job_id", jobID)
	rows, err := worker.Analyze(ctx, text, experimentID, sectionID, jobID)
	if err != nil {
		return err
	}
	if task.SaveResults && len(rows) > 0 {
		if _, err := s.results.Create(dbctx.New(ctx), rows); err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		s.log.Info("results saved", "task_id", task.TaskID, "analysis_job_id", jobID, "count", len(rows))
	}
	return nil
}

func (s *analysisService) logEvent(ctx context.Context, action, objectType, objectID string) {
	s.audit.Log(ctx, AuditEntry{
		Source:     "AnalysisService",
		EventType:  "ANALYSIS_ORCHESTRATION",
		ActorID:    "ANALYSIS_ORCHESTRATOR",
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
	})
}
