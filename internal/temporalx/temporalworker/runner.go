package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
	"github.com/caselens/caselens-backend/internal/temporalx"
	"github.com/caselens/caselens-backend/internal/temporalx/caserun"
	"github.com/caselens/caselens-backend/internal/utils"
)

// Runner hosts the Temporal worker that executes durable case runs. It
// registers the case_run workflow plus its ingest and analyze
// activities against the configured task queue.
type Runner struct {
	log *logger.Logger

	tc        client.Client
	ingestion services.IngestionService
	analysis  services.AnalysisService
}

func NewRunner(
	log *logger.Logger,
	tc client.Client,
	ingestion services.IngestionService,
	analysis services.AnalysisService,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if ingestion == nil || analysis == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:       log,
		tc:        tc,
		ingestion: ingestion,
		analysis:  analysis,
	}, nil
}

// Start brings the worker up and returns once it is polling. Worker
// start retries with backoff; a missing namespace is healed once when
// auto-registration is enabled, otherwise reported as terminal.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}

	cfg := temporalx.LoadConfig()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}

	maxWait := time.Duration(utils.GetEnvAsInt("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60, r.log)) * time.Second
	backoff := time.Duration(utils.GetEnvAsInt("TEMPORAL_WORKER_START_BACKOFF_MS", 250, r.log)) * time.Millisecond
	backoffMax := time.Duration(utils.GetEnvAsInt("TEMPORAL_WORKER_START_BACKOFF_MAX_MS", 5000, r.log)) * time.Millisecond

	deadline := time.Now().Add(maxWait)
	for attempt := 1; ; attempt++ {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			if ctx != nil {
				go func() {
					<-ctx.Done()
					w.Stop()
				}()
			}
			if r.log != nil {
				r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			}
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && utils.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, r.log) {
			baseCtx := ctx
			if baseCtx == nil {
				baseCtx = context.Background()
			}
			if err := temporalx.EnsureNamespace(baseCtx, cfg, r.log); err != nil && r.log != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", cfg.Namespace, "error", err)
			}
		}

		if maxWait <= 0 || time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}
		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)
		}
		time.Sleep(clampBackoff(backoff, backoffMax, attempt))
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &caserun.Activities{
		Log:       r.log,
		Ingestion: r.ingestion,
		Analysis:  r.analysis,
	}

	w.RegisterWorkflowWithOptions(caserun.Workflow, workflow.RegisterOptions{Name: caserun.WorkflowName})
	w.RegisterActivityWithOptions(acts.Ingest, activity.RegisterOptions{Name: caserun.ActivityIngest})
	w.RegisterActivityWithOptions(acts.AnalyzeSection, activity.RegisterOptions{Name: caserun.ActivityAnalyzeSection})
	return w
}

func clampBackoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}
