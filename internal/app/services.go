package app

import (
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
	"github.com/caselens/caselens-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Audit      services.AuditService
	Extraction services.ExtractionService
	Redaction  services.RedactionService
	Ingestion  services.IngestionService
	Analysis   services.AnalysisService
	Workflow   services.WorkflowService
	Setup      services.SetupService
	Health     services.HealthService
	CaseAdmin  services.CaseAdminService

	// Worker is non-nil only when RUN_WORKER is set and Temporal is
	// configured.
	Worker *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, r Repos) (Services, error) {
	log.Info("Wiring services...")

	audit := services.NewAuditService(log, r.Event, clients.EventBus)
	extraction := services.NewExtractionService(log, clients.OpenAI, r.PromptTemplate)
	redaction := services.NewRedactionService(log, clients.OpenAI, r.PromptTemplate)

	ingestion := services.NewIngestionService(
		log,
		clients.CMS,
		clients.Bucket,
		clients.DocParse,
		extraction,
		redaction,
		audit,
		r.Case,
		r.Defendant,
		r.Charge,
		r.Offence,
		r.Document,
		r.Version,
		r.Experiment,
		r.Section,
	)

	analysis := services.NewAnalysisService(
		log,
		clients.OpenAI,
		clients.Bucket,
		r.PromptTemplate,
		r.Section,
		r.Experiment,
		r.AnalysisJob,
		r.AnalysisResult,
		audit,
		services.DefaultTasks(),
		cfg.AnalysisConcurrent,
	)

	workflow := services.NewWorkflowService(log, ingestion, analysis)
	setup := services.NewSetupService(log, db, clients.Bucket, r.PromptTemplate)
	health := services.NewHealthService(log, ValidateEnv, db, clients.Bucket, clients.OpenAI, clients.DocParse, clients.CMS, cfg.CMSTestURN)
	caseAdmin := services.NewCaseAdminService(
		log,
		db,
		clients.Bucket,
		audit,
		r.Case,
		r.Defendant,
		r.Charge,
		r.Offence,
		r.Document,
		r.Version,
		r.Section,
		r.AnalysisJob,
		r.AnalysisResult,
	)

	svcs := Services{
		Audit:      audit,
		Extraction: extraction,
		Redaction:  redaction,
		Ingestion:  ingestion,
		Analysis:   analysis,
		Workflow:   workflow,
		Setup:      setup,
		Health:     health,
		CaseAdmin:  caseAdmin,
	}

	if cfg.RunWorker && clients.Temporal != nil {
		worker, err := temporalworker.NewRunner(log, clients.Temporal, ingestion, analysis)
		if err != nil {
			return Services{}, err
		}
		svcs.Worker = worker
	}

	return svcs, nil
}
