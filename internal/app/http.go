package app

import (
	"github.com/gin-gonic/gin"

	caselenshttp "github.com/caselens/caselens-backend/internal/http"
	httpH "github.com/caselens/caselens-backend/internal/http/handlers"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/temporalx"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Ingestion *httpH.IngestionHandler
	Analysis  *httpH.AnalysisHandler
	Workflow  *httpH.WorkflowHandler
	Setup     *httpH.SetupHandler
	CaseAdmin *httpH.CaseAdminHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients Clients, svcs Services) Handlers {
	log.Info("Wiring handlers...")

	h := Handlers{
		Health:    httpH.NewHealthHandler(log, svcs.Health),
		Ingestion: httpH.NewIngestionHandler(log, svcs.Ingestion),
		Analysis:  httpH.NewAnalysisHandler(log, svcs.Analysis),
		Workflow:  httpH.NewWorkflowHandler(log, svcs.Workflow, clients.Temporal, temporalx.LoadConfig().TaskQueue),
		CaseAdmin: httpH.NewCaseAdminHandler(log, svcs.CaseAdmin),
	}
	// The setup endpoint truncates and drops tables; it stays dark
	// unless explicitly enabled for the environment.
	if cfg.SetupEnabled {
		h.Setup = httpH.NewSetupHandler(log, svcs.Setup)
	}
	return h
}

func wireRouter(log *logger.Logger, handlers Handlers) *gin.Engine {
	return caselenshttp.NewRouter(caselenshttp.RouterConfig{
		Log:              log,
		HealthHandler:    handlers.Health,
		IngestionHandler: handlers.Ingestion,
		AnalysisHandler:  handlers.Analysis,
		WorkflowHandler:  handlers.Workflow,
		SetupHandler:     handlers.Setup,
		CaseAdminHandler: handlers.CaseAdmin,
	})
}
