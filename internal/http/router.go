package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/caselens/caselens-backend/internal/http/handlers"
	httpMW "github.com/caselens/caselens-backend/internal/http/middleware"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler    *httpH.HealthHandler
	IngestionHandler *httpH.IngestionHandler
	AnalysisHandler  *httpH.AnalysisHandler
	WorkflowHandler  *httpH.WorkflowHandler
	SetupHandler     *httpH.SetupHandler
	CaseAdminHandler *httpH.CaseAdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("caselens-backend"))
	r.Use(httpMW.AttachCorrelationID())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())

	// Liveness
	if cfg.HealthHandler != nil {
		r.GET("/ping", cfg.HealthHandler.Ping)
	}

	api := r.Group("/api")
	{
		// Health
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.Check)
		}

		// Ingestion
		if cfg.IngestionHandler != nil {
			api.POST("/ingestion", cfg.IngestionHandler.Ingest)
		}

		// Analysis
		if cfg.AnalysisHandler != nil {
			api.POST("/analysis", cfg.AnalysisHandler.Analyze)
		}

		// Workflow (ingestion + analysis)
		if cfg.WorkflowHandler != nil {
			api.POST("/workflow", cfg.WorkflowHandler.Run)
		}

		// Setup (test environments only)
		if cfg.SetupHandler != nil {
			api.POST("/setup", cfg.SetupHandler.Setup)
		}

		// Case maintenance
		if cfg.CaseAdminHandler != nil {
			api.DELETE("/cases/:id", cfg.CaseAdminHandler.Delete)
		}
	}

	return r
}
