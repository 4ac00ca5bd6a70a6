package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/clients/cms"
	"github.com/caselens/caselens-backend/internal/clients/gcp"
	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// HealthService reports readiness. An empty route validates configuration
// only; a named route exercises that dependency with one real call.
type HealthService interface {
	Check(ctx context.Context, route string) map[string]any
}

type healthService struct {
	log      *logger.Logger
	validate func() []string
	db       *gorm.DB
	bucket   gcp.BucketService
	llm      openai.Client
	parser   gcp.DocParseService
	cms      cms.Client
	testURN  string
}

func NewHealthService(
	baseLog *logger.Logger,
	validateConfig func() []string,
	db *gorm.DB,
	bucket gcp.BucketService,
	llm openai.Client,
	parser gcp.DocParseService,
	cmsClient cms.Client,
	testURN string,
) HealthService {
	return &healthService{
		log:      baseLog.With("service", "HealthService"),
		validate: validateConfig,
		db:       db,
		bucket:   bucket,
		llm:      llm,
		parser:   parser,
		cms:      cmsClient,
		testURN:  testURN,
	}
}

func (s *healthService) Check(ctx context.Context, route string) map[string]any {
	s.log.Info("health check invoked", "route", route)

	if s.validate != nil {
		if errs := s.validate(); len(errs) > 0 {
			s.log.Error("config validation failed", "errors", errs)
			return map[string]any{"status": "error", "errors": errs}
		}
	}

	switch strings.ToLower(strings.TrimSpace(route)) {
	case "":
		return map[string]any{"status": "success"}
	case "blob":
		return s.checkBlob(ctx)
	case "postgres":
		return s.checkPostgres(ctx)
	case "llm":
		return s.checkLLM(ctx)
	case "docparse":
		return s.checkDocParse(ctx)
	case "cms":
		return s.checkCMS(ctx)
	default:
		s.log.Warn("unknown health check route", "route", route)
		return map[string]any{"status": "error", "error": fmt.Sprintf("Unknown route: %s", route)}
	}
}

func (s *healthService) checkBlob(ctx context.Context) map[string]any {
	categories := []gcp.BucketCategory{
		gcp.BucketCategorySource,
		gcp.BucketCategoryProcessed,
		gcp.BucketCategorySections,
	}
	for _, category := range categories {
		if _, err := s.bucket.BucketName(category); err != nil {
			return s.failure("blob", err)
		}
	}
	// One real round trip; the prefix matches nothing so the listing is empty.
	if _, err := s.bucket.ListKeys(ctx, gcp.BucketCategorySource, "health/probe/"); err != nil {
		return s.failure("blob", err)
	}
	return map[string]any{"status": "success", "blob": fmt.Sprintf("connected (%d buckets)", len(categories))}
}

func (s *healthService) checkPostgres(ctx context.Context) map[string]any {
	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return s.failure("postgres", err)
	}
	tables, err := s.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return s.failure("postgres", err)
	}
	verification := verifySchema(ctx, s.db)
	return map[string]any{
		"status":   "success",
		"postgres": fmt.Sprintf("connected (verification %s, %d tables)", verification.Status, len(tables)),
	}
}

func (s *healthService) checkLLM(ctx context.Context) map[string]any {
	answer, err := s.llm.GenerateText(ctx, "", "1 + two + tree = ? Be concise.")
	if err != nil {
		return s.failure("llm", err)
	}
	return map[string]any{"status": "success", "llm": fmt.Sprintf("connected ('%s')", strings.TrimSpace(answer))}
}

func (s *healthService) checkDocParse(ctx context.Context) map[string]any {
	state, err := s.parser.Ping(ctx)
	if err != nil {
		return s.failure("docparse", err)
	}
	return map[string]any{"status": "success", "docparse": fmt.Sprintf("connected (processor %s)", state)}
}

func (s *healthService) checkCMS(ctx context.Context) map[string]any {
	if err := s.cms.Authenticate(ctx); err != nil {
		return s.failure("cms", fmt.Errorf("authentication failed: %w", err))
	}
	if s.testURN == "" {
		return map[string]any{"status": "success", "cms": "connected (authenticated)"}
	}
	caseID, err := s.cms.GetCaseIDFromURN(ctx, s.testURN)
	if err != nil {
		return s.failure("cms", fmt.Errorf("failed to get case ID: %w", err))
	}
	return map[string]any{
		"status": "success",
		"cms":    fmt.Sprintf("connected (case_id length %d)", len(strconv.FormatInt(caseID, 10))),
	}
}

func (s *healthService) failure(route string, err error) map[string]any {
	s.log.Error("health check failed", "route", route, "error", err)
	return map[string]any{"status": "error", route: "disconnected", "error": err.Error()}
}
